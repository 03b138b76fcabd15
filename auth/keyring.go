// Package auth persists media server access tokens in the system keyring.
package auth

import (
	"errors"

	"github.com/reelix-cli/reelix/constant"
	"github.com/zalando/go-keyring"
)

const service = constant.DeviceName

// SetToken stores the access token for the given server URL.
func SetToken(server, token string) error {
	return keyring.Set(service, server, token)
}

// GetToken returns the access token for the given server URL.
// A missing entry is reported as an empty token without error.
func GetToken(server string) (string, error) {
	token, err := keyring.Get(service, server)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return token, err
}

// DeleteToken forgets the access token for the given server URL.
func DeleteToken(server string) error {
	err := keyring.Delete(service, server)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
