// Package network owns the HTTP client shared by the media server client, the
// HLS engine and Lua hooks.
package network

import (
	"net/http"
	"time"

	"github.com/reelix-cli/reelix/key"
	"github.com/spf13/viper"
)

// Client is shared by every outgoing request. Setup reconfigures it in place.
var Client = &http.Client{
	Timeout:   time.Minute,
	Transport: newTransport(),
}

// Setup applies the network and server timeout settings to Client.
func Setup() {
	if secs := viper.GetInt(key.ServerTimeout); secs > 0 {
		Client.Timeout = time.Duration(secs) * time.Second
	}

	if viper.GetBool(key.NetworkTLSFingerprint) {
		Client.Transport = NewFingerprintTransport()
	} else {
		Client.Transport = newTransport()
	}
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 32
	t.MaxIdleConnsPerHost = 16
	t.IdleConnTimeout = 90 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	return t
}
