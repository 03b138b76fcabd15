package config

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/reelix-cli/reelix/constant"
	"github.com/reelix-cli/reelix/filesystem"
	"github.com/reelix-cli/reelix/key"
	"github.com/reelix-cli/reelix/where"
	"github.com/spf13/viper"
)

// EnvKeyReplacer maps config keys to environment variable names.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup binds defaults and REELIX_* environment variables, then reads reelix.toml
// from the config directory if it exists.
func Setup() error {
	viper.SetConfigName(constant.Reelix)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.Reelix)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}

	return nil
}

// DeviceID returns the configured device id, generating one when it is unset.
// A generated id is kept in memory; it becomes stable once the config is written.
func DeviceID() string {
	id := viper.GetString(key.ServerDeviceID)
	if id != "" {
		return id
	}

	id = uuid.NewString()
	viper.Set(key.ServerDeviceID, id)
	return id
}
