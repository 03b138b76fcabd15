// Package where resolves the filesystem locations used by the application.
package where

import (
	"os"
	"path/filepath"

	"github.com/reelix-cli/reelix/constant"
	"github.com/reelix-cli/reelix/filesystem"
	"github.com/samber/lo"
)

// EnvConfigPath overrides the configuration directory.
const EnvConfigPath = "REELIX_CONFIG_PATH"

func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config returns the configuration directory, honoring REELIX_CONFIG_PATH.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.Reelix))
}

// Cache returns the persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.Reelix))
}

// Logs returns the directory daily log files are written to.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Scripts returns the directory holding user Lua stream hooks.
func Scripts() string {
	return ensureDir(filepath.Join(Config(), "scripts"))
}

// History returns the local resume history file.
func History() string {
	return filepath.Join(Config(), "history.json")
}

// Chapters returns the persisted chapter cache file.
func Chapters() string {
	return filepath.Join(Cache(), "chapters.json")
}

// ItemTypes returns the persisted item classification cache file.
func ItemTypes() string {
	return filepath.Join(Cache(), "item_types.json")
}

// Queries returns the search history file.
func Queries() string {
	return filepath.Join(Cache(), "queries.json")
}

// Temp returns a volatile directory for sockets and scratch files.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.Reelix))
}
