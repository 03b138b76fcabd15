// Package config registers configuration defaults and loads reelix.toml through viper.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/reelix-cli/reelix/color"
	"github.com/reelix-cli/reelix/constant"
	"github.com/reelix-cli/reelix/key"
	"github.com/reelix-cli/reelix/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Reelix + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	case []int:
		return "[]int"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		f := Field{Key: k, Value: v, Description: desc}
		Default[k] = f
		EnvExposed = append(EnvExposed, k)
	}

	register(key.ServerURL, "", "Base URL of the media server, e.g. https://media.example.org")
	register(key.ServerUser, "", "User name used by \"reelix login\"")
	register(key.ServerUserID, "", "User id returned by the server on login.\nFilled in automatically")
	register(key.ServerDeviceID, "", "Stable device id sent in the authorization header.\nGenerated on first run when empty")
	register(key.ServerTimeout, 15, "Timeout in seconds for media server requests")
	register(key.PlaybackMaxBitrate, 120_000_000, "Bitrate ceiling in bits per second requested from the server")
	register(key.PlaybackAutoplay, true, "Start playing as soon as a stream is ready")
	register(key.PlaybackVolume, 100, "Initial volume (0-100)")
	register(key.PlaybackRepeat, "none", "Initial repeat mode.\nAvailable options are: none, one, all")
	register(key.PlaybackBufferSeconds, 30, "Forward buffer of adaptive streams, in seconds")
	register(key.PlaybackBackBufferSecs, 30, "Back buffer of adaptive streams, in seconds")
	register(key.PlaybackAdaptiveEngine, true, "Use the built-in HLS engine for adaptive streams.\nWhen disabled, manifests are handed to the player as is")
	register(key.PlaybackAutoContinue, true, "Fetch the next episode of a series when the queue runs out")
	register(key.PlaybackHeartbeatSeconds, 10, "Progress heartbeat period, in whole seconds of playback")
	register(key.PlaybackChapterRestart, 3, "Seconds into a chapter after which \"previous chapter\" restarts it instead")
	register(key.PlayerBinary, "mpv", "Media player binary (must speak the mpv JSON IPC protocol)")
	register(key.PlayerArgs, []string{}, "Extra arguments passed to the media player")
	register(key.PlayerSeekStep, 10, "Seconds skipped by the seek keys")
	register(key.PlayerVolumeStep, 5, "Volume change of the volume keys, in percent")
	register(key.CachePersist, true, "Persist chapter and item type caches between runs")
	register(key.HistorySaveOnStop, true, "Remember the stop position of every item locally")
	register(key.SearchQuerySuggestions, true, "Suggest earlier searches in the interactive search prompt")
	register(key.ScriptsEnable, false, "Run Lua hooks from the scripts directory on every stream URL")
	register(key.NetworkTLSFingerprint, false, "Use a browser TLS fingerprint for media server requests")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, kaomoji, plain, squares, nerd (nerd-font required)")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, true, "Enable automatic version check")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
