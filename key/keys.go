// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Media Server - connection and identity of the remote library.
const (
	ServerURL      = "server.url"
	ServerUser     = "server.user"
	ServerUserID   = "server.user_id"
	ServerDeviceID = "server.device_id"
	ServerTimeout  = "server.timeout_seconds"
)

// Playback - parameters of the stream loader and the session controller.
const (
	PlaybackMaxBitrate       = "playback.max_bitrate"
	PlaybackAutoplay         = "playback.autoplay"
	PlaybackVolume           = "playback.volume"
	PlaybackRepeat           = "playback.repeat"
	PlaybackBufferSeconds    = "playback.buffer_seconds"
	PlaybackBackBufferSecs   = "playback.back_buffer_seconds"
	PlaybackAdaptiveEngine   = "playback.adaptive_engine"
	PlaybackAutoContinue     = "playback.auto_continue"
	PlaybackHeartbeatSeconds = "playback.heartbeat_seconds"
	PlaybackChapterRestart   = "playback.chapter_restart_seconds"
)

// Media player process.
const (
	PlayerBinary     = "player.binary"
	PlayerArgs       = "player.args"
	PlayerSeekStep   = "player.seek_step_seconds"
	PlayerVolumeStep = "player.volume_step"
)

// Caches and local state.
const (
	CachePersist      = "cache.persist"
	HistorySaveOnStop = "history.save_on_stop"
)

// Library search.
const (
	SearchQuerySuggestions = "search.query_suggestions"
)

// Scripting - Lua stream URL hooks.
const (
	ScriptsEnable = "scripts.enable"
)

// Network transport.
const (
	NetworkTLSFingerprint = "network.tls_fingerprint"
)

// Iconography.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
