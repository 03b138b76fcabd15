package stream

// State of the loader.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Playing
	Paused
	SwitchingTrack
	Ended
	Error
)

var stateNames = [...]string{"idle", "loading", "ready", "playing", "paused", "switching track", "ended", "error"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Settled reports whether a source is loaded and not being replaced.
func (s State) Settled() bool {
	return s == Ready || s == Playing || s == Paused || s == Ended
}

// NoticeKind enumerates what the loader tells its owner.
type NoticeKind int

const (
	// Started means a new server session is loaded.
	Started NoticeKind = iota
	// Switched means a track switch loaded a new server session.
	Switched
	// LoadFailed means the descriptor of a load could not be fetched.
	LoadFailed
	// SwitchFailed means a track switch failed; the previous stream is kept.
	SwitchFailed
	// Degraded means the adaptive engine failed and the stream was loaded directly.
	Degraded
)

// Notice is delivered on the loop.
type Notice struct {
	Kind NoticeKind
	// At is the position the new session starts at, in seconds.
	At  float64
	Err error
}
