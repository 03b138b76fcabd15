package session

import (
	"github.com/reelix-cli/reelix/chapter"
	"github.com/reelix-cli/reelix/queue"
	"github.com/reelix-cli/reelix/stream"
	"github.com/reelix-cli/reelix/track"
)

// PlaybackState mirrors what the element reported last.
type PlaybackState struct {
	Playing     bool
	CurrentTime float64
	Duration    float64
	Volume      int
	Muted       bool
	Repeat      queue.RepeatMode
	Shuffle     bool
}

// TrackSelection is the selected audio and subtitle stream. Switching is
// true while a track switch reload is in flight.
type TrackSelection struct {
	Audio     int
	Subtitle  int
	Switching bool
}

// Outcome is what Next, Previous and the end of an item led to.
type Outcome int

const (
	// Restarted means repeat-one restarted the current item.
	Restarted Outcome = iota
	// Advanced means the queue moved to a neighbouring item.
	Advanced
	// Wrapped means repeat-all wrapped around the queue.
	Wrapped
	// Sibling means a sibling episode lookup was started.
	Sibling
	// Exhausted means there is nothing further to play.
	Exhausted
)

var outcomeNames = [...]string{"restarted", "advanced", "wrapped", "sibling", "exhausted"}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Snapshot is a copy of the controller state. Queue items are shared and
// must be treated as read-only.
type Snapshot struct {
	State    stream.State
	Playback PlaybackState
	Tracks   TrackSelection
	Catalog  track.Catalog

	Queue   []*queue.Item
	Index   int
	Current *queue.Item

	Chapters []chapter.Mark
	// Chapter is the index of the current chapter, or -1.
	Chapter int

	// Busy is set while a descriptor or a sibling episode is being fetched.
	Busy bool
	// Exhausted is set when playback ended with nothing left to play.
	Exhausted bool
	Err       error
	Closed    bool
}
