// Package chapter resolves the current chapter of an item at a playback
// position and navigates between chapters.
package chapter

import (
	"sort"

	"github.com/reelix-cli/reelix/mediaserver"
	"github.com/reelix-cli/reelix/ticks"
	"github.com/samber/lo"
)

// RestartThreshold is how far into a chapter, in seconds, Previous restarts
// the current chapter instead of moving back one.
const RestartThreshold = 3.0

// Mark is an immutable chapter start.
type Mark struct {
	StartTicks int64  `json:"startTicks"`
	Name       string `json:"name"`
}

// Start returns the chapter start in seconds.
func (m Mark) Start() float64 {
	return ticks.ToSeconds(m.StartTicks)
}

// Index navigates a list of marks sorted by start.
type Index struct {
	marks            []Mark
	restartThreshold float64
}

// New returns an index over marks, which must be sorted by start.
func New(marks []Mark) *Index {
	return &Index{marks: marks, restartThreshold: RestartThreshold}
}

// WithRestartThreshold overrides RestartThreshold.
func (x *Index) WithRestartThreshold(seconds float64) *Index {
	x.restartThreshold = seconds
	return x
}

// FromServer converts server chapters into sorted marks.
func FromServer(chapters []mediaserver.Chapter) []Mark {
	marks := lo.Map(chapters, func(c mediaserver.Chapter, _ int) Mark {
		return Mark{StartTicks: c.StartPositionTicks, Name: c.Name}
	})
	sort.SliceStable(marks, func(i, j int) bool {
		return marks[i].StartTicks < marks[j].StartTicks
	})
	return marks
}

// Len returns the number of marks.
func (x *Index) Len() int {
	return len(x.marks)
}

// Marks returns the underlying marks.
func (x *Index) Marks() []Mark {
	return x.marks
}

// Current returns the last mark starting at or before seconds. A position
// before the first mark resolves to the first mark, so the list always
// covers time zero. An empty list has no current chapter.
func (x *Index) Current(seconds float64) (int, Mark, bool) {
	if len(x.marks) == 0 {
		return 0, Mark{}, false
	}

	for i := len(x.marks) - 1; i >= 0; i-- {
		if x.marks[i].Start() <= seconds {
			return i, x.marks[i], true
		}
	}
	return 0, x.marks[0], true
}

// Next returns the mark after the current one, if any.
func (x *Index) Next(seconds float64) (Mark, bool) {
	i, _, ok := x.Current(seconds)
	if !ok || i+1 >= len(x.marks) {
		return Mark{}, false
	}
	return x.marks[i+1], true
}

// Previous returns the mark to seek to when stepping back: the start of the
// current chapter when more than the restart threshold into it, otherwise
// the previous mark, clamped at the first one.
func (x *Index) Previous(seconds float64) (Mark, bool) {
	i, current, ok := x.Current(seconds)
	if !ok {
		return Mark{}, false
	}

	if seconds-current.Start() > x.restartThreshold {
		return current, true
	}
	return x.marks[max(i-1, 0)], true
}
