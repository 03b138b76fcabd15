package queue

import (
	"fmt"
	"strings"
)

// RepeatMode decides what happens at the ends of the queue.
type RepeatMode int

const (
	// RepeatNone stops at the end of the queue.
	RepeatNone RepeatMode = iota
	// RepeatOne restarts the current item.
	RepeatOne
	// RepeatAll wraps around at either end.
	RepeatAll
)

var repeatNames = map[RepeatMode]string{
	RepeatNone: "none",
	RepeatOne:  "one",
	RepeatAll:  "all",
}

func (m RepeatMode) String() string {
	if name, ok := repeatNames[m]; ok {
		return name
	}
	return fmt.Sprintf("RepeatMode(%d)", int(m))
}

// Next cycles none -> all -> one -> none.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatNone:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatNone
	}
}

// ParseRepeatMode parses the config representation of a repeat mode.
func ParseRepeatMode(s string) (RepeatMode, error) {
	for mode, name := range repeatNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return mode, nil
		}
	}
	return RepeatNone, fmt.Errorf("unknown repeat mode %q", s)
}
