package history

import (
	"fmt"
	"time"

	"github.com/reelix-cli/reelix/queue"
	"github.com/reelix-cli/reelix/ticks"
)

// finishedAt is the watched fraction from which an item counts as finished.
const finishedAt = 0.95

// Entry is the saved stop position of one item.
type Entry struct {
	ItemID        string    `json:"item_id"`
	Title         string    `json:"title"`
	Subtitle      string    `json:"subtitle,omitempty"`
	SeriesID      string    `json:"series_id,omitempty"`
	PositionTicks int64     `json:"position_ticks"`
	DurationTicks int64     `json:"duration_ticks"`
	Watched       float64   `json:"watched"`
	Finished      bool      `json:"finished"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (e *Entry) String() string {
	name := e.Title
	if e.Subtitle != "" {
		name = fmt.Sprintf("%s %s", e.Title, e.Subtitle)
	}
	return fmt.Sprintf("%s : %s / %s", name, ticks.Format(ticks.ToSeconds(e.PositionTicks)), ticks.Format(ticks.ToSeconds(e.DurationTicks)))
}

// Item returns a queue item resuming from the saved position.
func (e *Entry) Item() *queue.Item {
	return &queue.Item{
		ID:          e.ItemID,
		Title:       e.Title,
		Subtitle:    e.Subtitle,
		SeriesID:    e.SeriesID,
		ResumeTicks: e.PositionTicks,
	}
}

func newEntry(item *queue.Item, position, duration float64) *Entry {
	entry := &Entry{
		ItemID:        item.ID,
		Title:         item.Title,
		Subtitle:      item.Subtitle,
		SeriesID:      item.SeriesID,
		PositionTicks: ticks.FromSeconds(max(position, 0)),
		DurationTicks: ticks.FromSeconds(max(duration, 0)),
		UpdatedAt:     time.Now(),
	}

	if duration > 0 {
		entry.Watched = min(position/duration, 1)
	}
	if entry.Watched >= finishedAt {
		entry.Finished = true
		entry.PositionTicks = 0
	}

	return entry
}
