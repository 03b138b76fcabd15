package player

import (
	"github.com/reelix-cli/reelix/chapter"
	"github.com/samber/lo"
)

// Chaptered is implemented by elements that can draw chapter marks on their
// own timeline.
type Chaptered interface {
	ShowChapters(marks []chapter.Mark) error
}

// ShowChapters replaces mpv's chapter list with marks.
func (m *MPV) ShowChapters(marks []chapter.Mark) error {
	list := lo.Map(marks, func(mark chapter.Mark, _ int) map[string]any {
		return map[string]any{
			"time":  mark.Start(),
			"title": sanitizeTitle(mark.Name),
		}
	})
	return m.set("chapter-list", list)
}
