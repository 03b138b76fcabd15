// Package queue holds the ordered list of items to play and the pointer to
// the current one.
//
// A Queue is not safe for concurrent use; the session controller only
// touches it from its event loop.
package queue

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/samber/lo"
	"github.com/samber/mo"
)

var ErrOutOfRange = errors.New("queue index out of range")

// Queue is an ordered list of items with a current index. Whenever the queue
// is not empty, 0 <= Index() < Len().
type Queue struct {
	items   []*Item
	current int
	repeat  RepeatMode

	// unshuffled is the order to restore when shuffle is turned off.
	unshuffled []*Item
}

// New returns a queue holding items, pointing at the first one.
func New(items ...*Item) *Queue {
	return &Queue{items: items}
}

func (q *Queue) Len() int {
	return len(q.items)
}

// Items returns a copy of the queue contents.
func (q *Queue) Items() []*Item {
	return append([]*Item(nil), q.items...)
}

// Index returns the current index. It is 0 for an empty queue.
func (q *Queue) Index() int {
	return q.current
}

// Current returns the item the index points at.
func (q *Queue) Current() mo.Option[*Item] {
	if len(q.items) == 0 {
		return mo.None[*Item]()
	}
	return mo.Some(q.items[q.current])
}

func (q *Queue) Repeat() RepeatMode {
	return q.repeat
}

func (q *Queue) SetRepeat(mode RepeatMode) {
	q.repeat = mode
}

// Shuffled reports whether shuffle is on.
func (q *Queue) Shuffled() bool {
	return q.unshuffled != nil
}

func (q *Queue) HasNext() bool {
	return q.current+1 < len(q.items)
}

func (q *Queue) HasPrevious() bool {
	return q.current > 0 && len(q.items) > 0
}

// Add appends items to the queue.
func (q *Queue) Add(items ...*Item) {
	q.items = append(q.items, items...)
	if q.unshuffled != nil {
		q.unshuffled = append(q.unshuffled, items...)
	}
}

// Advance moves to the next item. It reports false at the end of the queue.
func (q *Queue) Advance() bool {
	if !q.HasNext() {
		return false
	}
	q.current++
	return true
}

// Retreat moves to the previous item. It reports false at the start.
func (q *Queue) Retreat() bool {
	if !q.HasPrevious() {
		return false
	}
	q.current--
	return true
}

// Wrap moves to the first item, or to the last one when toLast is set.
func (q *Queue) Wrap(toLast bool) {
	if len(q.items) == 0 {
		return
	}
	q.current = lo.Ternary(toLast, len(q.items)-1, 0)
}

// Jump moves to index i.
func (q *Queue) Jump(i int) error {
	if err := q.check(i); err != nil {
		return err
	}
	q.current = i
	return nil
}

func (q *Queue) check(i int) error {
	if i < 0 || i >= len(q.items) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, i, len(q.items))
	}
	return nil
}

// Reorder moves the item at from so it lands at to. The index keeps pointing
// at the same item; when that item is the one moved, the index follows it.
func (q *Queue) Reorder(from, to int) error {
	if err := q.check(from); err != nil {
		return err
	}
	if err := q.check(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}

	moved := q.items[from]
	rest := append(q.items[:from:from], q.items[from+1:]...)
	q.items = append(rest[:to:to], append([]*Item{moved}, rest[to:]...)...)

	switch {
	case from == q.current:
		q.current = to
	case from < q.current && to >= q.current:
		q.current--
	case from > q.current && to <= q.current:
		q.current++
	}
	return nil
}

// Remove deletes the item at i. Removing an item before the current one
// shifts the index back; removing the current last item clamps the index to
// the new last item.
func (q *Queue) Remove(i int) error {
	if err := q.check(i); err != nil {
		return err
	}

	removed := q.items[i]
	q.items = append(q.items[:i:i], q.items[i+1:]...)

	if q.unshuffled != nil {
		if at := lo.IndexOf(q.unshuffled, removed); at >= 0 {
			q.unshuffled = append(q.unshuffled[:at:at], q.unshuffled[at+1:]...)
		}
	}

	switch {
	case i < q.current:
		q.current--
	case q.current >= len(q.items):
		q.current = max(0, len(q.items)-1)
	}
	return nil
}

// Replace swaps the whole queue for items and points at the first one.
// Shuffle is turned off.
func (q *Queue) Replace(items ...*Item) {
	q.items = append([]*Item(nil), items...)
	q.current = 0
	q.unshuffled = nil
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.Replace()
}

// SetShuffle turns shuffle on or off. Turning it on shuffles the items after
// the current one; turning it off restores the order they had before, with
// the index still on the current item.
func (q *Queue) SetShuffle(on bool, rng *rand.Rand) {
	if on == q.Shuffled() {
		return
	}

	if !on {
		current := q.Current()
		q.items, q.unshuffled = q.unshuffled, nil
		if item, ok := current.Get(); ok {
			q.current = max(0, lo.IndexOf(q.items, item))
		}
		return
	}

	q.unshuffled = make([]*Item, len(q.items))
	copy(q.unshuffled, q.items)
	if len(q.items) == 0 {
		return
	}

	tail := q.items[q.current+1:]
	rng.Shuffle(len(tail), func(i, j int) {
		tail[i], tail[j] = tail[j], tail[i]
	})
}
