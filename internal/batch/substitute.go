package batch

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrRestoreFailed is returned when the original timestamps of a batch cannot
// be put back. The batch is left unchanged.
var ErrRestoreFailed = errors.New("restore of original ticket dates failed")

// SubstituteMissingDates returns copies of tickets in which every phase that
// has started but not ended is closed at now. Tickets are never modified.
func SubstituteMissingDates(tickets []Ticket, now time.Time) []Ticket {
	out := cloneAll(tickets)
	for i := range out {
		t := &out[i]
		if t.AcknowledgedAt == nil && !t.OpenedAt.IsZero() {
			t.AcknowledgedAt = cloneTime(&now)
		}
		if t.ClosedAt == nil && !t.OpenedAt.IsZero() {
			t.ClosedAt = cloneTime(&now)
		}
		if t.SuspendedAt != nil && t.ResumedAt == nil {
			t.ResumedAt = cloneTime(&now)
		}
	}
	return out
}

// Batch holds a ticket set whose missing dates can be substituted and later
// restored. The original dates are kept in a backup taken at construction.
type Batch struct {
	mu          sync.Mutex
	backup      []Ticket
	current     []Ticket
	substituted bool
}

func NewBatch(tickets []Ticket) *Batch {
	return &Batch{backup: cloneAll(tickets), current: cloneAll(tickets)}
}

// Tickets returns a copy of the current tickets.
func (b *Batch) Tickets() []Ticket {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneAll(b.current)
}

func (b *Batch) Substituted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.substituted
}

// SetSubstituteMissingDates switches substitution on or off. Switching on
// fills missing dates with now; switching off restores every original date
// or, if that is impossible, none of them. Setting the current state again
// is a no-op.
func (b *Batch) SetSubstituteMissingDates(on bool, now time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if on == b.substituted {
		return nil
	}
	if on {
		b.current = SubstituteMissingDates(b.backup, now)
		b.substituted = true
		return nil
	}
	restored, err := restore(b.backup, b.current)
	if err != nil {
		return err
	}
	b.current = restored
	b.substituted = false
	return nil
}

// restore rebuilds the original tickets, checking that the backup still
// describes the same tickets in the same order.
func restore(backup, current []Ticket) ([]Ticket, error) {
	if len(backup) != len(current) {
		return nil, fmt.Errorf("%w: backup has %d tickets, batch has %d", ErrRestoreFailed, len(backup), len(current))
	}
	for i := range backup {
		if backup[i].ID != current[i].ID {
			return nil, fmt.Errorf("%w: ticket %d is %q in backup and %q in batch", ErrRestoreFailed, i, backup[i].ID, current[i].ID)
		}
	}
	return cloneAll(backup), nil
}
