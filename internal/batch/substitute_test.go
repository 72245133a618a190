package batch

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestBatchRestoresOriginalDates(t *testing.T) {
	original := manyTickets(20)
	b := NewBatch(original)
	p := newProcessor(Config{})

	baseline, err := p.Process(context.Background(), b.Tickets())
	if err != nil {
		t.Fatal(err)
	}

	now := at(12, 12, 0)
	if err := b.SetSubstituteMissingDates(true, now); err != nil {
		t.Fatal(err)
	}
	if err := b.SetSubstituteMissingDates(true, at(20, 0, 0)); err != nil {
		t.Fatal(err)
	}
	for _, tk := range b.Tickets() {
		if tk.ClosedAt == nil || tk.AcknowledgedAt == nil {
			t.Fatalf("ticket %s not substituted", tk.ID)
		}
	}
	if got := *b.Tickets()[1].ClosedAt; !got.Equal(now) {
		t.Fatalf("repeated enable must keep the first substitution, got %v", got)
	}
	if _, err := p.Process(context.Background(), b.Tickets()); err != nil {
		t.Fatal(err)
	}

	if err := b.SetSubstituteMissingDates(false, now); err != nil {
		t.Fatal(err)
	}
	if b.Substituted() {
		t.Fatal("batch still marked substituted")
	}
	if !reflect.DeepEqual(b.Tickets(), original) {
		t.Fatal("restored tickets differ from the original")
	}

	again, err := p.Process(context.Background(), b.Tickets())
	if err != nil {
		t.Fatal(err)
	}
	for i := range baseline {
		a, c := baseline[i], again[i]
		if a.TMC != c.TMC || a.TMS != c.TMS || a.TSOSP != c.TSOSP || a.TEFF != c.TEFF ||
			a.AcknowledgeViolation != c.AcknowledgeViolation || a.ResolveViolation != c.ResolveViolation {
			t.Fatalf("ticket %s changed after restore: %+v vs %+v", a.TicketID, a, c)
		}
	}
}

func TestBatchIsolatedFromCaller(t *testing.T) {
	original := manyTickets(2)
	b := NewBatch(original)
	*original[0].AcknowledgedAt = at(30, 0, 0)
	if b.Tickets()[0].AcknowledgedAt.Equal(at(30, 0, 0)) {
		t.Fatal("batch shares timestamps with the caller")
	}
}

func TestRestoreAllOrNothing(t *testing.T) {
	backup := manyTickets(3)
	current := SubstituteMissingDates(backup, at(10, 0, 0))
	current[2].ID = "other"

	if _, err := restore(backup, current); !errors.Is(err, ErrRestoreFailed) {
		t.Fatalf("expected ErrRestoreFailed, got %v", err)
	}
	if _, err := restore(backup, current[:2]); !errors.Is(err, ErrRestoreFailed) {
		t.Fatalf("expected ErrRestoreFailed for short batch, got %v", err)
	}
	if current[1].ClosedAt == nil {
		t.Fatal("failed restore touched the batch")
	}
}

func TestProcessBatchRestoresAfterSubstitution(t *testing.T) {
	now := at(2, 10, 0)
	original := []Ticket{{ID: "open", Priority: "Alta", OpenedAt: at(1, 17, 0)}}
	b := NewBatch(original)
	p := newProcessor(Config{SubstituteMissingDates: true, Now: func() time.Time { return now }})

	out, err := p.ProcessBatch(context.Background(), b)
	if err != nil {
		t.Fatal(err)
	}
	if out[0].TMC != "02:00:00" || out[0].TMS != "02:00:00" {
		t.Fatalf("substituted dates not used: %+v", out[0])
	}
	if b.Substituted() || !reflect.DeepEqual(b.Tickets(), original) {
		t.Fatal("batch not restored after evaluation")
	}
}

func TestProcessBatchKeepsCallerSubstitution(t *testing.T) {
	now := at(2, 10, 0)
	b := NewBatch([]Ticket{{ID: "open", Priority: "Alta", OpenedAt: at(1, 17, 0)}})
	if err := b.SetSubstituteMissingDates(true, now); err != nil {
		t.Fatal(err)
	}
	out, err := newProcessor(Config{}).ProcessBatch(context.Background(), b)
	if err != nil {
		t.Fatal(err)
	}
	if out[0].TMS != "02:00:00" {
		t.Fatalf("caller substitution ignored: %+v", out[0])
	}
	if !b.Substituted() {
		t.Fatal("processor restored a substitution it did not make")
	}
}
