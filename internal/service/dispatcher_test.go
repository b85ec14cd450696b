package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/FCP2/Asistencia-web/internal/domain"
)

type stubPublisher struct {
	published []domain.Notification
	failAfter int // fail every publish once this many succeeded; -1 never fails
}

func (p *stubPublisher) Publish(_ context.Context, n domain.Notification) error {
	if p.failAfter >= 0 && len(p.published) >= p.failAfter {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, n)
	return nil
}

func TestDispatchOnceDeliversAndMarks(t *testing.T) {
	svc, store := newTestService(t)
	seedInvitation(t, svc, "2026-03-10", "10:00")
	seedInvitation(t, svc, "2026-03-11", "11:00")

	pub := &stubPublisher{failAfter: -1}
	d := NewDispatcher(store, pub, time.Second)

	delivered, err := d.DispatchOnce(context.Background())
	if err != nil {
		t.Fatalf("DispatchOnce: %v", err)
	}
	if delivered != 2 {
		t.Errorf("delivered = %d, want 2", delivered)
	}

	pending, err := store.ListUndelivered(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListUndelivered: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending after dispatch = %d, want 0", len(pending))
	}
	for _, n := range store.notifications {
		if !n.Enviado || n.EnviadoTS == nil {
			t.Errorf("notification %d not marked delivered", n.ID)
		}
	}

	// A second pass finds nothing.
	delivered, err = d.DispatchOnce(context.Background())
	if err != nil || delivered != 0 {
		t.Errorf("second pass = (%d, %v), want (0, nil)", delivered, err)
	}
}

func TestDispatchOnceStopsOnPublishFailure(t *testing.T) {
	svc, store := newTestService(t)
	seedInvitation(t, svc, "2026-03-10", "10:00")
	seedInvitation(t, svc, "2026-03-11", "11:00")

	pub := &stubPublisher{failAfter: 1}
	d := NewDispatcher(store, pub, time.Second)

	delivered, err := d.DispatchOnce(context.Background())
	if err == nil {
		t.Fatal("expected publish error")
	}
	if delivered != 1 {
		t.Errorf("delivered = %d, want 1", delivered)
	}

	// The failed row stays pending for the next pass.
	pending, err := store.ListUndelivered(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListUndelivered: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("pending = %d, want 1", len(pending))
	}
}
