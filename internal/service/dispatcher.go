package service

import (
	"context"
	"time"

	"github.com/FCP2/Asistencia-web/internal/domain"
	"github.com/FCP2/Asistencia-web/internal/repository"

	log "github.com/sirupsen/logrus"
)

// NotificationPublisher delivers one snapshot to a downstream consumer.
type NotificationPublisher interface {
	Publish(ctx context.Context, n domain.Notification) error
}

// Dispatcher drains undelivered notification snapshots to the downstream
// consumer and flips their enviado flag. Delivery is at-least-once: a row is
// marked only after its publish succeeded.
type Dispatcher struct {
	store     repository.Store
	publisher NotificationPublisher
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func NewDispatcher(store repository.Store, publisher NotificationPublisher, interval time.Duration) *Dispatcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Dispatcher{
		store:     store,
		publisher: publisher,
		interval:  interval,
		batchSize: 100,
		now:       time.Now,
	}
}

// Run polls until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	log.WithField("interval", d.interval).Info("Notification dispatcher started")

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Notification dispatcher stopped")
			return
		case <-ticker.C:
			if _, err := d.DispatchOnce(ctx); err != nil {
				log.WithError(err).Error("Notification dispatch pass failed")
			}
		}
	}
}

// DispatchOnce publishes one batch of undelivered snapshots and returns how
// many were delivered. A publish failure stops the pass; the remaining rows
// stay undelivered and are retried on the next tick.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	pending, err := d.store.ListUndelivered(ctx, d.batchSize)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, n := range pending {
		if err := d.publisher.Publish(ctx, n); err != nil {
			log.WithError(err).WithField("notification_id", n.ID).Warn("Failed to publish notification")
			return delivered, err
		}
		if err := d.store.MarkDelivered(ctx, n.ID, d.now()); err != nil {
			return delivered, err
		}
		delivered++
	}

	if delivered > 0 {
		log.WithField("count", delivered).Info("Notifications delivered downstream")
	}
	return delivered, nil
}
