package publisher

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/FCP2/Asistencia-web/internal/domain"
)

func TestNewMessage(t *testing.T) {
	topic := "asistencia.notificaciones"
	n := domain.Notification{
		ID:           7,
		TS:           time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		InvitacionID: "42",
		Campo:        "Estatus",
		ValorNuevo:   domain.StatusConfirmado,
		Evento:       "Sesión de Cabildo",
	}

	msg, err := newMessage(&topic, n)
	if err != nil {
		t.Fatalf("newMessage: %v", err)
	}

	if msg.TopicPartition.Topic == nil || *msg.TopicPartition.Topic != topic {
		t.Errorf("topic = %v, want %q", msg.TopicPartition.Topic, topic)
	}
	// Keyed by invitation so one invitation's snapshots keep their order.
	if string(msg.Key) != "42" {
		t.Errorf("key = %q, want invitation id", msg.Key)
	}

	var got domain.Notification
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if got.Campo != "Estatus" || got.ValorNuevo != domain.StatusConfirmado || got.Evento != n.Evento {
		t.Errorf("payload = %+v", got)
	}
}
