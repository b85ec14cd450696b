package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/FCP2/Asistencia-web/internal/domain"
)

var notificationRowColumns = []string{
	"id", "ts", "invitacion_id", "evento", "convoca", "convoca_cargo", "estatus",
	"asignado_a_nombre", "rol", "campo", "valor_anterior", "valor_nuevo", "comentario",
	"fecha", "hora", "municipio", "lugar", "enviado", "enviado_ts",
}

func TestCreateNotificationReturnsID(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewPostgresStore(db)

	mock.ExpectQuery("INSERT INTO notificaciones").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	n := &domain.Notification{
		TS:           time.Now(),
		InvitacionID: "7",
		Campo:        "Estatus",
		ValorNuevo:   domain.StatusPendiente,
	}
	if err := store.CreateNotification(context.Background(), n); err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}
	if n.ID != 42 {
		t.Errorf("id = %d, want 42", n.ID)
	}
}

func TestListUndelivered(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewPostgresStore(db)

	ts := time.Now()
	rows := sqlmock.NewRows(notificationRowColumns).
		AddRow(int64(1), ts, "7", "Sesión", "Juan Pérez", "Presidente Municipal", domain.StatusConfirmado,
			"María López", "Regidora", "Estatus", "Pendiente", "Confirmado", "",
			nil, "10:00", "Pachuca", "Salón de Plenos", false, nil)

	mock.ExpectQuery("SELECT .+ FROM notificaciones WHERE enviado = FALSE ORDER BY ts ASC, id ASC LIMIT \\$1").
		WithArgs(100).
		WillReturnRows(rows)

	out, err := store.ListUndelivered(context.Background(), 100)
	if err != nil {
		t.Fatalf("ListUndelivered: %v", err)
	}
	if len(out) != 1 || out[0].Enviado || out[0].AsignadoANombre != "María López" {
		t.Errorf("out = %+v", out)
	}
}

func TestMarkDeliveredAlreadySentIsNotAnError(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewPostgresStore(db)

	ts := time.Now()
	mock.ExpectExec("UPDATE notificaciones SET enviado = TRUE, enviado_ts = \\$1 WHERE id = \\$2 AND enviado = FALSE").
		WithArgs(ts, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.MarkDelivered(context.Background(), 5, ts); err != nil {
		t.Errorf("MarkDelivered on already-sent row: %v", err)
	}
}
