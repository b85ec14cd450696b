package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/FCP2/Asistencia-web/internal/domain"

	log "github.com/sirupsen/logrus"
)

const notificationColumns = `id, ts, invitacion_id, evento, convoca, convoca_cargo, estatus,
	asignado_a_nombre, rol, campo, valor_anterior, valor_nuevo, comentario,
	fecha, hora, municipio, lugar, enviado, enviado_ts`

func (s *postgresStore) CreateNotification(ctx context.Context, n *domain.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO notificaciones (
			ts, invitacion_id, evento, convoca, convoca_cargo, estatus,
			asignado_a_nombre, rol, campo, valor_anterior, valor_nuevo, comentario,
			fecha, hora, municipio, lugar, enviado, enviado_ts
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18
		)
		RETURNING id
	`

	err := s.exec.QueryRowContext(ctx, query,
		n.TS,
		n.InvitacionID,
		n.Evento,
		n.Convoca,
		n.ConvocaCargo,
		n.Estatus,
		n.AsignadoANombre,
		n.Rol,
		n.Campo,
		n.ValorAnterior,
		n.ValorNuevo,
		n.Comentario,
		nullTimePtr(n.Fecha),
		n.Hora,
		n.Municipio,
		n.Lugar,
		n.Enviado,
		nullTimePtr(n.EnviadoTS),
	).Scan(&n.ID)

	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"invitacion_id": n.InvitacionID,
			"campo":         n.Campo,
		}).Error("Failed to create notification snapshot")
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (s *postgresStore) ListNotifications(ctx context.Context, invitacionID string, limit int) ([]domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + notificationColumns + ` FROM notificaciones
		WHERE invitacion_id = $1
		ORDER BY ts DESC, id DESC
		LIMIT $2`

	rows, err := s.exec.QueryContext(ctx, query, invitacionID, limit)
	if err != nil {
		log.WithError(err).WithField("invitacion_id", invitacionID).Error("Failed to list notifications")
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	return collectNotifications(rows)
}

func (s *postgresStore) ListUndelivered(ctx context.Context, limit int) ([]domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + notificationColumns + ` FROM notificaciones
		WHERE enviado = FALSE
		ORDER BY ts ASC, id ASC
		LIMIT $1`

	rows, err := s.exec.QueryContext(ctx, query, limit)
	if err != nil {
		log.WithError(err).Error("Failed to list undelivered notifications")
		return nil, fmt.Errorf("failed to list undelivered notifications: %w", err)
	}
	defer rows.Close()

	return collectNotifications(rows)
}

func (s *postgresStore) MarkDelivered(ctx context.Context, id int64, ts time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `UPDATE notificaciones SET enviado = TRUE, enviado_ts = $1 WHERE id = $2 AND enviado = FALSE`
	result, err := s.exec.ExecContext(ctx, query, ts, id)
	if err != nil {
		log.WithError(err).WithField("notification_id", id).Error("Failed to mark notification delivered")
		return fmt.Errorf("failed to mark notification delivered: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not determine rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Already delivered or gone; send-once means this is not a fault.
		log.WithField("notification_id", id).Warn("Notification already marked delivered")
	}
	return nil
}

func collectNotifications(rows *sql.Rows) ([]domain.Notification, error) {
	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var fecha, enviadoTS sql.NullTime

		err := rows.Scan(
			&n.ID,
			&n.TS,
			&n.InvitacionID,
			&n.Evento,
			&n.Convoca,
			&n.ConvocaCargo,
			&n.Estatus,
			&n.AsignadoANombre,
			&n.Rol,
			&n.Campo,
			&n.ValorAnterior,
			&n.ValorNuevo,
			&n.Comentario,
			&fecha,
			&n.Hora,
			&n.Municipio,
			&n.Lugar,
			&n.Enviado,
			&enviadoTS,
		)
		if err != nil {
			log.WithError(err).Error("Failed to scan notification row")
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}

		n.Fecha = timePtr(fecha)
		n.EnviadoTS = timePtr(enviadoTS)
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
