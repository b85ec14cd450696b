package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/FCP2/Asistencia-web/internal/domain"

	log "github.com/sirupsen/logrus"
)

const invitationColumns = `id, fecha, hora, evento, convoca_cargo, convoca, partido_politico,
	municipio, lugar, estatus, persona_id, asignado_a, rol, observaciones,
	fecha_asignacion, ultima_modificacion, modificado_por,
	archivo_url, archivo_nombre, archivo_mime, archivo_tamano, archivo_ts`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInvitation(row rowScanner) (*domain.Invitation, error) {
	var inv domain.Invitation
	var fecha, fechaAsignacion, archivoTS sql.NullTime
	var personaID sql.NullInt64

	err := row.Scan(
		&inv.ID,
		&fecha,
		&inv.Hora,
		&inv.Evento,
		&inv.ConvocaCargo,
		&inv.Convoca,
		&inv.PartidoPolitico,
		&inv.Municipio,
		&inv.Lugar,
		&inv.Estatus,
		&personaID,
		&inv.AsignadoA,
		&inv.Rol,
		&inv.Observaciones,
		&fechaAsignacion,
		&inv.UltimaModificacion,
		&inv.ModificadoPor,
		&inv.ArchivoURL,
		&inv.ArchivoNombre,
		&inv.ArchivoMime,
		&inv.ArchivoTamano,
		&archivoTS,
	)
	if err != nil {
		return nil, err
	}

	inv.Fecha = timePtr(fecha)
	inv.FechaAsignacion = timePtr(fechaAsignacion)
	inv.ArchivoTS = timePtr(archivoTS)
	inv.PersonaID = int64Ptr(personaID)
	return &inv, nil
}

func (s *postgresStore) CreateInvitation(ctx context.Context, inv *domain.Invitation) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	log.WithFields(log.Fields{
		"evento": inv.Evento,
		"fecha":  inv.Fecha,
		"hora":   inv.Hora,
	}).Info("Creating invitation in database")

	query := `
		INSERT INTO invitaciones (
			fecha, hora, evento, convoca_cargo, convoca, partido_politico,
			municipio, lugar, estatus, persona_id, asignado_a, rol, observaciones,
			fecha_asignacion, ultima_modificacion, modificado_por,
			archivo_url, archivo_nombre, archivo_mime, archivo_tamano, archivo_ts
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16,
			$17, $18, $19, $20, $21
		)
		RETURNING id
	`

	err := s.exec.QueryRowContext(ctx, query,
		nullTimePtr(inv.Fecha),
		inv.Hora,
		inv.Evento,
		inv.ConvocaCargo,
		inv.Convoca,
		inv.PartidoPolitico,
		inv.Municipio,
		inv.Lugar,
		inv.Estatus,
		nullInt64Ptr(inv.PersonaID),
		inv.AsignadoA,
		inv.Rol,
		inv.Observaciones,
		nullTimePtr(inv.FechaAsignacion),
		inv.UltimaModificacion,
		inv.ModificadoPor,
		inv.ArchivoURL,
		inv.ArchivoNombre,
		inv.ArchivoMime,
		inv.ArchivoTamano,
		nullTimePtr(inv.ArchivoTS),
	).Scan(&inv.ID)

	if err != nil {
		log.WithError(err).WithField("evento", inv.Evento).Error("Failed to create invitation")
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

func (s *postgresStore) GetInvitation(ctx context.Context, id int64) (*domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + invitationColumns + ` FROM invitaciones WHERE id = $1`
	inv, err := scanInvitation(s.exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrInvitationNotFound
		}
		log.WithError(err).WithField("invitation_id", id).Error("Failed to get invitation")
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return inv, nil
}

func (s *postgresStore) ListInvitations(ctx context.Context, filter domain.InvitationFilter) ([]domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var query strings.Builder
	args := []interface{}{}
	argPos := 1

	query.WriteString(`SELECT ` + invitationColumns + ` FROM invitaciones WHERE 1=1`)

	if filter.Estatus != "" {
		query.WriteString(fmt.Sprintf(" AND estatus = $%d", argPos))
		args = append(args, filter.Estatus)
		argPos++
	}
	if filter.DateFrom != nil {
		query.WriteString(fmt.Sprintf(" AND fecha >= $%d", argPos))
		args = append(args, *filter.DateFrom)
		argPos++
	}
	if filter.DateTo != nil {
		query.WriteString(fmt.Sprintf(" AND fecha <= $%d", argPos))
		args = append(args, *filter.DateTo)
		argPos++
	}

	query.WriteString(" ORDER BY fecha DESC NULLS LAST, hora DESC, id DESC")

	rows, err := s.exec.QueryContext(ctx, query.String(), args...)
	if err != nil {
		log.WithError(err).Error("Failed to list invitations")
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	return collectInvitations(rows)
}

func (s *postgresStore) UpdateInvitation(ctx context.Context, inv *domain.Invitation) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		UPDATE invitaciones SET
			fecha = $1, hora = $2, evento = $3, convoca_cargo = $4, convoca = $5,
			partido_politico = $6, municipio = $7, lugar = $8,
			estatus = $9, persona_id = $10, asignado_a = $11, rol = $12, observaciones = $13,
			fecha_asignacion = $14, ultima_modificacion = $15, modificado_por = $16,
			archivo_url = $17, archivo_nombre = $18, archivo_mime = $19, archivo_tamano = $20, archivo_ts = $21
		WHERE id = $22
	`

	result, err := s.exec.ExecContext(ctx, query,
		nullTimePtr(inv.Fecha),
		inv.Hora,
		inv.Evento,
		inv.ConvocaCargo,
		inv.Convoca,
		inv.PartidoPolitico,
		inv.Municipio,
		inv.Lugar,
		inv.Estatus,
		nullInt64Ptr(inv.PersonaID),
		inv.AsignadoA,
		inv.Rol,
		inv.Observaciones,
		nullTimePtr(inv.FechaAsignacion),
		inv.UltimaModificacion,
		inv.ModificadoPor,
		inv.ArchivoURL,
		inv.ArchivoNombre,
		inv.ArchivoMime,
		inv.ArchivoTamano,
		nullTimePtr(inv.ArchivoTS),
		inv.ID,
	)
	if err != nil {
		// The unique agenda index fires here when a concurrent writer won the
		// same (persona, fecha, hora) slot; keep the raw error so the service
		// layer can classify it.
		log.WithError(err).WithField("invitation_id", inv.ID).Error("Failed to update invitation")
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not determine rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrInvitationNotFound
	}
	return nil
}

func (s *postgresStore) DeleteInvitation(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	log.WithField("invitation_id", id).Info("Deleting invitation from database")

	result, err := s.exec.ExecContext(ctx, `DELETE FROM invitaciones WHERE id = $1`, id)
	if err != nil {
		log.WithError(err).WithField("invitation_id", id).Error("Failed to delete invitation")
		return fmt.Errorf("failed to delete invitation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not determine rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrInvitationNotFound
	}
	return nil
}

func (s *postgresStore) ListByPersona(ctx context.Context, personaID int64) ([]domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + invitationColumns + ` FROM invitaciones WHERE persona_id = $1 ORDER BY id ASC`
	rows, err := s.exec.QueryContext(ctx, query, personaID)
	if err != nil {
		log.WithError(err).WithField("persona_id", personaID).Error("Failed to list invitations by persona")
		return nil, fmt.Errorf("failed to list invitations by persona: %w", err)
	}
	defer rows.Close()

	return collectInvitations(rows)
}

// FindActiveAssignments returns the persona's Confirmado/Sustituido
// invitations on the given date, excluding the invitation being edited.
// Candidates come back in id order so conflict reports are deterministic.
func (s *postgresStore) FindActiveAssignments(ctx context.Context, personaID int64, fecha time.Time, excludeID int64) ([]domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + invitationColumns + ` FROM invitaciones
		WHERE persona_id = $1
		  AND fecha = $2
		  AND estatus IN ($3, $4)
		  AND id <> $5
		ORDER BY id ASC`

	rows, err := s.exec.QueryContext(ctx, query,
		personaID, fecha, domain.StatusConfirmado, domain.StatusSustituido, excludeID)
	if err != nil {
		log.WithError(err).WithField("persona_id", personaID).Error("Failed to query active assignments")
		return nil, fmt.Errorf("failed to query active assignments: %w", err)
	}
	defer rows.Close()

	return collectInvitations(rows)
}

func (s *postgresStore) CountByStatus(ctx context.Context, filter domain.InvitationFilter) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var query strings.Builder
	args := []interface{}{}
	argPos := 1

	query.WriteString(`SELECT estatus, COUNT(id) FROM invitaciones WHERE 1=1`)
	if filter.DateFrom != nil {
		query.WriteString(fmt.Sprintf(" AND fecha >= $%d", argPos))
		args = append(args, *filter.DateFrom)
		argPos++
	}
	if filter.DateTo != nil {
		query.WriteString(fmt.Sprintf(" AND fecha <= $%d", argPos))
		args = append(args, *filter.DateTo)
		argPos++
	}
	query.WriteString(" GROUP BY estatus")

	rows, err := s.exec.QueryContext(ctx, query.String(), args...)
	if err != nil {
		log.WithError(err).Error("Failed to count invitations by status")
		return nil, fmt.Errorf("failed to count invitations by status: %w", err)
	}
	defer rows.Close()

	counts := map[string]int64{
		domain.StatusPendiente:  0,
		domain.StatusConfirmado: 0,
		domain.StatusSustituido: 0,
		domain.StatusCancelado:  0,
	}
	for rows.Next() {
		var estatus string
		var count int64
		if err := rows.Scan(&estatus, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count row: %w", err)
		}
		if estatus == "" {
			estatus = domain.StatusPendiente
		}
		counts[estatus] = count
	}
	return counts, rows.Err()
}

func collectInvitations(rows *sql.Rows) ([]domain.Invitation, error) {
	var invitations []domain.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			log.WithError(err).Error("Failed to scan invitation row")
			return nil, fmt.Errorf("failed to scan invitation row: %w", err)
		}
		invitations = append(invitations, *inv)
	}
	return invitations, rows.Err()
}
