package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/FCP2/Asistencia-web/internal/domain"

	log "github.com/sirupsen/logrus"
)

const personaColumns = `id, nombre, cargo, telefono, correo, unidad_region, activo`

func scanPersona(row *sql.Row) (*domain.Persona, error) {
	var p domain.Persona
	err := row.Scan(&p.ID, &p.Nombre, &p.Cargo, &p.Telefono, &p.Correo, &p.UnidadRegion, &p.Activo)
	if err == sql.ErrNoRows {
		return nil, domain.ErrPersonaNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *postgresStore) CreatePersona(ctx context.Context, p *domain.Persona) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	log.WithFields(log.Fields{
		"nombre": p.Nombre,
		"cargo":  p.Cargo,
	}).Info("Creating persona in database")

	query := `
		INSERT INTO personas (nombre, cargo, telefono, correo, unidad_region, activo)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := s.exec.QueryRowContext(ctx, query,
		p.Nombre,
		p.Cargo,
		p.Telefono,
		p.Correo,
		p.UnidadRegion,
		p.Activo,
	).Scan(&p.ID)

	if err != nil {
		log.WithError(err).WithField("nombre", p.Nombre).Error("Failed to create persona")
		return fmt.Errorf("failed to create persona: %w", err)
	}
	return nil
}

func (s *postgresStore) GetPersona(ctx context.Context, id int64) (*domain.Persona, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + personaColumns + ` FROM personas WHERE id = $1`
	p, err := scanPersona(s.exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == domain.ErrPersonaNotFound {
			return nil, err
		}
		log.WithError(err).WithField("persona_id", id).Error("Failed to get persona")
		return nil, fmt.Errorf("failed to get persona: %w", err)
	}
	return p, nil
}

func (s *postgresStore) ListPersonas(ctx context.Context, onlyActive bool) ([]domain.Persona, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + personaColumns + ` FROM personas`
	if onlyActive {
		query += ` WHERE activo = TRUE`
	}
	query += ` ORDER BY nombre ASC`

	rows, err := s.exec.QueryContext(ctx, query)
	if err != nil {
		log.WithError(err).Error("Failed to list personas")
		return nil, fmt.Errorf("failed to list personas: %w", err)
	}
	defer rows.Close()

	var personas []domain.Persona
	for rows.Next() {
		var p domain.Persona
		if err := rows.Scan(&p.ID, &p.Nombre, &p.Cargo, &p.Telefono, &p.Correo, &p.UnidadRegion, &p.Activo); err != nil {
			log.WithError(err).Error("Failed to scan persona row")
			return nil, fmt.Errorf("failed to scan persona row: %w", err)
		}
		personas = append(personas, p)
	}
	return personas, rows.Err()
}

func (s *postgresStore) UpdatePersona(ctx context.Context, id int64, req domain.UpdatePersonaRequest) (*domain.Persona, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	setParts := []string{}
	args := []interface{}{}
	argPos := 1

	if req.Nombre != nil {
		setParts = append(setParts, fmt.Sprintf("nombre = $%d", argPos))
		args = append(args, strings.TrimSpace(*req.Nombre))
		argPos++
	}
	if req.Cargo != nil {
		setParts = append(setParts, fmt.Sprintf("cargo = $%d", argPos))
		args = append(args, strings.TrimSpace(*req.Cargo))
		argPos++
	}
	if req.Telefono != nil {
		setParts = append(setParts, fmt.Sprintf("telefono = $%d", argPos))
		args = append(args, strings.TrimSpace(*req.Telefono))
		argPos++
	}
	if req.Correo != nil {
		setParts = append(setParts, fmt.Sprintf("correo = $%d", argPos))
		args = append(args, strings.TrimSpace(*req.Correo))
		argPos++
	}
	if req.UnidadRegion != nil {
		setParts = append(setParts, fmt.Sprintf("unidad_region = $%d", argPos))
		args = append(args, strings.TrimSpace(*req.UnidadRegion))
		argPos++
	}
	if req.Activo != nil {
		setParts = append(setParts, fmt.Sprintf("activo = $%d", argPos))
		args = append(args, *req.Activo)
		argPos++
	}

	if len(setParts) == 0 {
		return s.GetPersona(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE personas SET %s WHERE id = $%d RETURNING `+personaColumns,
		strings.Join(setParts, ", "), argPos,
	)

	p, err := scanPersona(s.exec.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == domain.ErrPersonaNotFound {
			return nil, err
		}
		log.WithError(err).WithField("persona_id", id).Error("Failed to update persona")
		return nil, fmt.Errorf("failed to update persona: %w", err)
	}
	return p, nil
}

func (s *postgresStore) DeletePersona(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	log.WithField("persona_id", id).Info("Deleting persona from database")

	result, err := s.exec.ExecContext(ctx, `DELETE FROM personas WHERE id = $1`, id)
	if err != nil {
		log.WithError(err).WithField("persona_id", id).Error("Failed to delete persona")
		return fmt.Errorf("failed to delete persona: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not determine rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrPersonaNotFound
	}
	return nil
}
