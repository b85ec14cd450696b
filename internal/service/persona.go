package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/FCP2/Asistencia-web/internal/domain"
	"github.com/FCP2/Asistencia-web/internal/repository"

	log "github.com/sirupsen/logrus"
)

const personaDeletedNote = "Auto-desasignación: persona eliminada"

type PersonaServiceInterface interface {
	Create(ctx context.Context, req domain.CreatePersonaRequest) (*domain.Persona, error)
	Get(ctx context.Context, id int64) (*domain.Persona, error)
	List(ctx context.Context, onlyActive bool) ([]domain.Persona, error)
	Update(ctx context.Context, id int64, req domain.UpdatePersonaRequest) (*domain.Persona, error)
	Delete(ctx context.Context, actor string, id int64) (int, error)
}

// PersonaService manages the representative catalog.
type PersonaService struct {
	store repository.Store
	now   func() time.Time
}

func NewPersonaService(store repository.Store) *PersonaService {
	return &PersonaService{store: store, now: time.Now}
}

func (s *PersonaService) WithClock(now func() time.Time) *PersonaService {
	s.now = now
	return s
}

func (s *PersonaService) Create(ctx context.Context, req domain.CreatePersonaRequest) (*domain.Persona, error) {
	nombre := strings.TrimSpace(req.Nombre)
	cargo := strings.TrimSpace(req.Cargo)
	if nombre == "" || cargo == "" {
		return nil, fmt.Errorf("%w: nombre and cargo are required", domain.ErrValidation)
	}

	p := &domain.Persona{
		Nombre:       nombre,
		Cargo:        cargo,
		Telefono:     strings.TrimSpace(req.Telefono),
		Correo:       strings.TrimSpace(req.Correo),
		UnidadRegion: strings.TrimSpace(req.UnidadRegion),
		Activo:       true,
	}
	if err := s.store.CreatePersona(ctx, p); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"persona_id": p.ID,
		"nombre":     p.Nombre,
	}).Info("Persona created")

	return p, nil
}

func (s *PersonaService) Get(ctx context.Context, id int64) (*domain.Persona, error) {
	return s.store.GetPersona(ctx, id)
}

func (s *PersonaService) List(ctx context.Context, onlyActive bool) ([]domain.Persona, error) {
	return s.store.ListPersonas(ctx, onlyActive)
}

func (s *PersonaService) Update(ctx context.Context, id int64, req domain.UpdatePersonaRequest) (*domain.Persona, error) {
	if req.Nombre != nil && strings.TrimSpace(*req.Nombre) == "" {
		return nil, fmt.Errorf("%w: nombre cannot be empty", domain.ErrValidation)
	}
	return s.store.UpdatePersona(ctx, id, req)
}

// Delete removes a persona from the catalog. Every invitation still
// referencing them loses the structural link and drops back to Pendiente,
// but keeps the assigned name as plain text: the historical record of who
// was committed must survive the catalog entry. Returns how many
// invitations were unassigned.
func (s *PersonaService) Delete(ctx context.Context, actor string, id int64) (int, error) {
	var affected int

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		p, err := tx.GetPersona(ctx, id)
		if err != nil {
			return err
		}

		invitations, err := tx.ListByPersona(ctx, p.ID)
		if err != nil {
			return err
		}

		now := s.now()
		for i := range invitations {
			inv := &invitations[i]
			prevEstatus := inv.Estatus

			inv.PersonaID = nil
			inv.Estatus = domain.StatusPendiente
			// inv.AsignadoA stays: value copy taken at assignment time.
			inv.Rol = ""
			inv.FechaAsignacion = nil
			inv.Observaciones = appendNote(inv.Observaciones, personaDeletedNote)
			inv.UltimaModificacion = now
			inv.ModificadoPor = actor

			if err := tx.UpdateInvitation(ctx, inv); err != nil {
				return err
			}
			comentario := "Persona eliminada: " + p.Nombre
			if err := recordChange(ctx, tx, inv, now, campoEstatus, prevEstatus, domain.StatusPendiente, comentario); err != nil {
				return err
			}
		}
		affected = len(invitations)

		return tx.DeletePersona(ctx, p.ID)
	})
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"persona_id":             id,
		"invitations_unassigned": affected,
		"actor":                  actor,
	}).Info("Persona deleted")

	return affected, nil
}
