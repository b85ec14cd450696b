package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/FCP2/Asistencia-web/internal/domain"
	"github.com/FCP2/Asistencia-web/internal/repository"
	"github.com/FCP2/Asistencia-web/internal/timeutil"

	log "github.com/sirupsen/logrus"
)

// Fixed note texts appended to observaciones by lifecycle operations.
const (
	defaultReassignComment = "Sustitución por instrucción"
	defaultStatusComment   = "Cambio de estatus"
	defaultCancelComment   = "Cancelado por indicación"
	cancelReasonPrefix     = "Motivo cancelación: "
	clearedAssignmentNote  = "Se limpió la asignación"
	createdComment         = "Alta de invitación"
)

type InvitationServiceInterface interface {
	Create(ctx context.Context, actor string, req domain.CreateInvitationRequest) (*domain.Invitation, error)
	Get(ctx context.Context, id int64) (*domain.Invitation, error)
	List(ctx context.Context, filter domain.InvitationFilter) ([]domain.Invitation, error)
	History(ctx context.Context, id int64, limit int) ([]domain.Notification, error)
	CountByStatus(ctx context.Context, filter domain.InvitationFilter) (map[string]int64, error)
	Update(ctx context.Context, actor string, id int64, req domain.UpdateInvitationRequest) (*domain.Invitation, error)
	Assign(ctx context.Context, actor string, id int64, req domain.AssignRequest) (*domain.Invitation, *domain.ConflictReport, error)
	Reassign(ctx context.Context, actor string, id int64, req domain.AssignRequest) (*domain.Invitation, *domain.ConflictReport, error)
	ChangeStatus(ctx context.Context, actor string, id int64, req domain.ChangeStatusRequest) (*domain.Invitation, error)
	Cancel(ctx context.Context, actor string, id int64, req domain.CancelRequest) (*domain.Invitation, error)
	Delete(ctx context.Context, actor string, id int64, comentario string) error
	CheckConflict(ctx context.Context, req domain.CheckConflictRequest) (*domain.ConflictReport, error)
}

// InvitationService drives the invitation lifecycle. Every mutation runs the
// conflict check where applicable, applies the state transition and records
// its notification snapshots inside one store transaction.
type InvitationService struct {
	store repository.Store
	now   func() time.Time
}

func NewInvitationService(store repository.Store) *InvitationService {
	return &InvitationService{store: store, now: time.Now}
}

// WithClock replaces the service clock. Tests inject a fixed instant here.
func (s *InvitationService) WithClock(now func() time.Time) *InvitationService {
	s.now = now
	return s
}

// appendNote joins a new note onto existing observaciones with the " | "
// separator the original records use.
func appendNote(observaciones, note string) string {
	if note == "" {
		return observaciones
	}
	if observaciones == "" {
		return note
	}
	return observaciones + " | " + note
}

func (s *InvitationService) Create(ctx context.Context, actor string, req domain.CreateInvitationRequest) (*domain.Invitation, error) {
	fecha, ok := timeutil.ParseDate(req.Fecha)
	if !ok {
		return nil, fmt.Errorf("%w: fecha is required", domain.ErrValidation)
	}
	hora, ok := timeutil.ParseTimeOfDay(req.Hora)
	if !ok {
		return nil, fmt.Errorf("%w: hora is required", domain.ErrValidation)
	}
	for _, f := range []struct{ name, value string }{
		{"evento", req.Evento},
		{"convoca_cargo", req.ConvocaCargo},
		{"convoca", req.Convoca},
		{"municipio", req.Municipio},
		{"lugar", req.Lugar},
	} {
		if strings.TrimSpace(f.value) == "" {
			return nil, fmt.Errorf("%w: %s is required", domain.ErrValidation, f.name)
		}
	}

	now := s.now()
	inv := &domain.Invitation{
		Fecha:              &fecha,
		Hora:               hora,
		Evento:             strings.TrimSpace(req.Evento),
		ConvocaCargo:       strings.TrimSpace(req.ConvocaCargo),
		Convoca:            strings.TrimSpace(req.Convoca),
		PartidoPolitico:    strings.TrimSpace(req.PartidoPolitico),
		Municipio:          strings.TrimSpace(req.Municipio),
		Lugar:              strings.TrimSpace(req.Lugar),
		Observaciones:      strings.TrimSpace(req.Observaciones),
		Estatus:            domain.StatusPendiente,
		UltimaModificacion: now,
		ModificadoPor:      actor,
	}
	if req.ArchivoURL != "" {
		inv.ArchivoURL = req.ArchivoURL
		inv.ArchivoNombre = req.ArchivoNombre
		inv.ArchivoMime = req.ArchivoMime
		inv.ArchivoTamano = req.ArchivoTamano
		inv.ArchivoTS = &now
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.CreateInvitation(ctx, inv); err != nil {
			return err
		}
		return recordChange(ctx, tx, inv, now, campoEstatus, "", domain.StatusPendiente, createdComment)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	log.WithFields(log.Fields{
		"invitation_id": inv.ID,
		"evento":        inv.Evento,
		"actor":         actor,
	}).Info("Invitation created")

	return inv, nil
}

func (s *InvitationService) Get(ctx context.Context, id int64) (*domain.Invitation, error) {
	return s.store.GetInvitation(ctx, id)
}

func (s *InvitationService) List(ctx context.Context, filter domain.InvitationFilter) ([]domain.Invitation, error) {
	// Tolerate an inverted range instead of returning nothing.
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateFrom.After(*filter.DateTo) {
		filter.DateFrom, filter.DateTo = filter.DateTo, filter.DateFrom
	}
	return s.store.ListInvitations(ctx, filter)
}

func (s *InvitationService) History(ctx context.Context, id int64, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	if _, err := s.store.GetInvitation(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListNotifications(ctx, fmt.Sprintf("%d", id), limit)
}

func (s *InvitationService) CountByStatus(ctx context.Context, filter domain.InvitationFilter) (map[string]int64, error) {
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateFrom.After(*filter.DateTo) {
		filter.DateFrom, filter.DateTo = filter.DateTo, filter.DateFrom
	}
	return s.store.CountByStatus(ctx, filter)
}

// Update applies a partial edit of the event fields. Only fields whose
// textual value actually changed produce notification snapshots, so
// resubmitting identical data is a no-op.
func (s *InvitationService) Update(ctx context.Context, actor string, id int64, req domain.UpdateInvitationRequest) (*domain.Invitation, error) {
	var updated *domain.Invitation

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		inv, err := tx.GetInvitation(ctx, id)
		if err != nil {
			return err
		}

		before := *inv

		if req.Fecha != nil {
			fecha, ok := timeutil.ParseDate(*req.Fecha)
			if !ok {
				return fmt.Errorf("%w: fecha is not a valid date", domain.ErrValidation)
			}
			inv.Fecha = &fecha
		}
		if req.Hora != nil {
			hora, ok := timeutil.ParseTimeOfDay(*req.Hora)
			if !ok {
				return fmt.Errorf("%w: hora is not a valid time", domain.ErrValidation)
			}
			inv.Hora = hora
		}
		if req.Evento != nil {
			inv.Evento = *req.Evento
		}
		if req.ConvocaCargo != nil {
			inv.ConvocaCargo = *req.ConvocaCargo
		}
		if req.Convoca != nil {
			inv.Convoca = *req.Convoca
		}
		if req.PartidoPolitico != nil {
			inv.PartidoPolitico = *req.PartidoPolitico
		}
		if req.Municipio != nil {
			inv.Municipio = *req.Municipio
		}
		if req.Lugar != nil {
			inv.Lugar = *req.Lugar
		}
		if req.Observaciones != nil {
			inv.Observaciones = *req.Observaciones
		}
		if req.EliminarArchivo {
			inv.ArchivoURL = ""
			inv.ArchivoNombre = ""
			inv.ArchivoMime = ""
			inv.ArchivoTamano = 0
			inv.ArchivoTS = nil
		}
		if req.ArchivoURL != nil {
			now := s.now()
			inv.ArchivoURL = *req.ArchivoURL
			if req.ArchivoNombre != nil {
				inv.ArchivoNombre = *req.ArchivoNombre
			}
			if req.ArchivoMime != nil {
				inv.ArchivoMime = *req.ArchivoMime
			}
			if req.ArchivoTamano != nil {
				inv.ArchivoTamano = *req.ArchivoTamano
			}
			inv.ArchivoTS = &now
		}

		changes := diffFields(&before, inv)
		if len(changes) == 0 {
			updated = inv
			return nil
		}

		now := s.now()
		inv.UltimaModificacion = now
		inv.ModificadoPor = actor

		if err := tx.UpdateInvitation(ctx, inv); err != nil {
			// Moving an active invitation onto an occupied slot trips the
			// unique agenda index just like an assignment would.
			if repository.IsUniqueViolation(err, repository.UniqueAgendaIndex) {
				return domain.ErrScheduleConflict
			}
			return err
		}
		for _, ch := range changes {
			if err := recordChange(ctx, tx, inv, now, ch.Campo, ch.Anterior, ch.Nuevo, ""); err != nil {
				return err
			}
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"invitation_id": id,
		"actor":         actor,
	}).Info("Invitation updated")

	return updated, nil
}

// Assign confirms the invitation for a persona. Unless force is set, the
// schedule is checked first and any non-none severity aborts the whole
// transaction with the conflict report attached.
func (s *InvitationService) Assign(ctx context.Context, actor string, id int64, req domain.AssignRequest) (*domain.Invitation, *domain.ConflictReport, error) {
	return s.assign(ctx, actor, id, req, false)
}

// Reassign substitutes the assigned persona. Same conflict semantics as
// Assign; the status becomes Sustituido and the original assignment
// timestamp is kept if one exists.
func (s *InvitationService) Reassign(ctx context.Context, actor string, id int64, req domain.AssignRequest) (*domain.Invitation, *domain.ConflictReport, error) {
	if strings.TrimSpace(req.Comentario) == "" {
		req.Comentario = defaultReassignComment
	}
	return s.assign(ctx, actor, id, req, true)
}

func (s *InvitationService) assign(ctx context.Context, actor string, id int64, req domain.AssignRequest, substitution bool) (*domain.Invitation, *domain.ConflictReport, error) {
	if req.PersonaID == 0 {
		return nil, nil, fmt.Errorf("%w: persona_id is required", domain.ErrValidation)
	}

	var (
		updated *domain.Invitation
		report  *domain.ConflictReport
	)

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		inv, err := tx.GetInvitation(ctx, id)
		if err != nil {
			return err
		}
		p, err := tx.GetPersona(ctx, req.PersonaID)
		if err != nil {
			return err
		}

		if inv.Fecha != nil && inv.Hora != "" && !req.Force {
			rep, err := checkSchedule(ctx, tx, p.ID, *inv.Fecha, inv.Hora, inv.ID)
			if err != nil {
				return err
			}
			if rep.HasConflict() {
				report = rep
				return domain.ErrScheduleConflict
			}
		}

		prevEstatus := inv.Estatus
		prevAsignado := inv.AsignadoA
		prevRol := inv.Rol
		now := s.now()

		inv.PersonaID = &p.ID
		inv.AsignadoA = p.Nombre
		if rol := strings.TrimSpace(req.Rol); rol != "" {
			inv.Rol = rol
		} else {
			inv.Rol = p.Cargo
		}
		if substitution {
			inv.Estatus = domain.StatusSustituido
			if inv.FechaAsignacion == nil {
				inv.FechaAsignacion = &now
			}
		} else {
			inv.Estatus = domain.StatusConfirmado
			inv.FechaAsignacion = &now
		}
		if c := strings.TrimSpace(req.Comentario); c != "" {
			inv.Observaciones = appendNote(inv.Observaciones, c)
		}
		inv.UltimaModificacion = now
		inv.ModificadoPor = actor

		if err := tx.UpdateInvitation(ctx, inv); err != nil {
			// A concurrent writer took the same agenda slot between our
			// pre-check and the commit; surface it as a hard conflict.
			if repository.IsUniqueViolation(err, repository.UniqueAgendaIndex) {
				report = &domain.ConflictReport{Level: domain.SeverityHard}
				return domain.ErrScheduleConflict
			}
			return err
		}

		if err := recordChange(ctx, tx, inv, now, campoAsignadoA, prevAsignado, inv.AsignadoA, req.Comentario); err != nil {
			return err
		}
		if prevRol != inv.Rol {
			if err := recordChange(ctx, tx, inv, now, campoRol, prevRol, inv.Rol, req.Comentario); err != nil {
				return err
			}
		}
		if prevEstatus != inv.Estatus {
			if err := recordChange(ctx, tx, inv, now, campoEstatus, prevEstatus, inv.Estatus, req.Comentario); err != nil {
				return err
			}
		}
		updated = inv
		return nil
	})
	if err != nil {
		if err == domain.ErrScheduleConflict || (report != nil && report.HasConflict()) {
			log.WithFields(log.Fields{
				"invitation_id": id,
				"persona_id":    req.PersonaID,
				"level":         report.Level,
			}).Warn("Assignment rejected by schedule conflict")
			return nil, report, domain.ErrScheduleConflict
		}
		return nil, nil, err
	}

	log.WithFields(log.Fields{
		"invitation_id": id,
		"persona_id":    req.PersonaID,
		"estatus":       updated.Estatus,
		"actor":         actor,
	}).Info("Invitation assigned")

	return updated, nil, nil
}

// ChangeStatus sets the status unconditionally; picking nobody new means no
// conflict check. Returning to Pendiente clears every assignment field.
func (s *InvitationService) ChangeStatus(ctx context.Context, actor string, id int64, req domain.ChangeStatusRequest) (*domain.Invitation, error) {
	if !domain.IsValidStatus(req.Estatus) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, req.Estatus)
	}
	comentario := strings.TrimSpace(req.Comentario)
	if comentario == "" {
		comentario = defaultStatusComment
	}

	var updated *domain.Invitation

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		inv, err := tx.GetInvitation(ctx, id)
		if err != nil {
			return err
		}

		prevEstatus := inv.Estatus
		prevAsignado := inv.AsignadoA
		prevRol := inv.Rol
		now := s.now()

		inv.Estatus = req.Estatus
		inv.UltimaModificacion = now
		inv.ModificadoPor = actor

		if req.Estatus == domain.StatusPendiente {
			inv.PersonaID = nil
			inv.AsignadoA = ""
			inv.Rol = ""
			inv.FechaAsignacion = nil
		}

		inv.Observaciones = appendNote(inv.Observaciones, comentario)

		if err := tx.UpdateInvitation(ctx, inv); err != nil {
			if repository.IsUniqueViolation(err, repository.UniqueAgendaIndex) {
				return domain.ErrScheduleConflict
			}
			return err
		}

		if err := recordChange(ctx, tx, inv, now, campoEstatus, prevEstatus, inv.Estatus, comentario); err != nil {
			return err
		}
		if req.Estatus == domain.StatusPendiente {
			if prevAsignado != "" {
				if err := recordChange(ctx, tx, inv, now, campoAsignadoA, prevAsignado, "", clearedAssignmentNote); err != nil {
					return err
				}
			}
			if prevRol != "" {
				if err := recordChange(ctx, tx, inv, now, campoRol, prevRol, "", clearedAssignmentNote); err != nil {
					return err
				}
			}
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"invitation_id": id,
		"estatus":       req.Estatus,
		"actor":         actor,
	}).Info("Invitation status changed")

	return updated, nil
}

// Cancel is the shortcut for Cancelado with a recorded reason. Assignment
// fields stay as they were, which is what distinguishes a cancellation from
// reverting to Pendiente.
func (s *InvitationService) Cancel(ctx context.Context, actor string, id int64, req domain.CancelRequest) (*domain.Invitation, error) {
	motivo := strings.TrimSpace(req.Comentario)
	if motivo == "" {
		motivo = defaultCancelComment
	}

	var updated *domain.Invitation

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		inv, err := tx.GetInvitation(ctx, id)
		if err != nil {
			return err
		}

		prevEstatus := inv.Estatus
		now := s.now()

		inv.Estatus = domain.StatusCancelado
		inv.Observaciones = appendNote(inv.Observaciones, cancelReasonPrefix+motivo)
		inv.UltimaModificacion = now
		inv.ModificadoPor = actor

		if err := tx.UpdateInvitation(ctx, inv); err != nil {
			return err
		}
		if err := recordChange(ctx, tx, inv, now, campoEstatus, prevEstatus, domain.StatusCancelado, motivo); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"invitation_id": id,
		"motivo":        motivo,
		"actor":         actor,
	}).Info("Invitation cancelled")

	return updated, nil
}

// Delete removes the invitation after a last snapshot summarizing the record
// being destroyed, so the audit trail keeps a trace of what existed.
func (s *InvitationService) Delete(ctx context.Context, actor string, id int64, comentario string) error {
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		inv, err := tx.GetInvitation(ctx, id)
		if err != nil {
			return err
		}

		now := s.now()
		resumen := strings.Join([]string{
			inv.Evento,
			timeutil.FormatDate(inv.Fecha),
			inv.Hora,
			strings.TrimSpace(inv.ConvocaCargo + " " + inv.Convoca),
			inv.Lugar,
		}, " | ")

		if err := recordChange(ctx, tx, inv, now, campoRegistro, resumen, "Eliminada", comentario); err != nil {
			return err
		}
		return tx.DeleteInvitation(ctx, inv.ID)
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"invitation_id": id,
		"actor":         actor,
	}).Info("Invitation deleted")

	return nil
}
