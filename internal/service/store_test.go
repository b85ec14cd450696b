package service

import (
	"context"
	"sort"
	"time"

	"github.com/FCP2/Asistencia-web/internal/domain"
	"github.com/FCP2/Asistencia-web/internal/repository"

	"github.com/lib/pq"
)

// memStore is an in-memory repository.Store for service tests. It hands out
// value copies like a row scan would, and can enforce the same unique-agenda
// rule the schema enforces so the commit-time conflict path is testable.
type memStore struct {
	personas      map[int64]domain.Persona
	invitations   map[int64]domain.Invitation
	notifications []domain.Notification

	nextPersonaID int64
	nextInvID     int64
	nextNotifID   int64

	enforceAgenda bool
}

var _ repository.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		personas:    make(map[int64]domain.Persona),
		invitations: make(map[int64]domain.Invitation),
	}
}

func (m *memStore) CreatePersona(_ context.Context, p *domain.Persona) error {
	m.nextPersonaID++
	p.ID = m.nextPersonaID
	m.personas[p.ID] = *p
	return nil
}

func (m *memStore) GetPersona(_ context.Context, id int64) (*domain.Persona, error) {
	p, ok := m.personas[id]
	if !ok {
		return nil, domain.ErrPersonaNotFound
	}
	cp := p
	return &cp, nil
}

func (m *memStore) ListPersonas(_ context.Context, onlyActive bool) ([]domain.Persona, error) {
	var out []domain.Persona
	for _, p := range m.personas {
		if onlyActive && !p.Activo {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) UpdatePersona(_ context.Context, id int64, req domain.UpdatePersonaRequest) (*domain.Persona, error) {
	p, ok := m.personas[id]
	if !ok {
		return nil, domain.ErrPersonaNotFound
	}
	if req.Nombre != nil {
		p.Nombre = *req.Nombre
	}
	if req.Cargo != nil {
		p.Cargo = *req.Cargo
	}
	if req.Telefono != nil {
		p.Telefono = *req.Telefono
	}
	if req.Correo != nil {
		p.Correo = *req.Correo
	}
	if req.UnidadRegion != nil {
		p.UnidadRegion = *req.UnidadRegion
	}
	if req.Activo != nil {
		p.Activo = *req.Activo
	}
	m.personas[id] = p
	cp := p
	return &cp, nil
}

func (m *memStore) DeletePersona(_ context.Context, id int64) error {
	if _, ok := m.personas[id]; !ok {
		return domain.ErrPersonaNotFound
	}
	delete(m.personas, id)
	return nil
}

func (m *memStore) CreateInvitation(_ context.Context, inv *domain.Invitation) error {
	m.nextInvID++
	inv.ID = m.nextInvID
	m.invitations[inv.ID] = *inv
	return nil
}

func (m *memStore) GetInvitation(_ context.Context, id int64) (*domain.Invitation, error) {
	inv, ok := m.invitations[id]
	if !ok {
		return nil, domain.ErrInvitationNotFound
	}
	cp := inv
	return &cp, nil
}

func (m *memStore) ListInvitations(_ context.Context, filter domain.InvitationFilter) ([]domain.Invitation, error) {
	var out []domain.Invitation
	for _, inv := range m.invitations {
		if matchesFilter(inv, filter) {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func matchesFilter(inv domain.Invitation, filter domain.InvitationFilter) bool {
	if filter.Estatus != "" && inv.Estatus != filter.Estatus {
		return false
	}
	if filter.DateFrom != nil && (inv.Fecha == nil || inv.Fecha.Before(*filter.DateFrom)) {
		return false
	}
	if filter.DateTo != nil && (inv.Fecha == nil || inv.Fecha.After(*filter.DateTo)) {
		return false
	}
	return true
}

func (m *memStore) UpdateInvitation(_ context.Context, inv *domain.Invitation) error {
	if _, ok := m.invitations[inv.ID]; !ok {
		return domain.ErrInvitationNotFound
	}
	if m.enforceAgenda && inv.PersonaID != nil && inv.Fecha != nil && inv.Hora != "" && domain.IsActiveStatus(inv.Estatus) {
		for _, other := range m.invitations {
			if other.ID == inv.ID || other.PersonaID == nil || *other.PersonaID != *inv.PersonaID {
				continue
			}
			if !domain.IsActiveStatus(other.Estatus) || other.Fecha == nil || other.Hora != inv.Hora {
				continue
			}
			if sameDay(*other.Fecha, *inv.Fecha) {
				return &pq.Error{Code: "23505", Constraint: repository.UniqueAgendaIndex}
			}
		}
	}
	m.invitations[inv.ID] = *inv
	return nil
}

func (m *memStore) DeleteInvitation(_ context.Context, id int64) error {
	if _, ok := m.invitations[id]; !ok {
		return domain.ErrInvitationNotFound
	}
	delete(m.invitations, id)
	return nil
}

func (m *memStore) ListByPersona(_ context.Context, personaID int64) ([]domain.Invitation, error) {
	var out []domain.Invitation
	for _, inv := range m.invitations {
		if inv.PersonaID != nil && *inv.PersonaID == personaID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) FindActiveAssignments(_ context.Context, personaID int64, fecha time.Time, excludeID int64) ([]domain.Invitation, error) {
	var out []domain.Invitation
	for _, inv := range m.invitations {
		if inv.ID == excludeID || inv.PersonaID == nil || *inv.PersonaID != personaID {
			continue
		}
		if !domain.IsActiveStatus(inv.Estatus) || inv.Fecha == nil || !sameDay(*inv.Fecha, fecha) {
			continue
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func (m *memStore) CountByStatus(_ context.Context, filter domain.InvitationFilter) (map[string]int64, error) {
	counts := map[string]int64{
		domain.StatusPendiente:  0,
		domain.StatusConfirmado: 0,
		domain.StatusSustituido: 0,
		domain.StatusCancelado:  0,
	}
	for _, inv := range m.invitations {
		if matchesFilter(inv, filter) {
			counts[inv.Estatus]++
		}
	}
	return counts, nil
}

func (m *memStore) CreateNotification(_ context.Context, n *domain.Notification) error {
	m.nextNotifID++
	n.ID = m.nextNotifID
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *memStore) ListNotifications(_ context.Context, invitacionID string, limit int) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range m.notifications {
		if n.InvitacionID == invitacionID {
			out = append(out, n)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) ListUndelivered(_ context.Context, limit int) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range m.notifications {
		if !n.Enviado {
			out = append(out, n)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) MarkDelivered(_ context.Context, id int64, ts time.Time) error {
	for i := range m.notifications {
		if m.notifications[i].ID == id {
			m.notifications[i].Enviado = true
			m.notifications[i].EnviadoTS = &ts
			return nil
		}
	}
	return nil
}

// WithinTx applies fn directly; the fake commits eagerly and has no
// rollback. Tests that exercise abort paths rely on the services failing
// before any write, which is how those paths behave.
func (m *memStore) WithinTx(_ context.Context, fn func(tx repository.Store) error) error {
	return fn(m)
}

// notificationsFor filters recorded snapshots by invitation and campo.
func (m *memStore) notificationsFor(invitacionID, campo string) []domain.Notification {
	var out []domain.Notification
	for _, n := range m.notifications {
		if n.InvitacionID == invitacionID && (campo == "" || n.Campo == campo) {
			out = append(out, n)
		}
	}
	return out
}
