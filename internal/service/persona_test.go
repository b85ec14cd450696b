package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/FCP2/Asistencia-web/internal/domain"
)

func newPersonaTestService(t *testing.T) (*PersonaService, *InvitationService, *memStore) {
	t.Helper()
	store := newMemStore()
	clock := func() time.Time { return testClock }
	return NewPersonaService(store).WithClock(clock), NewInvitationService(store).WithClock(clock), store
}

func TestCreatePersona(t *testing.T) {
	svc, _, _ := newPersonaTestService(t)

	p, err := svc.Create(context.Background(), domain.CreatePersonaRequest{
		Nombre: "  María López ",
		Cargo:  "Regidora",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Nombre != "María López" {
		t.Errorf("nombre = %q, want trimmed", p.Nombre)
	}
	if !p.Activo {
		t.Error("new persona should be active")
	}
}

func TestCreatePersonaValidation(t *testing.T) {
	svc, _, _ := newPersonaTestService(t)

	if _, err := svc.Create(context.Background(), domain.CreatePersonaRequest{Cargo: "Regidora"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("missing nombre: err = %v, want ErrValidation", err)
	}
	if _, err := svc.Create(context.Background(), domain.CreatePersonaRequest{Nombre: "María"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("missing cargo: err = %v, want ErrValidation", err)
	}
}

func TestUpdatePersonaPartial(t *testing.T) {
	svc, _, _ := newPersonaTestService(t)

	p, err := svc.Create(context.Background(), domain.CreatePersonaRequest{Nombre: "María López", Cargo: "Regidora"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	tel := "771-555-0100"
	updated, err := svc.Update(context.Background(), p.ID, domain.UpdatePersonaRequest{Telefono: &tel})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Telefono != tel {
		t.Errorf("telefono = %q, want %q", updated.Telefono, tel)
	}
	if updated.Nombre != "María López" {
		t.Errorf("nombre = %q, untouched fields must survive", updated.Nombre)
	}
}

func TestDeletePersonaUnassignsInvitations(t *testing.T) {
	personas, invitations, store := newPersonaTestService(t)

	p, err := personas.Create(context.Background(), domain.CreatePersonaRequest{Nombre: "María López", Cargo: "Regidora"})
	if err != nil {
		t.Fatalf("Create persona: %v", err)
	}

	first := seedInvitation(t, invitations, "2026-03-10", "10:00")
	second := seedInvitation(t, invitations, "2026-03-12", "16:00")
	untouched := seedInvitation(t, invitations, "2026-03-14", "09:00")

	for _, id := range []int64{first.ID, second.ID} {
		if _, _, err := invitations.Assign(context.Background(), "admin", id, domain.AssignRequest{PersonaID: p.ID}); err != nil {
			t.Fatalf("Assign %d: %v", id, err)
		}
	}

	affected, err := personas.Delete(context.Background(), "admin", p.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if affected != 2 {
		t.Errorf("affected = %d, want 2", affected)
	}

	if _, err := store.GetPersona(context.Background(), p.ID); !errors.Is(err, domain.ErrPersonaNotFound) {
		t.Errorf("persona still present after delete")
	}

	for _, id := range []int64{first.ID, second.ID} {
		inv, err := store.GetInvitation(context.Background(), id)
		if err != nil {
			t.Fatalf("GetInvitation %d: %v", id, err)
		}
		if inv.Estatus != domain.StatusPendiente {
			t.Errorf("invitation %d estatus = %q, want Pendiente", id, inv.Estatus)
		}
		if inv.PersonaID != nil || inv.Rol != "" || inv.FechaAsignacion != nil {
			t.Errorf("invitation %d keeps structural assignment: %+v", id, inv)
		}
		// The name is a value copy and must outlive the catalog row.
		if inv.AsignadoA != "María López" {
			t.Errorf("invitation %d asignado_a = %q, want name preserved", id, inv.AsignadoA)
		}
		if !strings.Contains(inv.Observaciones, personaDeletedNote) {
			t.Errorf("invitation %d observaciones = %q, want auto-unassign note", id, inv.Observaciones)
		}
	}

	after, err := store.GetInvitation(context.Background(), untouched.ID)
	if err != nil {
		t.Fatalf("GetInvitation: %v", err)
	}
	if after.Estatus != domain.StatusPendiente || strings.Contains(after.Observaciones, personaDeletedNote) {
		t.Errorf("unrelated invitation modified: %+v", after)
	}

	// Each unassignment leaves an Estatus snapshot naming the deleted persona.
	snaps := store.notificationsFor("1", campoEstatus)
	last := snaps[len(snaps)-1]
	if last.ValorAnterior != domain.StatusConfirmado || last.ValorNuevo != domain.StatusPendiente {
		t.Errorf("unassign snapshot %q -> %q, want Confirmado -> Pendiente", last.ValorAnterior, last.ValorNuevo)
	}
	if !strings.Contains(last.Comentario, "María López") {
		t.Errorf("comentario = %q, want deleted persona named", last.Comentario)
	}
}

func TestDeletePersonaNotFound(t *testing.T) {
	svc, _, _ := newPersonaTestService(t)
	if _, err := svc.Delete(context.Background(), "admin", 99); !errors.Is(err, domain.ErrPersonaNotFound) {
		t.Errorf("err = %v, want ErrPersonaNotFound", err)
	}
}
