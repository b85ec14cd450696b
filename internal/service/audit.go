package service

import (
	"context"
	"strconv"
	"time"

	"github.com/FCP2/Asistencia-web/internal/domain"
	"github.com/FCP2/Asistencia-web/internal/repository"
	"github.com/FCP2/Asistencia-web/internal/timeutil"
)

// Field names used in notification snapshots. These are the labels a
// downstream consumer sees, so they stay stable.
const (
	campoAsignadoA = "Asignado A"
	campoRol       = "Rol"
	campoEstatus   = "Estatus"
	campoRegistro  = "Registro"
)

// newSnapshot builds one immutable notification row: the field change plus a
// denormalized copy of the invitation's event and assignment summary, so a
// consumer can act without re-fetching the invitation.
func newSnapshot(inv *domain.Invitation, ts time.Time, campo, oldVal, newVal, comentario string) *domain.Notification {
	return &domain.Notification{
		TS:           ts,
		InvitacionID: strconv.FormatInt(inv.ID, 10),

		Campo:         campo,
		ValorAnterior: oldVal,
		ValorNuevo:    newVal,
		Comentario:    comentario,

		Evento:          inv.Evento,
		Convoca:         inv.Convoca,
		ConvocaCargo:    inv.ConvocaCargo,
		Estatus:         inv.Estatus,
		AsignadoANombre: inv.AsignadoA,
		Rol:             inv.Rol,
		Fecha:           inv.Fecha,
		Hora:            inv.Hora,
		Municipio:       inv.Municipio,
		Lugar:           inv.Lugar,

		Enviado: false,
	}
}

// recordChange inserts the snapshot inside the caller's transaction. It has
// no independent failure mode: if the insert fails the whole unit of work
// aborts with it.
func recordChange(ctx context.Context, tx repository.Store, inv *domain.Invitation, ts time.Time, campo, oldVal, newVal, comentario string) error {
	return tx.CreateNotification(ctx, newSnapshot(inv, ts, campo, oldVal, newVal, comentario))
}

type fieldChange struct {
	Campo    string
	Anterior string
	Nuevo    string
}

// diffFields compares two invitation snapshots field by field on their
// textual values (empty and absent compare equal) and returns only the
// fields that actually changed. Resubmitting identical data therefore
// produces no entries at all.
func diffFields(before, after *domain.Invitation) []fieldChange {
	pairs := []struct {
		campo    string
		anterior string
		nuevo    string
	}{
		{"Fecha", timeutil.FormatDate(before.Fecha), timeutil.FormatDate(after.Fecha)},
		{"Hora", before.Hora, after.Hora},
		{"Evento", before.Evento, after.Evento},
		{"Convoca Cargo", before.ConvocaCargo, after.ConvocaCargo},
		{"Convoca", before.Convoca, after.Convoca},
		{"Partido Político", before.PartidoPolitico, after.PartidoPolitico},
		{"Municipio/Dependencia", before.Municipio, after.Municipio},
		{"Lugar", before.Lugar, after.Lugar},
		{"Observaciones", before.Observaciones, after.Observaciones},
		{"Archivo", before.ArchivoNombre, after.ArchivoNombre},
	}

	var changes []fieldChange
	for _, p := range pairs {
		if p.anterior != p.nuevo {
			changes = append(changes, fieldChange{Campo: p.campo, Anterior: p.anterior, Nuevo: p.nuevo})
		}
	}
	return changes
}
