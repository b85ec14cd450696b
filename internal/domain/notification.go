package domain

import "time"

// Notification is one immutable snapshot of a single field change on an
// invitation. Rows are append-only: nothing ever mutates except the
// Enviado/EnviadoTS pair when a downstream consumer picks the row up.
type Notification struct {
	ID           int64     `json:"id"`
	TS           time.Time `json:"ts"`
	InvitacionID string    `json:"invitacion_id"`

	// The change itself.
	Campo         string `json:"campo"`
	ValorAnterior string `json:"valor_anterior"`
	ValorNuevo    string `json:"valor_nuevo"`
	Comentario    string `json:"comentario"`

	// Denormalized snapshot of the invitation at the moment of the change,
	// so a consumer can act without re-fetching the row.
	Evento          string     `json:"evento"`
	Convoca         string     `json:"convoca"`
	ConvocaCargo    string     `json:"convoca_cargo"`
	Estatus         string     `json:"estatus"`
	AsignadoANombre string     `json:"asignado_a_nombre"`
	Rol             string     `json:"rol"`
	Fecha           *time.Time `json:"fecha"`
	Hora            string     `json:"hora"`
	Municipio       string     `json:"municipio"`
	Lugar           string     `json:"lugar"`

	// Send-once bookkeeping for the delivery loop.
	Enviado   bool       `json:"enviado"`
	EnviadoTS *time.Time `json:"enviado_ts,omitempty"`
}
