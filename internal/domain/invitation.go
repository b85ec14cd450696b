package domain

import (
	"errors"
	"time"
)

// Invitation errors
var (
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrInvalidStatus      = errors.New("invalid invitation status")

	// ErrValidation marks a request rejected before any store interaction.
	ErrValidation = errors.New("validation failed")
)

// Invitation status constants
const (
	StatusPendiente  = "Pendiente"
	StatusConfirmado = "Confirmado"
	StatusSustituido = "Sustituido"
	StatusCancelado  = "Cancelado"
)

// ValidStatuses returns the list of valid invitation statuses
func ValidStatuses() []string {
	return []string{StatusPendiente, StatusConfirmado, StatusSustituido, StatusCancelado}
}

// IsValidStatus reports whether s is one of the four invitation statuses.
func IsValidStatus(s string) bool {
	switch s {
	case StatusPendiente, StatusConfirmado, StatusSustituido, StatusCancelado:
		return true
	}
	return false
}

// IsActiveStatus reports whether s means a persona is currently committed
// to attend (counts for double-booking checks).
func IsActiveStatus(s string) bool {
	return s == StatusConfirmado || s == StatusSustituido
}

type Invitation struct {
	ID int64 `json:"id"`

	// Event data. Hora is a canonical "HH:MM" string, "" when not provided.
	Fecha           *time.Time `json:"fecha"`
	Hora            string     `json:"hora"`
	Evento          string     `json:"evento"`
	ConvocaCargo    string     `json:"convoca_cargo"`
	Convoca         string     `json:"convoca"`
	PartidoPolitico string     `json:"partido_politico"`
	Municipio       string     `json:"municipio"`
	Lugar           string     `json:"lugar"`

	// Tracking. AsignadoA is a value copy of the persona's name taken at
	// assignment time; it survives deletion of the Persona row.
	Estatus       string `json:"estatus"`
	PersonaID     *int64 `json:"persona_id"`
	AsignadoA     string `json:"asignado_a"`
	Rol           string `json:"rol"`
	Observaciones string `json:"observaciones"`

	FechaAsignacion    *time.Time `json:"fecha_asignacion"`
	UltimaModificacion time.Time  `json:"ultima_modificacion"`
	ModificadoPor      string     `json:"modificado_por"`

	// Attachment metadata; the blob itself lives in an external store.
	ArchivoURL    string     `json:"archivo_url,omitempty"`
	ArchivoNombre string     `json:"archivo_nombre,omitempty"`
	ArchivoMime   string     `json:"archivo_mime,omitempty"`
	ArchivoTamano int64      `json:"archivo_tamano,omitempty"`
	ArchivoTS     *time.Time `json:"archivo_ts,omitempty"`
}

type CreateInvitationRequest struct {
	Fecha           string `json:"fecha"`
	Hora            string `json:"hora"`
	Evento          string `json:"evento"`
	ConvocaCargo    string `json:"convoca_cargo"`
	Convoca         string `json:"convoca"`
	PartidoPolitico string `json:"partido_politico"`
	Municipio       string `json:"municipio"`
	Lugar           string `json:"lugar"`
	Observaciones   string `json:"observaciones"`

	ArchivoURL    string `json:"archivo_url"`
	ArchivoNombre string `json:"archivo_nombre"`
	ArchivoMime   string `json:"archivo_mime"`
	ArchivoTamano int64  `json:"archivo_tamano"`
}

// UpdateInvitationRequest carries a partial update: only non-nil fields are
// applied, each by direct assignment.
type UpdateInvitationRequest struct {
	Fecha           *string `json:"fecha,omitempty"`
	Hora            *string `json:"hora,omitempty"`
	Evento          *string `json:"evento,omitempty"`
	ConvocaCargo    *string `json:"convoca_cargo,omitempty"`
	Convoca         *string `json:"convoca,omitempty"`
	PartidoPolitico *string `json:"partido_politico,omitempty"`
	Municipio       *string `json:"municipio,omitempty"`
	Lugar           *string `json:"lugar,omitempty"`
	Observaciones   *string `json:"observaciones,omitempty"`

	ArchivoURL      *string `json:"archivo_url,omitempty"`
	ArchivoNombre   *string `json:"archivo_nombre,omitempty"`
	ArchivoMime     *string `json:"archivo_mime,omitempty"`
	ArchivoTamano   *int64  `json:"archivo_tamano,omitempty"`
	EliminarArchivo bool    `json:"eliminar_archivo,omitempty"`
}

type AssignRequest struct {
	PersonaID  int64  `json:"persona_id"`
	Rol        string `json:"rol"`
	Comentario string `json:"comentario"`
	Force      bool   `json:"force"`
}

type ChangeStatusRequest struct {
	Estatus    string `json:"estatus"`
	Comentario string `json:"comentario"`
}

type CancelRequest struct {
	Comentario string `json:"comentario"`
}

// InvitationFilter narrows List queries; zero values mean "no filter".
type InvitationFilter struct {
	Estatus  string
	DateFrom *time.Time
	DateTo   *time.Time
}
