package domain

import "errors"

// Persona errors
var (
	ErrPersonaNotFound = errors.New("persona not found")
)

type Persona struct {
	ID           int64  `json:"id"`
	Nombre       string `json:"nombre"`
	Cargo        string `json:"cargo"`
	Telefono     string `json:"telefono"`
	Correo       string `json:"correo"`
	UnidadRegion string `json:"unidad_region"`
	Activo       bool   `json:"activo"`
}

type CreatePersonaRequest struct {
	Nombre       string `json:"nombre"`
	Cargo        string `json:"cargo"`
	Telefono     string `json:"telefono"`
	Correo       string `json:"correo"`
	UnidadRegion string `json:"unidad_region"`
}

type UpdatePersonaRequest struct {
	Nombre       *string `json:"nombre,omitempty"`
	Cargo        *string `json:"cargo,omitempty"`
	Telefono     *string `json:"telefono,omitempty"`
	Correo       *string `json:"correo,omitempty"`
	UnidadRegion *string `json:"unidad_region,omitempty"`
	Activo       *bool   `json:"activo,omitempty"`
}
