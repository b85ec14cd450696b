package server

import (
	"errors"
	"net/http"

	"github.com/FCP2/Asistencia-web/internal/domain"

	"github.com/labstack/echo/v4"

	log "github.com/sirupsen/logrus"
)

func (s *Server) ListPersonas(c echo.Context) error {
	onlyActive := c.QueryParam("all") != "true"

	ctx := c.Request().Context()
	personas, err := s.personas.List(ctx, onlyActive)
	if err != nil {
		log.WithError(err).Error("Failed to list personas")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	return c.JSON(http.StatusOK, personas)
}

func (s *Server) CreatePersona(c echo.Context) error {
	var req domain.CreatePersonaRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	ctx := c.Request().Context()
	p, err := s.personas.Create(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
		}
		log.WithError(err).Error("Failed to create persona")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	return c.JSON(http.StatusCreated, p)
}

func (s *Server) UpdatePersona(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid persona ID",
		})
	}

	var req domain.UpdatePersonaRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	ctx := c.Request().Context()
	p, err := s.personas.Update(ctx, id, req)
	if err != nil {
		if errors.Is(err, domain.ErrPersonaNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "persona not found",
			})
		}
		log.WithError(err).WithField("persona_id", id).Error("Failed to update persona")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	return c.JSON(http.StatusOK, p)
}

func (s *Server) DeletePersona(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid persona ID",
		})
	}

	ctx := c.Request().Context()
	affected, err := s.personas.Delete(ctx, actorFrom(c), id)
	if err != nil {
		if errors.Is(err, domain.ErrPersonaNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "persona not found",
			})
		}
		log.WithError(err).WithField("persona_id", id).Error("Failed to delete persona")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"deleted":                true,
		"unassigned_invitations": affected,
	})
}
