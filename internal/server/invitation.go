package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/FCP2/Asistencia-web/internal/domain"
	"github.com/FCP2/Asistencia-web/internal/timeutil"

	"github.com/labstack/echo/v4"

	log "github.com/sirupsen/logrus"
)

func (s *Server) CreateInvitation(c echo.Context) error {
	var req domain.CreateInvitationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	ctx := c.Request().Context()
	inv, err := s.invitations.Create(ctx, actorFrom(c), req)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
		}
		log.WithError(err).Error("Failed to create invitation")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	return c.JSON(http.StatusCreated, inv)
}

func (s *Server) GetInvitation(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid invitation ID",
		})
	}

	ctx := c.Request().Context()
	inv, err := s.invitations.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrInvitationNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "invitation not found",
			})
		}
		log.WithError(err).WithField("invitation_id", id).Error("Failed to get invitation")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	return c.JSON(http.StatusOK, inv)
}

func (s *Server) ListInvitations(c echo.Context) error {
	filter, err := filterFromQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	ctx := c.Request().Context()
	invs, err := s.invitations.List(ctx, filter)
	if err != nil {
		log.WithError(err).Error("Failed to list invitations")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	return c.JSON(http.StatusOK, invs)
}

func (s *Server) UpdateInvitation(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid invitation ID",
		})
	}

	var req domain.UpdateInvitationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	ctx := c.Request().Context()
	inv, err := s.invitations.Update(ctx, actorFrom(c), id, req)
	if err != nil {
		if errors.Is(err, domain.ErrInvitationNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "invitation not found",
			})
		}
		if errors.Is(err, domain.ErrValidation) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
		}
		if errors.Is(err, domain.ErrScheduleConflict) {
			return c.JSON(http.StatusConflict, map[string]string{
				"error": "schedule conflict",
			})
		}
		log.WithError(err).WithField("invitation_id", id).Error("Failed to update invitation")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	return c.JSON(http.StatusOK, inv)
}

func (s *Server) DeleteInvitation(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid invitation ID",
		})
	}

	ctx := c.Request().Context()
	if err := s.invitations.Delete(ctx, actorFrom(c), id, c.QueryParam("comentario")); err != nil {
		if errors.Is(err, domain.ErrInvitationNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "invitation not found",
			})
		}
		log.WithError(err).WithField("invitation_id", id).Error("Failed to delete invitation")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) InvitationHistory(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid invitation ID",
		})
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "invalid limit",
			})
		}
	}

	ctx := c.Request().Context()
	history, err := s.invitations.History(ctx, id, limit)
	if err != nil {
		if errors.Is(err, domain.ErrInvitationNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "invitation not found",
			})
		}
		log.WithError(err).WithField("invitation_id", id).Error("Failed to load invitation history")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	return c.JSON(http.StatusOK, history)
}

func (s *Server) AssignInvitation(c echo.Context) error {
	return s.handleAssign(c, false)
}

func (s *Server) ReassignInvitation(c echo.Context) error {
	return s.handleAssign(c, true)
}

func (s *Server) handleAssign(c echo.Context, substitution bool) error {
	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid invitation ID",
		})
	}

	var req domain.AssignRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	ctx := c.Request().Context()
	actor := actorFrom(c)

	var (
		inv    *domain.Invitation
		report *domain.ConflictReport
	)
	if substitution {
		inv, report, err = s.invitations.Reassign(ctx, actor, id, req)
	} else {
		inv, report, err = s.invitations.Assign(ctx, actor, id, req)
	}
	if err != nil {
		if errors.Is(err, domain.ErrScheduleConflict) {
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"error":     "schedule conflict",
				"level":     report.Level,
				"conflicts": report.Conflicts,
			})
		}
		if errors.Is(err, domain.ErrInvitationNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "invitation not found",
			})
		}
		if errors.Is(err, domain.ErrPersonaNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "persona not found",
			})
		}
		if errors.Is(err, domain.ErrValidation) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
		}
		log.WithError(err).WithFields(log.Fields{
			"invitation_id": id,
			"persona_id":    req.PersonaID,
		}).Error("Failed to assign invitation")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	response := map[string]interface{}{
		"invitation": inv,
	}
	if report != nil {
		response["level"] = report.Level
		response["conflicts"] = report.Conflicts
	}
	return c.JSON(http.StatusOK, response)
}

func (s *Server) ChangeInvitationStatus(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid invitation ID",
		})
	}

	var req domain.ChangeStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	ctx := c.Request().Context()
	inv, err := s.invitations.ChangeStatus(ctx, actorFrom(c), id, req)
	if err != nil {
		if errors.Is(err, domain.ErrInvitationNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "invitation not found",
			})
		}
		if errors.Is(err, domain.ErrInvalidStatus) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "invalid status: " + req.Estatus,
			})
		}
		if errors.Is(err, domain.ErrScheduleConflict) {
			return c.JSON(http.StatusConflict, map[string]string{
				"error": "schedule conflict",
			})
		}
		log.WithError(err).WithField("invitation_id", id).Error("Failed to change invitation status")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	return c.JSON(http.StatusOK, inv)
}

func (s *Server) CancelInvitation(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid invitation ID",
		})
	}

	var req domain.CancelRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	ctx := c.Request().Context()
	inv, err := s.invitations.Cancel(ctx, actorFrom(c), id, req)
	if err != nil {
		if errors.Is(err, domain.ErrInvitationNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "invitation not found",
			})
		}
		log.WithError(err).WithField("invitation_id", id).Error("Failed to cancel invitation")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	return c.JSON(http.StatusOK, inv)
}

func (s *Server) CheckConflict(c echo.Context) error {
	var req domain.CheckConflictRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	ctx := c.Request().Context()
	report, err := s.invitations.CheckConflict(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
		}
		log.WithError(err).WithField("persona_id", req.PersonaID).Error("Failed to check conflicts")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	return c.JSON(http.StatusOK, report)
}

func (s *Server) Stats(c echo.Context) error {
	filter, err := filterFromQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	ctx := c.Request().Context()
	counts, err := s.invitations.CountByStatus(ctx, filter)
	if err != nil {
		log.WithError(err).Error("Failed to compute invitation stats")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"total":  total,
		"counts": counts,
	})
}

func (s *Server) Counters(c echo.Context) error {
	ctx := c.Request().Context()
	counts, err := s.invitations.CountByStatus(ctx, domain.InvitationFilter{})
	if err != nil {
		log.WithError(err).Error("Failed to compute invitation counters")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	return c.JSON(http.StatusOK, counts)
}

// filterFromQuery reads estatus/desde/hasta query parameters. Dates accept
// the same formats the write path accepts.
func filterFromQuery(c echo.Context) (domain.InvitationFilter, error) {
	var filter domain.InvitationFilter

	if estatus := c.QueryParam("estatus"); estatus != "" {
		if !domain.IsValidStatus(estatus) {
			return filter, errors.New("invalid estatus: " + estatus)
		}
		filter.Estatus = estatus
	}
	if raw := c.QueryParam("desde"); raw != "" {
		d, ok := timeutil.ParseDate(raw)
		if !ok {
			return filter, errors.New("invalid desde date: " + raw)
		}
		filter.DateFrom = &d
	}
	if raw := c.QueryParam("hasta"); raw != "" {
		d, ok := timeutil.ParseDate(raw)
		if !ok {
			return filter, errors.New("invalid hasta date: " + raw)
		}
		filter.DateTo = &d
	}
	return filter, nil
}
