package server

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/FCP2/Asistencia-web/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	log "github.com/sirupsen/logrus"
)

// defaultActor is recorded on mutations when the client does not identify
// itself via the X-Actor header.
const defaultActor = "webapp"

type Server struct {
	invitations service.InvitationServiceInterface
	personas    service.PersonaServiceInterface
	db          *sql.DB
}

func NewServer(invitations service.InvitationServiceInterface, personas service.PersonaServiceInterface, db *sql.DB) *Server {
	return &Server{
		invitations: invitations,
		personas:    personas,
		db:          db,
	}
}

// RequestID tags every request with an X-Request-ID, generating one when the
// client did not send its own.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, rid)
			return next(c)
		}
	}
}

func (s *Server) HealthCheck(c echo.Context) error {
	if err := s.db.Ping(); err != nil {
		log.WithField("error", err).Error("Health check failed: database is down")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  "database connection error",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func actorFrom(c echo.Context) string {
	if actor := c.Request().Header.Get("X-Actor"); actor != "" {
		return actor
	}
	return defaultActor
}

func idParam(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
