package service

import (
	"context"
	"fmt"
	"time"

	"github.com/FCP2/Asistencia-web/internal/domain"
	"github.com/FCP2/Asistencia-web/internal/repository"
	"github.com/FCP2/Asistencia-web/internal/timeutil"

	log "github.com/sirupsen/logrus"
)

// tightWindowMinutes is the single near-miss threshold: two active
// assignments within this many minutes of each other are "tight", identical
// times are "hard", anything farther apart does not conflict.
const tightWindowMinutes = 60

// classifyDistance maps a whole-minute distance to a conflict severity.
func classifyDistance(dm int) string {
	switch {
	case dm == 0:
		return domain.SeverityHard
	case dm <= tightWindowMinutes:
		return domain.SeverityTight
	default:
		return domain.SeverityNone
	}
}

// evaluateSchedule classifies each candidate against the target time and
// aggregates the maximum severity. Candidates whose time (or the target's)
// is absent cannot conflict. The report lists contributing candidates in
// evaluation order.
func evaluateSchedule(candidates []domain.Invitation, hora string) *domain.ConflictReport {
	report := &domain.ConflictReport{Level: domain.SeverityNone}

	for _, m := range candidates {
		dm := timeutil.MinutesApart(m.Hora, hora)
		lev := classifyDistance(dm)
		if lev == domain.SeverityNone {
			continue
		}

		report.Conflicts = append(report.Conflicts, domain.ConflictSummary{
			ID:       m.ID,
			Evento:   m.Evento,
			FechaFmt: timeutil.FormatDate(m.Fecha),
			HoraFmt:  m.Hora,
			Estatus:  m.Estatus,
			Lugar:    m.Lugar,
		})
		report.Level = domain.MaxSeverity(report.Level, lev)
	}
	return report
}

// checkSchedule loads the persona's competing active assignments on the date
// and evaluates them against the target time. Advisory only: callers decide
// whether to honor the report.
func checkSchedule(ctx context.Context, st repository.Store, personaID int64, fecha time.Time, hora string, excludeID int64) (*domain.ConflictReport, error) {
	candidates, err := st.FindActiveAssignments(ctx, personaID, fecha, excludeID)
	if err != nil {
		return nil, err
	}
	return evaluateSchedule(candidates, hora), nil
}

// CheckConflict is the standalone conflict pre-check: would assigning the
// persona at the given date and time collide with their active agenda?
func (s *InvitationService) CheckConflict(ctx context.Context, req domain.CheckConflictRequest) (*domain.ConflictReport, error) {
	if req.PersonaID == 0 {
		return nil, fmt.Errorf("%w: persona_id is required", domain.ErrValidation)
	}

	fecha, ok := timeutil.ParseDateISO(req.Fecha)
	if !ok {
		return nil, fmt.Errorf("%w: fecha must be YYYY-MM-DD", domain.ErrValidation)
	}
	hora, ok := timeutil.ParseTimeOfDay(req.Hora)
	if !ok {
		return nil, fmt.Errorf("%w: hora is not a valid time", domain.ErrValidation)
	}

	report, err := checkSchedule(ctx, s.store, req.PersonaID, fecha, hora, req.ExcludeID)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"persona_id": req.PersonaID,
		"fecha":      req.Fecha,
		"hora":       hora,
		"level":      report.Level,
	}).Debug("Conflict check evaluated")

	return report, nil
}
