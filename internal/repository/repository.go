package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/FCP2/Asistencia-web/internal/domain"

	"github.com/lib/pq"
)

// Store defines the persistence interface for personas, invitations and
// notification snapshots. Every lifecycle mutation runs against a Store
// obtained from WithinTx so that field changes and their audit rows commit
// or roll back together.
type Store interface {
	// Personas
	CreatePersona(ctx context.Context, p *domain.Persona) error
	GetPersona(ctx context.Context, id int64) (*domain.Persona, error)
	ListPersonas(ctx context.Context, onlyActive bool) ([]domain.Persona, error)
	UpdatePersona(ctx context.Context, id int64, req domain.UpdatePersonaRequest) (*domain.Persona, error)
	DeletePersona(ctx context.Context, id int64) error

	// Invitations
	CreateInvitation(ctx context.Context, inv *domain.Invitation) error
	GetInvitation(ctx context.Context, id int64) (*domain.Invitation, error)
	ListInvitations(ctx context.Context, filter domain.InvitationFilter) ([]domain.Invitation, error)
	UpdateInvitation(ctx context.Context, inv *domain.Invitation) error
	DeleteInvitation(ctx context.Context, id int64) error
	ListByPersona(ctx context.Context, personaID int64) ([]domain.Invitation, error)
	FindActiveAssignments(ctx context.Context, personaID int64, fecha time.Time, excludeID int64) ([]domain.Invitation, error)
	CountByStatus(ctx context.Context, filter domain.InvitationFilter) (map[string]int64, error)

	// Notification snapshots
	CreateNotification(ctx context.Context, n *domain.Notification) error
	ListNotifications(ctx context.Context, invitacionID string, limit int) ([]domain.Notification, error)
	ListUndelivered(ctx context.Context, limit int) ([]domain.Notification, error)
	MarkDelivered(ctx context.Context, id int64, ts time.Time) error

	// WithinTx runs fn against a Store bound to a single database
	// transaction, committing on success and rolling back on error.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const queryTimeout = 5 * time.Second

type postgresStore struct {
	db   *sql.DB // nil when the store is bound to a transaction
	exec executor
}

// Compile-time check that postgresStore implements Store.
var _ Store = (*postgresStore)(nil)

func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db, exec: db}
}

func (s *postgresStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.db == nil {
		// Already inside a transaction; reuse it.
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(&postgresStore{exec: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// UniqueAgendaIndex is the partial unique index that forbids two active
// assignments for the same persona at the identical date and time.
const UniqueAgendaIndex = "uq_invitaciones_agenda"

// IsUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation on the named constraint ("" matches any).
func IsUniqueViolation(err error, constraint string) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return false
	}
	if pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func nullInt64Ptr(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}

func int64Ptr(nn sql.NullInt64) *int64 {
	if !nn.Valid {
		return nil
	}
	n := nn.Int64
	return &n
}
