package send

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates no Send record exists for the identifier. Callers
// above the resolver must never surface it to clients.
var ErrNotFound = errors.New("send not found")

// Repository looks up the authentication method configured for a Send.
type Repository interface {
	FindMethod(ctx context.Context, id ID) (AuthenticationMethod, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed Send repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindMethod fetches the method for a Send. Disabled Sends resolve to a
// never-authenticate method rather than an error.
func (r *PostgresRepository) FindMethod(ctx context.Context, id ID) (AuthenticationMethod, error) {
	row := r.db.QueryRow(ctx, `SELECT password_hash, allowed_emails, disabled
        FROM sends WHERE id = $1 AND deleted_at IS NULL`, id.UUID())

	var (
		passwordHash  *string
		allowedEmails []string
		disabled      bool
	)
	if err := row.Scan(&passwordHash, &allowedEmails, &disabled); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AuthenticationMethod{}, ErrNotFound
		}
		return AuthenticationMethod{}, err
	}

	switch {
	case disabled:
		return NeverMethod(), nil
	case len(allowedEmails) > 0:
		return EmailOtpMethod(allowedEmails), nil
	case passwordHash != nil && *passwordHash != "":
		return PasswordMethod(*passwordHash), nil
	default:
		return OpenMethod(), nil
	}
}
