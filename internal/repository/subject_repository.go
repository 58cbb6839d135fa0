package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/auth-gateway/internal/domain"
)

// SubjectRepository is the credential-store contract the pipeline depends
// on. Lookups are case-sensitive; callers must not normalize the email.
type SubjectRepository interface {
	Create(ctx context.Context, subject *domain.Subject) error
	GetByID(ctx context.Context, id string) (*domain.Subject, error)
	GetByEmail(ctx context.Context, email string) (*domain.Subject, error)
}

type subjectRepository struct {
	pool *pgxpool.Pool
}

// NewSubjectRepository returns a Postgres-backed implementation.
func NewSubjectRepository(pool *pgxpool.Pool) SubjectRepository {
	return &subjectRepository{pool: pool}
}

func (r *subjectRepository) Create(ctx context.Context, subject *domain.Subject) error {
	const query = `
        INSERT INTO subjects (email, password_hash, active)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		subject.Email,
		subject.PasswordHash,
		subject.Active,
	).Scan(&subject.ID, &subject.CreatedAt, &subject.UpdatedAt)
}

func (r *subjectRepository) GetByID(ctx context.Context, id string) (*domain.Subject, error) {
	const query = `
        SELECT id, email, password_hash, active, created_at, updated_at
        FROM subjects WHERE id=$1`

	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *subjectRepository) GetByEmail(ctx context.Context, email string) (*domain.Subject, error) {
	const query = `
        SELECT id, email, password_hash, active, created_at, updated_at
        FROM subjects WHERE email=$1`

	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *subjectRepository) scanOne(row pgx.Row) (*domain.Subject, error) {
	var subject domain.Subject
	if err := row.Scan(
		&subject.ID,
		&subject.Email,
		&subject.PasswordHash,
		&subject.Active,
		&subject.CreatedAt,
		&subject.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &subject, nil
}
