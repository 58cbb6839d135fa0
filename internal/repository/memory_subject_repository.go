package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/auth-gateway/internal/domain"
)

// memorySubjectRepository is an in-process credential store used when no
// database is configured, and as a test double. Missing rows surface as
// pgx.ErrNoRows so callers handle both implementations identically.
type memorySubjectRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Subject
	byEmail map[string]*domain.Subject
}

// NewMemorySubjectRepository builds an empty in-memory store.
func NewMemorySubjectRepository() SubjectRepository {
	return &memorySubjectRepository{
		byID:    make(map[string]*domain.Subject),
		byEmail: make(map[string]*domain.Subject),
	}
}

func (r *memorySubjectRepository) Create(_ context.Context, subject *domain.Subject) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now()
	subject.CreatedAt = now
	subject.UpdatedAt = now

	stored := *subject
	r.byID[stored.ID] = &stored
	r.byEmail[stored.Email] = &stored
	return nil
}

func (r *memorySubjectRepository) GetByID(_ context.Context, id string) (*domain.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subject, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *subject
	return &copied, nil
}

func (r *memorySubjectRepository) GetByEmail(_ context.Context, email string) (*domain.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subject, ok := r.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *subject
	return &copied, nil
}
