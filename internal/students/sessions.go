package students

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/madraskitchen/canteen/internal/domain"
)

// Sessions stand in for the browser's remembered login. Login is email-only:
// the canteen trusts campus students the way the kiosk did.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, studentID string) (*domain.Session, error) {
	session := &domain.Session{
		ID:        uuid.New().String(),
		StudentID: studentID,
		CreatedAt: time.Now().UTC(),
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, student_id, created_at)
		VALUES ($1, $2, $3)
	`, session.ID, session.StudentID, session.CreatedAt)
	if err != nil {
		return nil, err
	}

	return session, nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	session := &domain.Session{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, student_id, created_at
		FROM sessions
		WHERE id = $1
	`, id).Scan(&session.ID, &session.StudentID, &session.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}
