package students

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/madraskitchen/canteen/internal/domain"
)

// ErrInsufficientBalance is returned by Debit when the student cannot cover
// the amount. The row is left untouched in that case.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrDuplicateEmail is returned by Create when the email is already
// registered.
var ErrDuplicateEmail = errors.New("email already registered")

// Registration seed: every new student starts with the demo card balance.
const initialBalance = 500

type StudentRepository struct {
	db *sql.DB
}

func NewStudentRepository(db *sql.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) Create(ctx context.Context, name, email, phone string) (*domain.Student, error) {
	student := &domain.Student{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		Balance:   initialBalance,
		Points:    0,
		CreatedAt: time.Now().UTC(),
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO students (id, name, email, phone, balance, points, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, student.ID, student.Name, student.Email, student.Phone, student.Balance, student.Points, student.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	return student, nil
}

func (r *StudentRepository) GetByID(ctx context.Context, id string) (*domain.Student, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, balance, points, created_at
		FROM students
		WHERE id = $1
	`, id))
}

func (r *StudentRepository) GetByEmail(ctx context.Context, email string) (*domain.Student, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, balance, points, created_at
		FROM students
		WHERE email = $1
	`, email))
}

func (r *StudentRepository) scanOne(row *sql.Row) (*domain.Student, error) {
	student := &domain.Student{}
	err := row.Scan(&student.ID, &student.Name, &student.Email, &student.Phone,
		&student.Balance, &student.Points, &student.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return student, nil
}

// UpdateProfile overwrites name and email; returns nil, nil when the
// student does not exist.
func (r *StudentRepository) UpdateProfile(ctx context.Context, id, name, email string) (*domain.Student, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE students SET name = $1, email = $2
		WHERE id = $3
	`, name, email, id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

// Debit takes amount off the balance and credits points in a single
// conditional UPDATE, so the balance check and the write cannot interleave
// with another writer.
func (r *StudentRepository) Debit(ctx context.Context, id string, amount, points int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE students SET balance = balance - $1, points = points + $2
		WHERE id = $3 AND balance >= $1
	`, amount, points, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrInsufficientBalance
	}

	return nil
}

// CreditPoints is the gateway-path reward: no balance involved.
func (r *StudentRepository) CreditPoints(ctx context.Context, id string, points int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE students SET points = points + $1
		WHERE id = $2
	`, points, id)
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
