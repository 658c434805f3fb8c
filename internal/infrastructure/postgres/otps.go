package postgres

import (
	"context"
	"time"

	"github.com/go-employee-api/internal/domain"
)

// OTPRepo implements domain.OTPRepository over the tokens table.
// emp_id is the primary key, so at most one code exists per employee.
type OTPRepo struct {
	db DBTX
}

func NewOTPRepo(db DBTX) *OTPRepo {
	return &OTPRepo{db: db}
}

// Replace overwrites any prior code for the employee in one statement.
func (r *OTPRepo) Replace(ctx context.Context, t *domain.OTPToken) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO tokens (emp_id, token, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (emp_id) DO UPDATE SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at
	`, t.EmployeeID, t.Code, t.ExpiresAt)
	if err != nil {
		return storageErr("OTP_REPLACE_FAILED", "upsert otp", err)
	}
	return nil
}

// Consume is a conditional delete: of two concurrent calls with the same code
// only one can observe RowsAffected() == 1.
func (r *OTPRepo) Consume(ctx context.Context, employeeID int64, code string, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM tokens WHERE emp_id = $1 AND token = $2 AND expires_at >= $3
	`, employeeID, code, now)
	if err != nil {
		return false, storageErr("OTP_CONSUME_FAILED", "consume otp", err)
	}
	return tag.RowsAffected() == 1, nil
}

var _ domain.OTPRepository = (*OTPRepo)(nil)
