package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-employee-api/internal/domain"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
)

const employeeColumns = `id, first_name, last_name, email, password, is_verified, created_at, updated_at`

// EmployeeRepo implements domain.EmployeeRepository.
type EmployeeRepo struct {
	db DBTX
}

func NewEmployeeRepo(db DBTX) *EmployeeRepo {
	return &EmployeeRepo{db: db}
}

func (r *EmployeeRepo) List(ctx context.Context) ([]domain.Employee, error) {
	rows, err := r.db.Query(ctx, `SELECT `+employeeColumns+` FROM employee ORDER BY id`)
	if err != nil {
		return nil, storageErr("EMPLOYEE_LIST_FAILED", "list employees", err)
	}
	defer rows.Close()

	employees := []domain.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, storageErr("EMPLOYEE_SCAN_FAILED", "scan employee", err)
		}
		employees = append(employees, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("EMPLOYEE_LIST_FAILED", "iterate employees", err)
	}
	return employees, nil
}

func (r *EmployeeRepo) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	row := r.db.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employee WHERE id = $1`, id)
	e, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("EMPLOYEE_NOT_FOUND").With("id", id).Wrap(domain.ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("EMPLOYEE_GET_FAILED", "get employee by id", err)
	}
	return e, nil
}

// GetByEmail matches email exactly as stored.
func (r *EmployeeRepo) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	row := r.db.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employee WHERE email = $1`, email)
	e, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("EMPLOYEE_NOT_FOUND").Wrap(domain.ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("EMPLOYEE_GET_FAILED", "get employee by email", err)
	}
	return e, nil
}

func (r *EmployeeRepo) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	var taken bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM employee WHERE email = $1 AND id <> $2)`,
		email, exceptID,
	).Scan(&taken)
	if err != nil {
		return false, storageErr("EMPLOYEE_EMAIL_CHECK_FAILED", "check email", err)
	}
	return taken, nil
}

// Create inserts e and fills in the store-assigned fields.
func (r *EmployeeRepo) Create(ctx context.Context, e *domain.Employee) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO employee (first_name, last_name, email, password)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_verified, created_at, updated_at
	`, e.FirstName, e.LastName, e.Email, e.Password).Scan(&e.ID, &e.IsVerified, &e.CreatedAt, &e.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("employee already exists with this email: %w", domain.ErrDuplicateEmail)
	}
	if err != nil {
		return storageErr("EMPLOYEE_CREATE_FAILED", "insert employee", err)
	}
	return nil
}

// Update writes the profile fields of e.
func (r *EmployeeRepo) Update(ctx context.Context, e *domain.Employee) error {
	err := r.db.QueryRow(ctx, `
		UPDATE employee SET first_name = $2, last_name = $3, email = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, e.ID, e.FirstName, e.LastName, e.Email).Scan(&e.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return oops.Code("EMPLOYEE_NOT_FOUND").With("id", e.ID).Wrap(domain.ErrNotFound)
	case isUniqueViolation(err):
		return fmt.Errorf("email already exists: %w", domain.ErrDuplicateEmail)
	case err != nil:
		return storageErr("EMPLOYEE_UPDATE_FAILED", "update employee", err)
	}
	return nil
}

func (r *EmployeeRepo) UpdatePassword(ctx context.Context, id int64, digest string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE employee SET password = $2, updated_at = NOW() WHERE id = $1`,
		id, digest,
	)
	if err != nil {
		return storageErr("EMPLOYEE_PASSWORD_UPDATE_FAILED", "update password", err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("EMPLOYEE_NOT_FOUND").With("id", id).Wrap(domain.ErrNotFound)
	}
	return nil
}

func (r *EmployeeRepo) MarkVerified(ctx context.Context, id int64) (*domain.Employee, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE employee SET is_verified = TRUE, updated_at = NOW()
		WHERE id = $1
		RETURNING `+employeeColumns, id)
	e, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("EMPLOYEE_NOT_FOUND").With("id", id).Wrap(domain.ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("EMPLOYEE_VERIFY_FAILED", "mark verified", err)
	}
	return e, nil
}

// Delete removes the employee and returns the deleted row. OTP rows cascade.
func (r *EmployeeRepo) Delete(ctx context.Context, id int64) (*domain.Employee, error) {
	row := r.db.QueryRow(ctx, `DELETE FROM employee WHERE id = $1 RETURNING `+employeeColumns, id)
	e, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("EMPLOYEE_NOT_FOUND").With("id", id).Wrap(domain.ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("EMPLOYEE_DELETE_FAILED", "delete employee", err)
	}
	return e, nil
}

// scanEmployee propagates pgx.ErrNoRows unchanged for callers to handle.
func scanEmployee(row pgx.Row) (*domain.Employee, error) {
	var e domain.Employee
	err := row.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Email, &e.Password, &e.IsVerified, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

var _ domain.EmployeeRepository = (*EmployeeRepo)(nil)
