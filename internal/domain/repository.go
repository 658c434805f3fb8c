package domain

import (
	"context"
	"time"
)

// EmployeeRepository is the relational store for employee records.
type EmployeeRepository interface {
	List(ctx context.Context) ([]Employee, error)
	GetByID(ctx context.Context, id int64) (*Employee, error)
	GetByEmail(ctx context.Context, email string) (*Employee, error)
	// EmailTaken reports whether another employee (id != exceptID) owns email.
	EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error)
	Create(ctx context.Context, e *Employee) error
	Update(ctx context.Context, e *Employee) error
	UpdatePassword(ctx context.Context, id int64, digest string) error
	MarkVerified(ctx context.Context, id int64) (*Employee, error)
	Delete(ctx context.Context, id int64) (*Employee, error)
}

// OTPRepository is the relational store for OTP tokens.
type OTPRepository interface {
	// Replace overwrites any prior row for the employee with t.
	Replace(ctx context.Context, t *OTPToken) error
	// Consume deletes the row matching employee, code and expires_at >= now in a
	// single statement and reports whether exactly one row was removed.
	Consume(ctx context.Context, employeeID int64, code string, now time.Time) (bool, error)
}

// Repos groups the repositories bound to one transaction.
type Repos struct {
	Employees EmployeeRepository
	OTPs      OTPRepository
}

// UnitOfWork runs fn inside a single transaction. The transaction commits when
// fn returns nil and rolls back otherwise; the connection is released on every path.
type UnitOfWork interface {
	WithTx(ctx context.Context, fn func(Repos) error) error
}

// SessionRegistry tracks the live token per employee and revoked tokens.
// Every method fails with ErrSessionStoreUnavailable when the backing store errors.
type SessionRegistry interface {
	Activate(ctx context.Context, employeeID int64, token string) error
	Revoke(ctx context.Context, token string, employeeID int64) error
	Deactivate(ctx context.Context, employeeID int64) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
	IsActive(ctx context.Context, employeeID int64, token string) (bool, error)
	Ping(ctx context.Context) error
}

// Notifier dispatches outbound mail. It may fail independently of storage.
type Notifier interface {
	Send(ctx context.Context, m Mail) error
}
