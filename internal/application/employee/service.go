package employee

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-employee-api/internal/domain"
)

type Service interface {
	List(ctx context.Context) ([]domain.Employee, error)
	Get(ctx context.Context, id int64) (*domain.Employee, error)
	Profile(ctx context.Context, p domain.Principal) (*domain.Employee, error)
	// Update edits the caller's own record; any other id is forbidden.
	Update(ctx context.Context, p domain.Principal, id int64, req domain.UpdateEmployeeRequest) (*domain.Employee, error)
	// Delete removes the caller's own record and drops their live session.
	Delete(ctx context.Context, p domain.Principal) (*domain.Employee, error)
}

type sessionDeactivator interface {
	Deactivate(ctx context.Context, employeeID int64) error
}

type ServiceDeps struct {
	UnitOfWork domain.UnitOfWork
	Sessions   sessionDeactivator
}

type service struct {
	uow      domain.UnitOfWork
	sessions sessionDeactivator
}

func NewService(deps ServiceDeps) Service {
	return &service{uow: deps.UnitOfWork, sessions: deps.Sessions}
}

func (s *service) List(ctx context.Context) (employees []domain.Employee, err error) {
	err = s.uow.WithTx(ctx, func(r domain.Repos) error {
		employees, err = r.Employees.List(ctx)
		return err
	})
	return employees, err
}

func (s *service) Get(ctx context.Context, id int64) (e *domain.Employee, err error) {
	err = s.uow.WithTx(ctx, func(r domain.Repos) error {
		e, err = r.Employees.GetByID(ctx, id)
		return err
	})
	return e, err
}

func (s *service) Profile(ctx context.Context, p domain.Principal) (*domain.Employee, error) {
	return s.Get(ctx, p.EmployeeID)
}

func (s *service) Update(ctx context.Context, p domain.Principal, id int64, req domain.UpdateEmployeeRequest) (*domain.Employee, error) {
	if p.EmployeeID != id {
		return nil, fmt.Errorf("cannot update another employee: %w", domain.ErrForbidden)
	}
	var e *domain.Employee
	err := s.uow.WithTx(ctx, func(r domain.Repos) error {
		var err error
		e, err = r.Employees.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if req.FirstName == nil && req.LastName == nil && req.Email == nil {
			return nil
		}
		if req.FirstName != nil {
			e.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			e.LastName = *req.LastName
		}
		if req.Email != nil && *req.Email != e.Email {
			taken, err := r.Employees.EmailTaken(ctx, *req.Email, id)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("email already exists: %w", domain.ErrDuplicateEmail)
			}
			e.Email = *req.Email
		}
		return r.Employees.Update(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *service) Delete(ctx context.Context, p domain.Principal) (*domain.Employee, error) {
	var e *domain.Employee
	err := s.uow.WithTx(ctx, func(r domain.Repos) error {
		var err error
		e, err = r.Employees.Delete(ctx, p.EmployeeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Deactivate(ctx, p.EmployeeID); err != nil {
		slog.Warn("failed to deactivate session after employee delete", "employee_id", p.EmployeeID, "err", err)
	}
	return e, nil
}
