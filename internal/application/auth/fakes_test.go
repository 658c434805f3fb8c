package auth

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/go-employee-api/internal/domain"
)

// memStore is an in-memory unit of work: fn sees a private copy that replaces
// the committed state only when fn returns nil.
type memStore struct {
	mu        sync.Mutex
	committed *memData
}

type memData struct {
	nextID    int64
	employees map[int64]domain.Employee
	otps      map[int64]domain.OTPToken
}

func newMemStore() *memStore {
	return &memStore{committed: &memData{
		employees: map[int64]domain.Employee{},
		otps:      map[int64]domain.OTPToken{},
	}}
}

func (s *memStore) WithTx(_ context.Context, fn func(domain.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memData{
		nextID:    s.committed.nextID,
		employees: maps.Clone(s.committed.employees),
		otps:      maps.Clone(s.committed.otps),
	}
	if err := fn(domain.Repos{Employees: memEmployees{tx}, OTPs: memOTPs{tx}}); err != nil {
		return err
	}
	s.committed = tx
	return nil
}

func (s *memStore) byEmail(email string) (domain.Employee, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.committed.employees {
		if e.Email == email {
			return e, true
		}
	}
	return domain.Employee{}, false
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.committed.employees)
}

type memEmployees struct{ d *memData }

func (r memEmployees) List(context.Context) ([]domain.Employee, error) {
	out := make([]domain.Employee, 0, len(r.d.employees))
	for _, e := range r.d.employees {
		out = append(out, e)
	}
	return out, nil
}

func (r memEmployees) GetByID(_ context.Context, id int64) (*domain.Employee, error) {
	e, ok := r.d.employees[id]
	if !ok {
		return nil, fmt.Errorf("employee %d: %w", id, domain.ErrNotFound)
	}
	return &e, nil
}

func (r memEmployees) GetByEmail(_ context.Context, email string) (*domain.Employee, error) {
	for _, e := range r.d.employees {
		if e.Email == email {
			return &e, nil
		}
	}
	return nil, fmt.Errorf("employee %s: %w", email, domain.ErrNotFound)
}

func (r memEmployees) EmailTaken(_ context.Context, email string, exceptID int64) (bool, error) {
	for _, e := range r.d.employees {
		if e.Email == email && e.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (r memEmployees) Create(ctx context.Context, e *domain.Employee) error {
	if taken, _ := r.EmailTaken(ctx, e.Email, 0); taken {
		return domain.ErrDuplicateEmail
	}
	r.d.nextID++
	e.ID = r.d.nextID
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	r.d.employees[e.ID] = *e
	return nil
}

func (r memEmployees) Update(_ context.Context, e *domain.Employee) error {
	if _, ok := r.d.employees[e.ID]; !ok {
		return domain.ErrNotFound
	}
	r.d.employees[e.ID] = *e
	return nil
}

func (r memEmployees) UpdatePassword(_ context.Context, id int64, digest string) error {
	e, ok := r.d.employees[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Password = digest
	r.d.employees[id] = e
	return nil
}

func (r memEmployees) MarkVerified(_ context.Context, id int64) (*domain.Employee, error) {
	e, ok := r.d.employees[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.IsVerified = true
	r.d.employees[id] = e
	return &e, nil
}

func (r memEmployees) Delete(_ context.Context, id int64) (*domain.Employee, error) {
	e, ok := r.d.employees[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(r.d.employees, id)
	delete(r.d.otps, id)
	return &e, nil
}

type memOTPs struct{ d *memData }

func (r memOTPs) Replace(_ context.Context, t *domain.OTPToken) error {
	r.d.otps[t.EmployeeID] = *t
	return nil
}

func (r memOTPs) Consume(_ context.Context, employeeID int64, code string, now time.Time) (bool, error) {
	t, ok := r.d.otps[employeeID]
	if !ok || t.Code != code || t.ExpiresAt.Before(now) {
		return false, nil
	}
	delete(r.d.otps, employeeID)
	return true, nil
}

// captureNotifier records every mail and fails with err when set.
type captureNotifier struct {
	mu   sync.Mutex
	sent []domain.Mail
	err  error
}

func (n *captureNotifier) Send(_ context.Context, m domain.Mail) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, m)
	return nil
}

func (n *captureNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// codeSequence hands out predictable codes and remembers the last one.
type codeSequence struct {
	mu   sync.Mutex
	n    int
	last string
}

func (c *codeSequence) Next() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	c.last = fmt.Sprintf("%06d", 100000+c.n)
	return c.last, nil
}

func (c *codeSequence) Last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

type countingEvents struct {
	mu     sync.Mutex
	counts map[string]int
}

func (e *countingEvents) RecordAuthEvent(event, outcome string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.counts == nil {
		e.counts = map[string]int{}
	}
	e.counts[event+"/"+outcome]++
}

func (e *countingEvents) get(key string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counts[key]
}
