package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-employee-api/internal/domain"
	"github.com/go-employee-api/internal/transport/http/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockEmployeeSvc struct{ mock.Mock }

func (m *mockEmployeeSvc) List(ctx context.Context) ([]domain.Employee, error) {
	args := m.Called(ctx)
	es, _ := args.Get(0).([]domain.Employee)
	return es, args.Error(1)
}

func (m *mockEmployeeSvc) Get(ctx context.Context, id int64) (*domain.Employee, error) {
	args := m.Called(ctx, id)
	if e, _ := args.Get(0).(*domain.Employee); e != nil {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEmployeeSvc) Profile(ctx context.Context, p domain.Principal) (*domain.Employee, error) {
	args := m.Called(ctx, p)
	if e, _ := args.Get(0).(*domain.Employee); e != nil {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEmployeeSvc) Update(ctx context.Context, p domain.Principal, id int64, req domain.UpdateEmployeeRequest) (*domain.Employee, error) {
	args := m.Called(ctx, p, id, req)
	if e, _ := args.Get(0).(*domain.Employee); e != nil {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEmployeeSvc) Delete(ctx context.Context, p domain.Principal) (*domain.Employee, error) {
	args := m.Called(ctx, p)
	if e, _ := args.Get(0).(*domain.Employee); e != nil {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) Register(ctx context.Context, req domain.CreateEmployeeRequest) (*domain.Employee, error) {
	args := m.Called(ctx, req)
	if e, _ := args.Get(0).(*domain.Employee); e != nil {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthSvc) Login(ctx context.Context, req domain.LoginRequest) (*domain.Employee, string, error) {
	args := m.Called(ctx, req)
	if e, _ := args.Get(0).(*domain.Employee); e != nil {
		return e, args.String(1), args.Error(2)
	}
	return nil, "", args.Error(2)
}

func (m *mockAuthSvc) Logout(ctx context.Context, p domain.Principal) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockAuthSvc) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAuthSvc) ResendOTP(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAuthSvc) VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockAuthSvc) VerifyAccount(ctx context.Context, req domain.VerifyOTPRequest) (*domain.Employee, string, error) {
	args := m.Called(ctx, req)
	if e, _ := args.Get(0).(*domain.Employee); e != nil {
		return e, args.String(1), args.Error(2)
	}
	return nil, "", args.Error(2)
}

func (m *mockAuthSvc) ResetPassword(ctx context.Context, p domain.Principal, newPassword string) (string, error) {
	args := m.Called(ctx, p, newPassword)
	return args.String(0), args.Error(1)
}

func (m *mockAuthSvc) ChangePassword(ctx context.Context, p domain.Principal, oldPassword, newPassword string) (string, error) {
	args := m.Called(ctx, p, oldPassword, newPassword)
	return args.String(0), args.Error(1)
}

func (m *mockAuthSvc) Authorize(ctx context.Context, token string) (domain.Principal, error) {
	args := m.Called(ctx, token)
	p, _ := args.Get(0).(domain.Principal)
	return p, args.Error(1)
}

// --- helpers ---

var alice = domain.Principal{EmployeeID: 1, Token: "tok-1"}

// jsonReq builds a request whose body is v encoded as JSON; v == nil sends no body.
func jsonReq(t *testing.T, method, target string, v interface{}) *http.Request {
	t.Helper()
	if v == nil {
		return httptest.NewRequest(method, target, nil)
	}
	if s, ok := v.(string); ok {
		return httptest.NewRequest(method, target, bytes.NewBufferString(s))
	}
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return httptest.NewRequest(method, target, bytes.NewReader(body))
}

// asPrincipal injects p the way the auth middleware does.
func asPrincipal(r *http.Request, p domain.Principal) *http.Request {
	return r.WithContext(middleware.WithPrincipal(r.Context(), p))
}

// withChiParam injects a chi URL param into the request context.
func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v))
	return v
}
