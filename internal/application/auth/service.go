package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-employee-api/internal/application/otp"
	"github.com/go-employee-api/internal/application/token"
	"github.com/go-employee-api/internal/domain"
)

// Event names recorded for every orchestrator operation.
const (
	EventRegister       = "register"
	EventLogin          = "login"
	EventLogout         = "logout"
	EventForgotPassword = "forgot_password"
	EventResendOTP      = "resend_otp"
	EventVerifyOTP      = "verify_otp"
	EventVerifyAccount  = "verify_account"
	EventResetPassword  = "reset_password"
	EventChangePassword = "change_password"
	EventAuthorize      = "authorize"
)

// Service drives the account state machine: Unverified -> Verified, and
// LoggedOut <-> LoggedIn where LoggedIn means the registry holds exactly one live token.
type Service interface {
	Register(ctx context.Context, req domain.CreateEmployeeRequest) (*domain.Employee, error)
	Login(ctx context.Context, req domain.LoginRequest) (*domain.Employee, string, error)
	Logout(ctx context.Context, p domain.Principal) error
	ForgotPassword(ctx context.Context, email string) error
	ResendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) (string, error)
	VerifyAccount(ctx context.Context, req domain.VerifyOTPRequest) (*domain.Employee, string, error)
	// ResetPassword requires the session obtained from VerifyOTP.
	ResetPassword(ctx context.Context, p domain.Principal, newPassword string) (string, error)
	ChangePassword(ctx context.Context, p domain.Principal, oldPassword, newPassword string) (string, error)
	// Authorize is the gate for every session-bound operation.
	Authorize(ctx context.Context, token string) (domain.Principal, error)
}

type passwordCodec interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) (bool, error)
}

// Outcome labels passed to RecordAuthEvent.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

type eventRecorder interface {
	RecordAuthEvent(event, outcome string)
}

type ServiceDeps struct {
	UnitOfWork domain.UnitOfWork
	Sessions   domain.SessionRegistry
	Tokens     token.Service
	OTPs       otp.Service
	Passwords  passwordCodec
	Events     eventRecorder
}

type service struct {
	uow       domain.UnitOfWork
	sessions  domain.SessionRegistry
	tokens    token.Service
	otps      otp.Service
	passwords passwordCodec
	events    eventRecorder
}

func NewService(deps ServiceDeps) Service {
	return &service{
		uow:       deps.UnitOfWork,
		sessions:  deps.Sessions,
		tokens:    deps.Tokens,
		otps:      deps.OTPs,
		passwords: deps.Passwords,
		events:    deps.Events,
	}
}

func (s *service) Register(ctx context.Context, req domain.CreateEmployeeRequest) (e *domain.Employee, err error) {
	defer func() { s.record(EventRegister, err) }()

	digest, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	e = &domain.Employee{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  digest,
	}
	err = s.uow.WithTx(ctx, func(r domain.Repos) error {
		taken, err := r.Employees.EmailTaken(ctx, req.Email, 0)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("employee already exists with this email: %w", domain.ErrDuplicateEmail)
		}
		if err := r.Employees.Create(ctx, e); err != nil {
			return err
		}
		return s.otps.Issue(ctx, r.OTPs, e, otp.PurposeVerifyAccount)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Login admits unverified accounts; callers tell them apart through IsVerified.
func (s *service) Login(ctx context.Context, req domain.LoginRequest) (e *domain.Employee, tok string, err error) {
	defer func() { s.record(EventLogin, err) }()

	err = s.uow.WithTx(ctx, func(r domain.Repos) error {
		e, err = r.Employees.GetByEmail(ctx, req.Email)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	ok, err := s.passwords.Verify(req.Password, e.Password)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", fmt.Errorf("password does not match: %w", domain.ErrInvalidCredentials)
	}
	tok, err = s.tokens.Issue(ctx, e.ID)
	if err != nil {
		return nil, "", err
	}
	return e, tok, nil
}

func (s *service) Logout(ctx context.Context, p domain.Principal) (err error) {
	defer func() { s.record(EventLogout, err) }()
	return s.sessions.Revoke(ctx, p.Token, p.EmployeeID)
}

func (s *service) ForgotPassword(ctx context.Context, email string) (err error) {
	defer func() { s.record(EventForgotPassword, err) }()
	return s.issueOTP(ctx, email, otp.PurposeResetPassword)
}

func (s *service) ResendOTP(ctx context.Context, email string) (err error) {
	defer func() { s.record(EventResendOTP, err) }()
	return s.issueOTP(ctx, email, otp.PurposeResend)
}

func (s *service) issueOTP(ctx context.Context, email string, purpose otp.Purpose) error {
	return s.uow.WithTx(ctx, func(r domain.Repos) error {
		e, err := r.Employees.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		return s.otps.Issue(ctx, r.OTPs, e, purpose)
	})
}

func (s *service) VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) (tok string, err error) {
	defer func() { s.record(EventVerifyOTP, err) }()

	var employeeID int64
	err = s.uow.WithTx(ctx, func(r domain.Repos) error {
		e, err := s.consumeOTP(ctx, r, req)
		if err != nil {
			return err
		}
		employeeID = e.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return s.tokens.Issue(ctx, employeeID)
}

func (s *service) VerifyAccount(ctx context.Context, req domain.VerifyOTPRequest) (e *domain.Employee, tok string, err error) {
	defer func() { s.record(EventVerifyAccount, err) }()

	err = s.uow.WithTx(ctx, func(r domain.Repos) error {
		found, err := s.consumeOTP(ctx, r, req)
		if err != nil {
			return err
		}
		e, err = r.Employees.MarkVerified(ctx, found.ID)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	tok, err = s.tokens.Issue(ctx, e.ID)
	if err != nil {
		return nil, "", err
	}
	return e, tok, nil
}

// consumeOTP runs inside the caller's transaction so the delete commits with the
// rest of the operation.
func (s *service) consumeOTP(ctx context.Context, r domain.Repos, req domain.VerifyOTPRequest) (*domain.Employee, error) {
	e, err := r.Employees.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	ok, err := s.otps.Consume(ctx, r.OTPs, e.ID, req.OTP)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("otp rejected: %w", domain.ErrInvalidOrExpiredOTP)
	}
	return e, nil
}

func (s *service) ResetPassword(ctx context.Context, p domain.Principal, newPassword string) (tok string, err error) {
	defer func() { s.record(EventResetPassword, err) }()

	digest, err := s.passwords.Hash(newPassword)
	if err != nil {
		return "", err
	}
	err = s.uow.WithTx(ctx, func(r domain.Repos) error {
		return r.Employees.UpdatePassword(ctx, p.EmployeeID, digest)
	})
	if err != nil {
		return "", err
	}
	return s.rotate(ctx, p)
}

func (s *service) ChangePassword(ctx context.Context, p domain.Principal, oldPassword, newPassword string) (tok string, err error) {
	defer func() { s.record(EventChangePassword, err) }()

	digest, err := s.passwords.Hash(newPassword)
	if err != nil {
		return "", err
	}
	err = s.uow.WithTx(ctx, func(r domain.Repos) error {
		e, err := r.Employees.GetByID(ctx, p.EmployeeID)
		if err != nil {
			return err
		}
		ok, err := s.passwords.Verify(oldPassword, e.Password)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("old password does not match: %w", domain.ErrIncorrectOldPassword)
		}
		return r.Employees.UpdatePassword(ctx, e.ID, digest)
	})
	if err != nil {
		return "", err
	}
	return s.rotate(ctx, p)
}

// rotate revokes the presented token and issues a fresh one. It runs after the
// password commit; a failure here leaves the old token valid until it expires.
func (s *service) rotate(ctx context.Context, p domain.Principal) (string, error) {
	if err := s.sessions.Revoke(ctx, p.Token, p.EmployeeID); err != nil {
		slog.Warn("password updated but session revoke failed", "employee_id", p.EmployeeID, "err", err)
		return "", err
	}
	return s.tokens.Issue(ctx, p.EmployeeID)
}

func (s *service) Authorize(ctx context.Context, tok string) (p domain.Principal, err error) {
	defer func() { s.record(EventAuthorize, err) }()

	if tok == "" {
		return domain.Principal{}, fmt.Errorf("missing token: %w", domain.ErrUnauthorized)
	}
	employeeID, err := s.tokens.Verify(tok)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	blacklisted, err := s.sessions.IsBlacklisted(ctx, tok)
	if err != nil {
		return domain.Principal{}, err
	}
	if blacklisted {
		return domain.Principal{}, fmt.Errorf("token revoked: %w", domain.ErrUnauthorized)
	}
	active, err := s.sessions.IsActive(ctx, employeeID, tok)
	if err != nil {
		return domain.Principal{}, err
	}
	if !active {
		return domain.Principal{}, fmt.Errorf("session superseded: %w", domain.ErrUnauthorized)
	}
	return domain.Principal{EmployeeID: employeeID, Token: tok}, nil
}

func (s *service) record(event string, err error) {
	if s.events == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	s.events.RecordAuthEvent(event, outcome)
}
