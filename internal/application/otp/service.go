package otp

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/go-employee-api/internal/domain"
	"github.com/go-employee-api/internal/pkg/otpcode"
)

// Purpose selects the wording of the OTP email.
type Purpose int

const (
	PurposeVerifyAccount Purpose = iota
	PurposeResetPassword
	PurposeResend
)

var purposes = map[Purpose]struct{ subject, intro string }{
	PurposeVerifyAccount: {"Verify your account", "Use this code to verify your account:"},
	PurposeResetPassword: {"Password reset code", "Use this code to reset your password:"},
	PurposeResend:        {"Your new one-time code", "Here is your new one-time code:"},
}

// DefaultMailTemplate is executed with MailParams.
const DefaultMailTemplate = `Hi {{.FirstName}},

{{.Intro}}

{{.Code}}

The code is valid for {{printf "%.f" .Expiry.Minutes}} minutes.

If you did not request this code, you can ignore this email.
`

var mailTemplate = template.Must(template.New("otp").Parse(DefaultMailTemplate))

// MailParams is passed as data when executing the mail template.
type MailParams struct {
	FirstName string
	Intro     string
	Code      string
	Expiry    time.Duration
}

type Service interface {
	// Issue replaces the employee's code and mails the new one. A dispatch
	// failure is returned so the enclosing transaction rolls the row back.
	Issue(ctx context.Context, repo domain.OTPRepository, e *domain.Employee, purpose Purpose) error
	// Consume reports whether code was live and removes it.
	Consume(ctx context.Context, repo domain.OTPRepository, employeeID int64, code string) (bool, error)
}

type ServiceDeps struct {
	Notifier domain.Notifier
	Expiry   time.Duration
	Now      func() time.Time
	Generate func() (string, error)
}

type service struct {
	notifier domain.Notifier
	expiry   time.Duration
	now      func() time.Time
	generate func() (string, error)
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		notifier: deps.Notifier,
		expiry:   deps.Expiry,
		now:      deps.Now,
		generate: deps.Generate,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.generate == nil {
		s.generate = otpcode.New
	}
	return s
}

func (s *service) Issue(ctx context.Context, repo domain.OTPRepository, e *domain.Employee, purpose Purpose) error {
	code, err := s.generate()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	if err := repo.Replace(ctx, &domain.OTPToken{
		EmployeeID: e.ID,
		Code:       code,
		ExpiresAt:  s.now().Add(s.expiry),
	}); err != nil {
		return err
	}

	mail, err := s.render(e, code, purpose)
	if err != nil {
		return err
	}
	return s.notifier.Send(ctx, mail)
}

func (s *service) Consume(ctx context.Context, repo domain.OTPRepository, employeeID int64, code string) (bool, error) {
	return repo.Consume(ctx, employeeID, code, s.now())
}

func (s *service) render(e *domain.Employee, code string, purpose Purpose) (domain.Mail, error) {
	p, ok := purposes[purpose]
	if !ok {
		p = purposes[PurposeResend]
	}
	var body bytes.Buffer
	if err := mailTemplate.Execute(&body, MailParams{
		FirstName: e.FirstName,
		Intro:     p.intro,
		Code:      code,
		Expiry:    s.expiry,
	}); err != nil {
		return domain.Mail{}, fmt.Errorf("render otp mail: %w", err)
	}
	return domain.Mail{To: e.Email, Subject: p.subject, Message: body.String()}, nil
}
