package domain

import "time"

// OTPToken is a credential-recovery code. At most one row exists per employee;
// expired rows linger until the next issuance overwrites them.
type OTPToken struct {
	EmployeeID int64     `json:"employee_id"`
	Code       string    `json:"code"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Mail is an outbound message handed to a Notifier.
type Mail struct {
	To      string
	Subject string
	Message string
}
