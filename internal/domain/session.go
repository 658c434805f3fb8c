package domain

// Principal is the identity behind an authorized access token.
type Principal struct {
	EmployeeID int64
	Token      string
}
