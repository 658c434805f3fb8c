package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-employee-api/internal/domain"
	"github.com/go-employee-api/internal/pkg/validate"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuthEnvelope wraps every response that hands out a token.
type AuthEnvelope struct {
	Bearer   string           `json:"Bearer,omitempty"`
	Employee *domain.Employee `json:"employee,omitempty"`
	Message  string           `json:"message,omitempty"`
}

// EmployeeEnvelope wraps single-employee responses.
type EmployeeEnvelope struct {
	Employee *domain.Employee `json:"employee"`
	Message  string           `json:"message,omitempty"`
}

// EmployeesEnvelope wraps list responses.
type EmployeesEnvelope struct {
	Data []domain.Employee `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// decodeBody reads a JSON body into dst and runs the validate tags.
// It writes the 400/422 response itself and returns false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}
