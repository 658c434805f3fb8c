package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-employee-api/internal/application/employee"
	"github.com/go-employee-api/internal/domain"
	"github.com/go-employee-api/internal/transport/http/middleware"
)

// EmployeeHandler handles employee CRUD endpoints. Every route sits behind the auth gate.
type EmployeeHandler struct {
	svc employee.Service
}

func NewEmployeeHandler(svc employee.Service) *EmployeeHandler { return &EmployeeHandler{svc: svc} }

func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	employees, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EmployeesEnvelope{Data: employees})
}

func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := employeeID(w, r)
	if !ok {
		return
	}
	e, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EmployeeEnvelope{Employee: e})
}

func (h *EmployeeHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	e, err := h.svc.Profile(r.Context(), p)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EmployeeEnvelope{Employee: e})
}

func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := employeeID(w, r)
	if !ok {
		return
	}
	var req domain.UpdateEmployeeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	e, err := h.svc.Update(r.Context(), p, id, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EmployeeEnvelope{Employee: e, Message: "employee updated"})
}

func (h *EmployeeHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	e, err := h.svc.Delete(r.Context(), p)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EmployeeEnvelope{Employee: e, Message: "employee deleted"})
}

func employeeID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid employee id")
		return 0, false
	}
	return id, true
}

func principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
	}
	return p, ok
}
