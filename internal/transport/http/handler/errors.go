package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-employee-api/internal/domain"
	"github.com/go-employee-api/internal/pkg/errutil"
)

var errorStatus = []struct {
	target error
	status int
}{
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrDuplicateEmail, http.StatusConflict},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized},
	{domain.ErrIncorrectOldPassword, http.StatusUnauthorized},
	{domain.ErrInvalidOrExpiredOTP, http.StatusUnauthorized},
	{domain.ErrUnauthorized, http.StatusUnauthorized},
	{domain.ErrTokenExpired, http.StatusUnauthorized},
	{domain.ErrTokenInvalid, http.StatusUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrBadRequest, http.StatusBadRequest},
	{domain.ErrSessionStoreUnavailable, http.StatusServiceUnavailable},
	{domain.ErrStorageUnavailable, http.StatusServiceUnavailable},
	{domain.ErrNotificationFailed, http.StatusServiceUnavailable},
}

// httpError maps domain sentinels to a status code. Infrastructure detail never
// reaches the client: the body carries the sentinel text only.
func httpError(w http.ResponseWriter, err error) {
	for _, m := range errorStatus {
		if errors.Is(err, m.target) {
			if m.status >= http.StatusInternalServerError {
				errutil.LogError(slog.Default(), "dependency unavailable", err)
			}
			writeError(w, m.status, m.target.Error())
			return
		}
	}
	errutil.LogError(slog.Default(), "unhandled error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
