package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-employee-api/internal/domain"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var employeeCols = []string{"id", "first_name", "last_name", "email", "password", "is_verified", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*EmployeeRepo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)
	return NewEmployeeRepo(mock), mock
}

func TestEmployeeRepo_List(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantLen   int
		wantErr   error
	}{
		{
			name: "returns all rows ordered by id",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(employeeCols).
					AddRow(int64(1), "Ada", "Lovelace", "ada@x.io", "h1", true, now, now).
					AddRow(int64(2), "Alan", "Turing", "alan@x.io", "h2", false, now, now)
				mock.ExpectQuery(`FROM employee ORDER BY id`).WillReturnRows(rows)
			},
			wantLen: 2,
		},
		{
			name: "empty table yields empty slice",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM employee ORDER BY id`).WillReturnRows(pgxmock.NewRows(employeeCols))
			},
			wantLen: 0,
		},
		{
			name: "driver error is a storage outage",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM employee ORDER BY id`).WillReturnError(errors.New("connection refused"))
			},
			wantErr: domain.ErrStorageUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			tt.setupMock(mock)

			got, err := repo.List(context.Background())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, got)
				assert.Len(t, got, tt.wantLen)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEmployeeRepo_GetByID(t *testing.T) {
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`FROM employee WHERE id = \$1`).
			WithArgs(int64(7)).
			WillReturnRows(pgxmock.NewRows(employeeCols).
				AddRow(int64(7), "Ada", "Lovelace", "ada@x.io", "h", false, now, now))

		e, err := repo.GetByID(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, int64(7), e.ID)
		assert.Equal(t, "ada@x.io", e.Email)
		assert.Equal(t, "h", e.Password)
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`FROM employee WHERE id = \$1`).
			WithArgs(int64(8)).
			WillReturnRows(pgxmock.NewRows(employeeCols))

		_, err := repo.GetByID(context.Background(), 8)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestEmployeeRepo_GetByEmail_Missing(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`FROM employee WHERE email = \$1`).
		WithArgs("nobody@x.io").
		WillReturnRows(pgxmock.NewRows(employeeCols))

	_, err := repo.GetByEmail(context.Background(), "nobody@x.io")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEmployeeRepo_EmailTaken(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("ada@x.io", int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.EmailTaken(context.Background(), "ada@x.io", 3)
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestEmployeeRepo_Create(t *testing.T) {
	now := time.Now()

	t.Run("assigns id and timestamps", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`INSERT INTO employee`).
			WithArgs("Ada", "Lovelace", "ada@x.io", "digest").
			WillReturnRows(pgxmock.NewRows([]string{"id", "is_verified", "created_at", "updated_at"}).
				AddRow(int64(11), false, now, now))

		e := &domain.Employee{FirstName: "Ada", LastName: "Lovelace", Email: "ada@x.io", Password: "digest"}
		require.NoError(t, repo.Create(context.Background(), e))
		assert.Equal(t, int64(11), e.ID)
		assert.False(t, e.IsVerified)
		assert.Equal(t, now, e.CreatedAt)
	})

	t.Run("unique violation is a duplicate email", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`INSERT INTO employee`).
			WithArgs("", "", "ada@x.io", "").
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		err := repo.Create(context.Background(), &domain.Employee{Email: "ada@x.io"})
		assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
		assert.NotErrorIs(t, err, domain.ErrStorageUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEmployeeRepo_Update(t *testing.T) {
	now := time.Now()

	t.Run("updates profile", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`UPDATE employee SET first_name`).
			WithArgs(int64(1), "Ada", "King", "ada@x.io").
			WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(now))

		e := &domain.Employee{ID: 1, FirstName: "Ada", LastName: "King", Email: "ada@x.io"}
		require.NoError(t, repo.Update(context.Background(), e))
		assert.Equal(t, now, e.UpdatedAt)
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`UPDATE employee SET first_name`).
			WithArgs(int64(9), "", "", "").
			WillReturnRows(pgxmock.NewRows([]string{"updated_at"}))

		err := repo.Update(context.Background(), &domain.Employee{ID: 9})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NotErrorIs(t, err, domain.ErrStorageUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEmployeeRepo_UpdatePassword_Missing(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(`UPDATE employee SET password`).
		WithArgs(int64(5), "digest").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdatePassword(context.Background(), 5, "digest")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEmployeeRepo_MarkVerified(t *testing.T) {
	now := time.Now()
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`UPDATE employee SET is_verified = TRUE`).
		WithArgs(int64(4)).
		WillReturnRows(pgxmock.NewRows(employeeCols).
			AddRow(int64(4), "Ada", "Lovelace", "ada@x.io", "h", true, now, now))

	e, err := repo.MarkVerified(context.Background(), 4)
	require.NoError(t, err)
	assert.True(t, e.IsVerified)
}

func TestEmployeeRepo_Delete(t *testing.T) {
	now := time.Now()

	t.Run("returns deleted row", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`DELETE FROM employee WHERE id = \$1 RETURNING`).
			WithArgs(int64(4)).
			WillReturnRows(pgxmock.NewRows(employeeCols).
				AddRow(int64(4), "Ada", "Lovelace", "ada@x.io", "h", true, now, now))

		e, err := repo.Delete(context.Background(), 4)
		require.NoError(t, err)
		assert.Equal(t, int64(4), e.ID)
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`DELETE FROM employee`).
			WithArgs(int64(4)).
			WillReturnRows(pgxmock.NewRows(employeeCols))

		_, err := repo.Delete(context.Background(), 4)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
