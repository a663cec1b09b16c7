package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-registry/internal/domain/entity"
	"github.com/oksasatya/go-user-registry/internal/domain/repository"
)

var cols = []string{"id", "name", "email", "cpf", "age", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return NewUserRepository(mock), mock
}

func strPtr(s string) *string { return &s }

func TestCreateAssignsID(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("Franciele Ferreira", "email@example.com", "897.408.970-02", 25).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), now, now))

	u := &entity.User{Name: "Franciele Ferreira", Email: "email@example.com", CPF: "897.408.970-02", Age: 25}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, now, u.CreatedAt)
}

func TestCreateTranslatesUniqueViolations(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{cpfConstraint, repository.ErrDuplicateCPF},
		{emailConstraint, repository.ErrDuplicateEmail},
	}
	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectQuery(`INSERT INTO users`).
				WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
				WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: tt.constraint})

			err := repo.Create(context.Background(), &entity.User{Name: "a", Email: "a@b.co", CPF: "897.408.970-02", Age: 20})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + userColumns + ` FROM users WHERE id = $1`)).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(int64(1), "Maria", "maria@email.com", "791.756.260-39", 32, now, now))

	u, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, &entity.User{ID: 1, Name: "Maria", Email: "maria@email.com", CPF: "791.756.260-39", Age: 32, CreatedAt: now, UpdatedAt: now}, u)
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`FROM users WHERE id`).WithArgs(int64(99)).WillReturnError(pgx.ErrNoRows)

	u, err := repo.GetByID(context.Background(), 99)
	assert.Nil(t, u)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdate(t *testing.T) {
	repo, mock := newMockRepo(t)
	u := &entity.User{ID: 3, Name: "João", Email: "joao@email.com", CPF: "557.593.080-76", Age: 61}

	mock.ExpectExec(`UPDATE users`).
		WithArgs("João", "joao@email.com", "557.593.080-76", 61, pgxmock.AnyArg(), int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, repo.Update(context.Background(), u))
	assert.False(t, u.UpdatedAt.IsZero())

	mock.ExpectExec(`UPDATE users`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, repo.Update(context.Background(), u), repository.ErrNotFound)

	mock.ExpectExec(`UPDATE users`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), int64(3)).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: emailConstraint})
	assert.ErrorIs(t, repo.Update(context.Background(), u), repository.ErrDuplicateEmail)
}

func TestDelete(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`DELETE FROM users`).WithArgs(int64(5)).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, repo.Delete(context.Background(), 5))

	mock.ExpectExec(`DELETE FROM users`).WithArgs(int64(5)).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), 5), repository.ErrNotFound)
}

func TestExistsByCPFComparesDigits(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`cpf_digits = \$1`).
		WithArgs("89740897002").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.ExistsByCPF(context.Background(), "897.408.970-02")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExistsByEmail(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`lower\(email\) = lower\(\$1\)`).
		WithArgs("Email@Example.com").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := repo.ExistsByEmail(context.Background(), "Email@Example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBuildFindQuery(t *testing.T) {
	q, args := buildFindQuery(entity.UserFilter{})
	assert.Equal(t, "SELECT "+userColumns+" FROM users ORDER BY id", q)
	assert.Empty(t, args)

	age := 30
	q, args = buildFindQuery(entity.UserFilter{Name: strPtr("ana"), CPF: strPtr("100%_"), Age: &age})
	assert.Equal(t,
		"SELECT "+userColumns+" FROM users WHERE name ILIKE '%' || $1 || '%' AND cpf ILIKE '%' || $2 || '%' AND age = $3 ORDER BY id",
		q)
	assert.Equal(t, []any{"ana", `100\%\_`, 30}, args)
}

func TestFind(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()
	filter := entity.UserFilter{Email: strPtr("EMAIL.COM")}
	q, _ := buildFindQuery(filter)

	mock.ExpectQuery(regexp.QuoteMeta(q)).
		WithArgs("EMAIL.COM").
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(int64(1), "José Firmino", "jose@email.com", "565.378.540-75", 54, now, now).
			AddRow(int64(2), "Maria Aparecida", "maria@email.com", "791.756.260-39", 32, now, now))

	users, err := repo.Find(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "José Firmino", users[0].Name)
	assert.Equal(t, int64(2), users[1].ID)
}

func TestFindNoRowsReturnsEmptySlice(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT`).WillReturnRows(pgxmock.NewRows(cols))

	users, err := repo.Find(context.Background(), entity.UserFilter{})
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestCount(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM users`).WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(5)))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}
