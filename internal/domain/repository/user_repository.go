package repository

//go:generate mockgen -source=user_repository.go -destination=mocks/mocks.go -package=mocks UserRepository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-user-registry/internal/domain/entity"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateCPF   = errors.New("duplicate cpf")
	ErrDuplicateEmail = errors.New("duplicate email")
)

// UserRepository defines the interface for user-related storage operations.
//
// Create, Update report ErrDuplicateCPF / ErrDuplicateEmail when the store's own
// uniqueness constraints reject the write. GetByID, Update and Delete report
// ErrNotFound for unknown ids.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id int64) error
	ExistsByCPF(ctx context.Context, cpf string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Find(ctx context.Context, filter entity.UserFilter) ([]*entity.User, error)
	Count(ctx context.Context) (int64, error)
}
