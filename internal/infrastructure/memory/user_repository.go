// Package memory keeps users in process memory. It mirrors the PostgreSQL
// repository, unique indexes included, and backs STORE_DRIVER=memory and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oksasatya/go-user-registry/internal/domain/entity"
	"github.com/oksasatya/go-user-registry/internal/domain/repository"
	"github.com/oksasatya/go-user-registry/pkg/cpf"
)

type UserRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]entity.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[int64]entity.User)}
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUnique(u, 0); err != nil {
		return err
	}
	r.nextID++
	now := time.Now()
	u.ID = r.nextID
	u.CreatedAt = now
	u.UpdatedAt = now
	r.users[u.ID] = *u
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.checkUnique(u, u.ID); err != nil {
		return err
	}
	u.CreatedAt = current.CreatedAt
	u.UpdatedAt = time.Now()
	r.users[u.ID] = *u
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *UserRepository) ExistsByCPF(_ context.Context, value string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	digits := cpf.Digits(value)
	for _, u := range r.users {
		if cpf.Digits(u.CPF) == digits {
			return true, nil
		}
	}
	return false, nil
}

func (r *UserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *UserRepository) Find(_ context.Context, filter entity.UserFilter) ([]*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.User, 0, len(r.users))
	for _, u := range r.users {
		if matches(u, filter) {
			u := u
			out = append(out, &u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *UserRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

// checkUnique must be called with the write lock held. self is skipped so a
// record can be saved with its own cpf and email.
func (r *UserRepository) checkUnique(u *entity.User, self int64) error {
	digits := cpf.Digits(u.CPF)
	for id, other := range r.users {
		if id == self {
			continue
		}
		if cpf.Digits(other.CPF) == digits {
			return repository.ErrDuplicateCPF
		}
		if strings.EqualFold(other.Email, u.Email) {
			return repository.ErrDuplicateEmail
		}
	}
	return nil
}

func matches(u entity.User, f entity.UserFilter) bool {
	return containsFold(u.Name, f.Name) &&
		containsFold(u.Email, f.Email) &&
		containsFold(u.CPF, f.CPF) &&
		(f.Age == nil || *f.Age == u.Age)
}

func containsFold(s string, sub *string) bool {
	if sub == nil {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(*sub))
}

var _ repository.UserRepository = (*UserRepository)(nil)
