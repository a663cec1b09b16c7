package application

import (
	"context"
	"fmt"

	"github.com/oksasatya/go-user-registry/internal/domain/entity"
)

// DefaultUsers are inserted by SeedDefaults into an empty store.
func DefaultUsers() []entity.User {
	return []entity.User{
		{Name: "José Firmino", Email: "jose@email.com", CPF: "565.378.540-75", Age: 54},
		{Name: "Maria Aparecida", Email: "maria@email.com", CPF: "791.756.260-39", Age: 32},
		{Name: "João Vicente", Email: "joao@email.com", CPF: "557.593.080-76", Age: 60},
		{Name: "Francisco Joaquim", Email: "francisco@email.com", CPF: "242.959.900-78", Age: 22},
		{Name: "Juliana Silba", Email: "juliana@email.com", CPF: "646.426.730-24", Age: 54},
	}
}

// SeedDefaults inserts DefaultUsers when the store holds no user and returns how many were inserted.
func (s *Service) SeedDefaults(ctx context.Context) (int, error) {
	n, err := s.Repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		s.Logger.WithField("count", n).Info("users already seeded")
		return 0, nil
	}
	inserted := 0
	for _, u := range DefaultUsers() {
		u := u
		if _, err := s.Create(ctx, &u); err != nil {
			return inserted, fmt.Errorf("seed %s: %w", u.Email, err)
		}
		inserted++
	}
	s.Logger.WithField("count", inserted).Info("initial users inserted")
	return inserted, nil
}
