package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-registry/internal/domain/entity"
	repo "github.com/oksasatya/go-user-registry/internal/domain/repository"
	"github.com/oksasatya/go-user-registry/pkg/cpf"
)

type Service struct {
	Repo   repo.UserRepository
	Events EventPublisher
	Logger *logrus.Logger
}

// NewService wires the user service. events and logger may be nil.
func NewService(repo repo.UserRepository, events EventPublisher, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Service{Repo: repo, Events: events, Logger: logger}
}

// UserInput is a replace or patch payload. Nil fields keep the stored value.
type UserInput struct {
	Name  *string
	Email *string
	CPF   *string
	Age   *int
}

// Create stores a new user. cpf and email must both be unused.
func (s *Service) Create(ctx context.Context, u *entity.User) (*entity.User, error) {
	if err := s.ensureCPFAvailable(ctx, u.CPF); err != nil {
		return nil, err
	}
	if err := s.ensureEmailAvailable(ctx, u.Email); err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, s.storeErr("create user", err)
	}
	s.Logger.WithField("user_id", u.ID).WithField("cpf", u.CPF).Info("user created")
	s.publish(ctx, EventUserCreated, u)
	return u, nil
}

// FindByID reports found=false, without error, when no user has the id.
func (s *Service) FindByID(ctx context.Context, id int64) (*entity.User, bool, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, true, nil
}

// Delete removes u. The caller is expected to have looked it up first; a user
// removed in between yields repository.ErrNotFound.
func (s *Service) Delete(ctx context.Context, u *entity.User) error {
	if err := s.Repo.Delete(ctx, u.ID); err != nil {
		return fmt.Errorf("delete user %d: %w", u.ID, err)
	}
	s.Logger.WithField("user_id", u.ID).Info("user deleted")
	s.publish(ctx, EventUserDeleted, u)
	return nil
}

// Update overlays the non-nil fields of in onto existing, validates the
// result and saves it.
func (s *Service) Update(ctx context.Context, in UserInput, existing *entity.User) (*entity.User, error) {
	if err := s.ensureChangesAvailable(ctx, in, existing); err != nil {
		return nil, err
	}
	merged := overlay(*existing, in)
	if err := ValidateUser(&merged); err != nil {
		return nil, err
	}
	if err := s.Repo.Update(ctx, &merged); err != nil {
		return nil, s.storeErr("update user", err)
	}
	s.Logger.WithField("user_id", merged.ID).Info("user updated")
	s.publish(ctx, EventUserUpdated, &merged)
	return &merged, nil
}

// Replace is Update for a full payload already validated at the boundary.
func (s *Service) Replace(ctx context.Context, in UserInput, existing *entity.User) (*entity.User, error) {
	if err := s.ensureChangesAvailable(ctx, in, existing); err != nil {
		return nil, err
	}
	merged := overlay(*existing, in)
	if err := s.Repo.Update(ctx, &merged); err != nil {
		return nil, s.storeErr("replace user", err)
	}
	s.Logger.WithField("user_id", merged.ID).Info("user replaced")
	s.publish(ctx, EventUserUpdated, &merged)
	return &merged, nil
}

// Find returns every user matching the filter, ordered by id.
func (s *Service) Find(ctx context.Context, filter entity.UserFilter) ([]*entity.User, error) {
	users, err := s.Repo.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	return users, nil
}

// ensureChangesAvailable checks uniqueness only for values that actually change.
// A cpf that differs in punctuation alone, or an email that differs in case alone, is not a change.
func (s *Service) ensureChangesAvailable(ctx context.Context, in UserInput, existing *entity.User) error {
	if in.CPF != nil && cpf.Digits(*in.CPF) != cpf.Digits(existing.CPF) {
		if err := s.ensureCPFAvailable(ctx, *in.CPF); err != nil {
			return err
		}
	}
	if in.Email != nil && !strings.EqualFold(*in.Email, existing.Email) {
		if err := s.ensureEmailAvailable(ctx, *in.Email); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) ensureCPFAvailable(ctx context.Context, value string) error {
	exists, err := s.Repo.ExistsByCPF(ctx, value)
	if err != nil {
		return fmt.Errorf("check cpf: %w", err)
	}
	if exists {
		s.Logger.WithField("cpf", value).Error("a user with the informed cpf already exists")
		return ErrCPFAlreadyExists
	}
	return nil
}

func (s *Service) ensureEmailAvailable(ctx context.Context, email string) error {
	exists, err := s.Repo.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if exists {
		s.Logger.WithField("email", email).Error("a user with the informed email already exists")
		return ErrEmailAlreadyExists
	}
	return nil
}

// storeErr maps constraint violations reported by the store, e.g. after a
// lost race between the existence check and the write.
func (s *Service) storeErr(op string, err error) error {
	switch {
	case errors.Is(err, repo.ErrDuplicateCPF):
		return ErrCPFAlreadyExists
	case errors.Is(err, repo.ErrDuplicateEmail):
		return ErrEmailAlreadyExists
	}
	return fmt.Errorf("%s: %w", op, err)
}

func overlay(u entity.User, in UserInput) entity.User {
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.CPF != nil {
		u.CPF = *in.CPF
	}
	if in.Age != nil {
		u.Age = *in.Age
	}
	return u
}
