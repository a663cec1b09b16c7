package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/oksasatya/go-user-registry/internal/domain/entity"
	"github.com/oksasatya/go-user-registry/internal/domain/repository"
	"github.com/oksasatya/go-user-registry/internal/domain/repository/mocks"
)

type recordingPublisher struct {
	events []UserEvent
	err    error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, body any) error {
	if e, ok := body.(UserEvent); ok {
		p.events = append(p.events, e)
	}
	return p.err
}

type UserServiceSuite struct {
	suite.Suite
	ctx       context.Context
	ctrl      *gomock.Controller
	repo      *mocks.MockUserRepository
	publisher *recordingPublisher
	service   *Service
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.repo = mocks.NewMockUserRepository(s.ctrl)
	s.publisher = &recordingPublisher{}
	s.service = NewService(s.repo, s.publisher, nil)
}

func (s *UserServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func newUser() *entity.User {
	return &entity.User{Name: "Franciele Ferreira", Email: "email@example.com", CPF: "897.408.970-02", Age: 25}
}

func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }

func (s *UserServiceSuite) TestCreate() {
	s.Run("persists and returns the stored user", func() {
		u := newUser()
		gomock.InOrder(
			s.repo.EXPECT().ExistsByCPF(gomock.Any(), u.CPF).Return(false, nil),
			s.repo.EXPECT().ExistsByEmail(gomock.Any(), u.Email).Return(false, nil),
			s.repo.EXPECT().Create(gomock.Any(), u).DoAndReturn(func(_ context.Context, u *entity.User) error {
				u.ID = 1
				return nil
			}),
		)

		got, err := s.service.Create(s.ctx, u)
		s.Require().NoError(err)
		s.Equal(int64(1), got.ID)
		s.Require().Len(s.publisher.events, 1)
		s.Equal(EventUserCreated, s.publisher.events[0].Type)
		s.Equal(int64(1), s.publisher.events[0].UserID)
	})

	s.Run("duplicate cpf is a conflict and nothing is persisted", func() {
		u := newUser()
		s.repo.EXPECT().ExistsByCPF(gomock.Any(), u.CPF).Return(true, nil)
		s.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

		_, err := s.service.Create(s.ctx, u)
		s.ErrorIs(err, ErrCPFAlreadyExists)
		var conflict *ConflictError
		s.Require().ErrorAs(err, &conflict)
		s.Equal("cpf", conflict.Field)
	})

	s.Run("duplicate email is checked by email", func() {
		u := newUser()
		s.repo.EXPECT().ExistsByCPF(gomock.Any(), u.CPF).Return(false, nil)
		s.repo.EXPECT().ExistsByEmail(gomock.Any(), "email@example.com").Return(true, nil)
		s.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

		_, err := s.service.Create(s.ctx, u)
		s.ErrorIs(err, ErrEmailAlreadyExists)
	})

	s.Run("store constraint violation is a conflict", func() {
		u := newUser()
		s.repo.EXPECT().ExistsByCPF(gomock.Any(), gomock.Any()).Return(false, nil)
		s.repo.EXPECT().ExistsByEmail(gomock.Any(), gomock.Any()).Return(false, nil)
		s.repo.EXPECT().Create(gomock.Any(), u).Return(repository.ErrDuplicateCPF)

		_, err := s.service.Create(s.ctx, u)
		s.ErrorIs(err, ErrCPFAlreadyExists)
	})

	s.Run("lookup failure is wrapped", func() {
		boom := errors.New("connection refused")
		s.repo.EXPECT().ExistsByCPF(gomock.Any(), gomock.Any()).Return(false, boom)

		_, err := s.service.Create(s.ctx, newUser())
		s.ErrorIs(err, boom)
		var conflict *ConflictError
		s.False(errors.As(err, &conflict))
	})
}

func (s *UserServiceSuite) TestCreateIgnoresPublishFailure() {
	s.publisher.err = errors.New("broker down")
	u := newUser()
	s.repo.EXPECT().ExistsByCPF(gomock.Any(), gomock.Any()).Return(false, nil)
	s.repo.EXPECT().ExistsByEmail(gomock.Any(), gomock.Any()).Return(false, nil)
	s.repo.EXPECT().Create(gomock.Any(), u).Return(nil)

	_, err := s.service.Create(s.ctx, u)
	s.NoError(err)
}

func (s *UserServiceSuite) TestFindByID() {
	s.Run("found", func() {
		u := newUser()
		u.ID = 4
		s.repo.EXPECT().GetByID(gomock.Any(), int64(4)).Return(u, nil)

		got, ok, err := s.service.FindByID(s.ctx, 4)
		s.Require().NoError(err)
		s.True(ok)
		s.Equal(u, got)
	})

	s.Run("absence is not an error", func() {
		s.repo.EXPECT().GetByID(gomock.Any(), int64(5)).Return(nil, repository.ErrNotFound)

		got, ok, err := s.service.FindByID(s.ctx, 5)
		s.NoError(err)
		s.False(ok)
		s.Nil(got)
	})

	s.Run("store failure", func() {
		s.repo.EXPECT().GetByID(gomock.Any(), int64(6)).Return(nil, errors.New("timeout"))

		_, ok, err := s.service.FindByID(s.ctx, 6)
		s.Error(err)
		s.False(ok)
	})
}

func (s *UserServiceSuite) TestDelete() {
	u := newUser()
	u.ID = 9
	s.repo.EXPECT().Delete(gomock.Any(), int64(9)).Return(nil)
	s.Require().NoError(s.service.Delete(s.ctx, u))
	s.Require().Len(s.publisher.events, 1)
	s.Equal(EventUserDeleted, s.publisher.events[0].Type)

	s.repo.EXPECT().Delete(gomock.Any(), int64(9)).Return(repository.ErrNotFound)
	s.ErrorIs(s.service.Delete(s.ctx, u), repository.ErrNotFound)
}

func (s *UserServiceSuite) TestUpdate() {
	s.Run("only age changes", func() {
		existing := newUser()
		existing.ID = 2
		s.repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

		got, err := s.service.Update(s.ctx, UserInput{Age: intPtr(40)}, existing)
		s.Require().NoError(err)
		s.Equal(40, got.Age)
		s.Equal(existing.Name, got.Name)
		s.Equal(existing.Email, got.Email)
		s.Equal(existing.CPF, got.CPF)
		s.Equal(int64(2), got.ID)
	})

	s.Run("new cpf already taken", func() {
		existing := newUser()
		s.repo.EXPECT().ExistsByCPF(gomock.Any(), "565.378.540-75").Return(true, nil)
		s.repo.EXPECT().Update(gomock.Any(), gomock.Any()).Times(0)

		_, err := s.service.Update(s.ctx, UserInput{CPF: strPtr("565.378.540-75")}, existing)
		s.ErrorIs(err, ErrCPFAlreadyExists)
	})

	s.Run("new email already taken", func() {
		existing := newUser()
		s.repo.EXPECT().ExistsByEmail(gomock.Any(), "maria@email.com").Return(true, nil)

		_, err := s.service.Update(s.ctx, UserInput{Email: strPtr("maria@email.com")}, existing)
		s.ErrorIs(err, ErrEmailAlreadyExists)
	})

	s.Run("unchanged cpf and email are not rechecked", func() {
		existing := newUser()
		s.repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

		_, err := s.service.Update(s.ctx, UserInput{
			CPF:   strPtr("89740897002"),
			Email: strPtr("EMAIL@example.com"),
		}, existing)
		s.NoError(err)
	})

	s.Run("merged record is validated", func() {
		existing := newUser()
		s.repo.EXPECT().ExistsByCPF(gomock.Any(), "123").Return(false, nil)
		s.repo.EXPECT().Update(gomock.Any(), gomock.Any()).Times(0)

		_, err := s.service.Update(s.ctx, UserInput{Name: strPtr(""), CPF: strPtr("123"), Age: intPtr(17)}, existing)
		var verr *ValidationError
		s.Require().ErrorAs(err, &verr)
		s.Equal([]string{"name is required", "cpf must be a valid CPF", "age must be at least 18"}, verr.Violations)
		s.Equal("name is required, cpf must be a valid CPF, age must be at least 18", err.Error())
	})

	s.Run("zero age reports the range", func() {
		existing := newUser()
		s.repo.EXPECT().Update(gomock.Any(), gomock.Any()).Times(0)

		_, err := s.service.Update(s.ctx, UserInput{Age: intPtr(0)}, existing)
		var verr *ValidationError
		s.Require().ErrorAs(err, &verr)
		s.Equal([]string{"age must be at least 18"}, verr.Violations)
	})

	s.Run("existing is not modified", func() {
		existing := newUser()
		s.repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

		_, err := s.service.Update(s.ctx, UserInput{Name: strPtr("Juliana Silva")}, existing)
		s.Require().NoError(err)
		s.Equal("Franciele Ferreira", existing.Name)
	})
}

func (s *UserServiceSuite) TestReplace() {
	existing := newUser()
	existing.ID = 3
	in := UserInput{
		Name:  strPtr("Maria Aparecida"),
		Email: strPtr("maria@email.com"),
		CPF:   strPtr("791.756.260-39"),
		Age:   intPtr(32),
	}
	s.repo.EXPECT().ExistsByCPF(gomock.Any(), "791.756.260-39").Return(false, nil)
	s.repo.EXPECT().ExistsByEmail(gomock.Any(), "maria@email.com").Return(false, nil)
	s.repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *entity.User) error {
		s.Equal(int64(3), u.ID)
		s.Equal("Maria Aparecida", u.Name)
		return nil
	})

	got, err := s.service.Replace(s.ctx, in, existing)
	s.Require().NoError(err)
	s.Equal(entity.User{ID: 3, Name: "Maria Aparecida", Email: "maria@email.com", CPF: "791.756.260-39", Age: 32}, *got)
	s.Require().Len(s.publisher.events, 1)
	s.Equal(EventUserUpdated, s.publisher.events[0].Type)
}

func (s *UserServiceSuite) TestReplaceConflictFromStore() {
	existing := newUser()
	s.repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(repository.ErrDuplicateEmail)

	_, err := s.service.Replace(s.ctx, UserInput{Age: intPtr(30)}, existing)
	s.ErrorIs(err, ErrEmailAlreadyExists)
}

func (s *UserServiceSuite) TestFind() {
	filter := entity.UserFilter{Name: strPtr("maria")}
	want := []*entity.User{{ID: 2, Name: "Maria Aparecida"}}
	s.repo.EXPECT().Find(gomock.Any(), filter).Return(want, nil)

	got, err := s.service.Find(s.ctx, filter)
	s.Require().NoError(err)
	s.Equal(want, got)
}

func (s *UserServiceSuite) TestSeedDefaults() {
	s.Run("skips a populated store", func() {
		s.repo.EXPECT().Count(gomock.Any()).Return(int64(3), nil)

		n, err := s.service.SeedDefaults(s.ctx)
		s.NoError(err)
		s.Zero(n)
	})

	s.Run("inserts every default user", func() {
		s.repo.EXPECT().Count(gomock.Any()).Return(int64(0), nil)
		s.repo.EXPECT().ExistsByCPF(gomock.Any(), gomock.Any()).Return(false, nil).Times(5)
		s.repo.EXPECT().ExistsByEmail(gomock.Any(), gomock.Any()).Return(false, nil).Times(5)
		s.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil).Times(5)

		n, err := s.service.SeedDefaults(s.ctx)
		s.NoError(err)
		s.Equal(len(DefaultUsers()), n)
	})
}
