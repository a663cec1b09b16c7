package application

import (
	"context"
	"time"

	"github.com/oksasatya/go-user-registry/internal/domain/entity"
)

const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// EventPublisher is satisfied by *helpers.RabbitPublisher.
type EventPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// UserEvent is published after every successful mutation.
type UserEvent struct {
	Type       string    `json:"type"`
	UserID     int64     `json:"user_id"`
	User       EventUser `json:"user"`
	OccurredAt time.Time `json:"occurred_at"`
}

type EventUser struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CPF       string    `json:"cpf"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newUserEvent(typ string, u *entity.User) UserEvent {
	return UserEvent{
		Type:   typ,
		UserID: u.ID,
		User: EventUser{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			CPF:       u.CPF,
			Age:       u.Age,
			CreatedAt: u.CreatedAt,
			UpdatedAt: u.UpdatedAt,
		},
		OccurredAt: time.Now().UTC(),
	}
}

func (s *Service) publish(ctx context.Context, typ string, u *entity.User) {
	if s.Events == nil {
		return
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := s.Events.PublishJSON(c, newUserEvent(typ, u)); err != nil {
		s.Logger.WithError(err).WithField("event", typ).WithField("user_id", u.ID).Warn("publish user event failed")
	}
}
