// Package worker holds the message handlers run by the background binaries.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-registry/internal/application"
	"github.com/oksasatya/go-user-registry/pkg/search"
)

// ErrMalformed marks messages that can never succeed and must not be requeued.
var ErrMalformed = errors.New("malformed user event")

// Index is satisfied by *search.UserIndex.
type Index interface {
	IndexUser(ctx context.Context, doc search.Document) error
	DeleteUser(ctx context.Context, id int64) error
}

type UserIndexer struct {
	Index  Index
	Logger *logrus.Logger
}

func NewUserIndexer(idx Index, logger *logrus.Logger) *UserIndexer {
	return &UserIndexer{Index: idx, Logger: logger}
}

// Handle applies one user event body to the index.
func (w *UserIndexer) Handle(ctx context.Context, body []byte) error {
	var ev application.UserEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if ev.UserID <= 0 {
		return fmt.Errorf("%w: missing user id", ErrMalformed)
	}

	log := w.Logger.WithField("event", ev.Type).WithField("user_id", ev.UserID)
	switch ev.Type {
	case application.EventUserCreated, application.EventUserUpdated:
		if err := w.Index.IndexUser(ctx, search.Document(ev.User)); err != nil {
			return err
		}
		log.Debug("user indexed")
	case application.EventUserDeleted:
		if err := w.Index.DeleteUser(ctx, ev.UserID); err != nil {
			return err
		}
		log.Debug("user removed from index")
	default:
		return fmt.Errorf("%w: unknown type %q", ErrMalformed, ev.Type)
	}
	return nil
}
