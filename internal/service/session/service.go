package session

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medbook-web/internal/model"
	"github.com/jwalitptl/medbook-web/internal/repository"
	"github.com/jwalitptl/medbook-web/pkg/metrics"
)

// Service is the typed access path to the per-browser Session.
// Writes are last-write-wins; there is no merging of concurrent updates.
type Service struct {
	store   repository.Store[model.Session]
	ttl     time.Duration
	metrics *metrics.Metrics
}

func NewService(store repository.Store[model.Session], ttl time.Duration, m *metrics.Metrics) *Service {
	return &Service{store: store, ttl: ttl, metrics: m}
}

// Get returns the session for id, or the empty defaults if nothing was written yet.
func (s *Service) Get(ctx context.Context, id string) (model.Session, error) {
	sess, _, err := s.store.Get(ctx, id)
	s.metrics.SessionOp("get", err)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	return sess, nil
}

// Update applies fn to the current session and stores the result.
func (s *Service) Update(ctx context.Context, id string, fn func(*model.Session)) (model.Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return model.Session{}, err
	}
	fn(&sess)

	err = s.store.Set(ctx, id, sess, s.ttl)
	s.metrics.SessionOp("set", err)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to save session: %w", err)
	}
	return sess, nil
}

func (s *Service) SetUserName(ctx context.Context, id, name string) error {
	_, err := s.Update(ctx, id, func(sess *model.Session) { sess.UserName = name })
	return err
}

func (s *Service) SetSelectedBookingDate(ctx context.Context, id, date string) error {
	_, err := s.Update(ctx, id, func(sess *model.Session) { sess.SelectedBookingDate = date })
	return err
}

func (s *Service) Clear(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, id)
	s.metrics.SessionOp("delete", err)
	if err != nil {
		log.Error().Err(err).Msg("failed to clear session")
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Ping checks the backing store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
