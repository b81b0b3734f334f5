package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Atanda1/dca-experiment/internal/core"
	"github.com/Atanda1/dca-experiment/internal/data"
	"github.com/Atanda1/dca-experiment/internal/events"
	"github.com/Atanda1/dca-experiment/internal/log"
	"github.com/Atanda1/dca-experiment/internal/session"
)

// ActivityPublisher emits investment activity onto the audit stream.
// Publishing is best-effort and never fails a user request.
type ActivityPublisher interface {
	PublishActivity(ctx context.Context, msg *events.InvestmentActivityMessage) error
}

// InvestmentService orchestrates investment reads and writes against the
// remote data service on behalf of the signed-in user.
type InvestmentService struct {
	store     data.InvestmentStore
	sessions  *session.Store
	publisher ActivityPublisher // nil disables the activity stream
	logger    *log.Logger
}

func NewInvestmentService(store data.InvestmentStore, sessions *session.Store, publisher ActivityPublisher, logger *log.Logger) *InvestmentService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &InvestmentService{
		store:     store,
		sessions:  sessions,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentService),
	}
}

// List returns the current user's investments, newest first.
func (s *InvestmentService) List(ctx context.Context) ([]core.Investment, error) {
	sess, user, err := s.requireUser()
	if err != nil {
		return nil, err
	}
	list, err := s.store.ListInvestments(ctx, sess, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	return list, nil
}

// Delete removes one investment, scoped to the current user. The row is
// only considered gone once the remote service confirms.
func (s *InvestmentService) Delete(ctx context.Context, id string) error {
	sess, user, err := s.requireUser()
	if err != nil {
		return err
	}
	if err := s.store.DeleteInvestment(ctx, sess, id, user.ID); err != nil {
		return fmt.Errorf("delete investment: %w", err)
	}
	s.publish(ctx, events.NewDeletedMessage(core.Investment{ID: id, UserID: user.ID}))
	s.logger.InfoContext(ctx, "Investment deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldInvestment, id,
		log.FieldUserID, user.ID)
	return nil
}

// SubmitBatch validates the drafts and persists each as an independent
// row, all inserts issued concurrently with the shared date. Validation
// failure means zero requests. The batch is NOT atomic: inserts that
// succeeded before another failed stay persisted, and the first failure
// is what the caller sees.
func (s *InvestmentService) SubmitBatch(ctx context.Context, date core.Date, drafts core.DraftList) error {
	sess, user, err := s.requireUser()
	if err != nil {
		return err
	}
	if len(drafts) == 0 {
		return core.ErrInvalidAmount
	}
	if err := drafts.Validate(); err != nil {
		return err
	}

	payloads := drafts.Payloads(user.ID, date)

	var created atomic.Int64
	var g errgroup.Group
	for _, p := range payloads {
		g.Go(func() error {
			inv, err := s.store.InsertInvestment(ctx, sess, p)
			if err != nil {
				return err
			}
			created.Add(1)
			s.publish(ctx, events.NewCreatedMessage(inv))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// no rollback of the inserts that made it through
		s.logger.WarnContext(ctx, "Batch submission partially failed",
			log.FieldOperation, log.OpInsert,
			log.FieldUserID, user.ID,
			"requested", len(payloads),
			"created", created.Load(),
			log.FieldError, err)
		return err
	}

	s.logger.InfoContext(ctx, "Batch submitted",
		log.FieldOperation, log.OpInsert,
		log.FieldUserID, user.ID,
		log.FieldDate, date.String(),
		"created", created.Load())
	return nil
}

func (s *InvestmentService) requireUser() (core.Session, core.User, error) {
	sess, ok := s.sessions.CurrentSession()
	if !ok {
		return core.Session{}, core.User{}, core.ErrMissingUser
	}
	user, ok := s.sessions.CurrentUser()
	if !ok {
		return core.Session{}, core.User{}, core.ErrMissingUser
	}
	return sess, user, nil
}

func (s *InvestmentService) publish(ctx context.Context, msg *events.InvestmentActivityMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishActivity(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish activity message",
			log.FieldOperation, log.OpPublish,
			log.FieldEventType, msg.Type,
			log.FieldError, err)
	}
}
