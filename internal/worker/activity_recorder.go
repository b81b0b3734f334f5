package worker

import (
	"context"
	"fmt"

	"github.com/Atanda1/dca-experiment/internal/events"
	"github.com/Atanda1/dca-experiment/internal/localstate"
	"github.com/Atanda1/dca-experiment/internal/log"
)

// ActivityRecorder consumes investment activity messages and records them
// in the local activity log. Redelivered messages are harmless because the
// log is keyed by event id.
type ActivityRecorder struct {
	state  *localstate.Store
	logger *log.Logger
}

func NewActivityRecorder(state *localstate.Store, logger *log.Logger) *ActivityRecorder {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ActivityRecorder{
		state:  state,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleActivityMessage processes a single activity message from the queue.
func (w *ActivityRecorder) HandleActivityMessage(ctx context.Context, msg *events.InvestmentActivityMessage) error {
	w.logger.InfoContext(ctx, "Processing activity message",
		log.FieldEventType, msg.Type,
		log.FieldInvestment, msg.InvestmentID,
		"event_id", msg.EventID)

	entry := localstate.ActivityEntry{
		EventID:      msg.EventID,
		EventType:    msg.Type,
		InvestmentID: msg.InvestmentID,
		UserID:       msg.UserID,
		Category:     msg.Category,
		Amount:       msg.Amount,
		Date:         msg.Date,
		OccurredAt:   msg.OccurredAt,
	}
	if err := w.state.AppendActivity(ctx, entry); err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

// Run consumes from the queue until the context is cancelled.
func (w *ActivityRecorder) Run(ctx context.Context, client *events.Client) error {
	return client.ConsumeActivity(ctx, w.HandleActivityMessage)
}
