package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Strob0t/blackboard/internal/domain"
	"github.com/Strob0t/blackboard/internal/port/messagequeue"
)

// CompletionReporter is the slice of the completion gateway the subscriber needs.
type CompletionReporter interface {
	ReportCompletion(ctx context.Context, taskID, result string) error
	ReportFailure(ctx context.Context, taskID, reason string) error
}

// CompletionSubscriber consumes worker reports from tasks.completion.
type CompletionSubscriber struct {
	queue    messagequeue.Queue
	reporter CompletionReporter
}

// NewCompletionSubscriber creates a CompletionSubscriber.
func NewCompletionSubscriber(queue messagequeue.Queue, reporter CompletionReporter) *CompletionSubscriber {
	return &CompletionSubscriber{queue: queue, reporter: reporter}
}

// Start subscribes to tasks.completion. The returned func stops the subscription.
func (s *CompletionSubscriber) Start(ctx context.Context) (func(), error) {
	return s.queue.Subscribe(ctx, messagequeue.SubjectTaskCompletion, s.Handle)
}

// Handle applies one completion report. Reports for unknown tasks are
// dropped, since redelivery cannot make them succeed.
func (s *CompletionSubscriber) Handle(ctx context.Context, _ string, data []byte) error {
	var p messagequeue.TaskCompletionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode completion: %w", err)
	}

	var err error
	if p.Error != "" {
		err = s.reporter.ReportFailure(ctx, p.TaskID, p.Error)
	} else {
		err = s.reporter.ReportCompletion(ctx, p.TaskID, p.Result)
	}
	if errors.Is(err, domain.ErrNotFound) {
		slog.WarnContext(ctx, "completion for unknown task dropped", "task_id", p.TaskID)
		return nil
	}
	return err
}
