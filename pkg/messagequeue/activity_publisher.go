package messagequeue

import (
	"context"
	"encoding/json"
	"fmt"

	"lyra-backend-go/internal/core"
)

// ActivityPublisher publishes core activity events as JSON to one queue.
type ActivityPublisher struct {
	queue MessageQueue
	name  string
}

// NewActivityPublisher returns a core.ActivityPublisher writing to queueName.
func NewActivityPublisher(queue MessageQueue, queueName string) *ActivityPublisher {
	return &ActivityPublisher{queue: queue, name: queueName}
}

func (p *ActivityPublisher) Publish(ctx context.Context, event core.ActivityEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode activity event: %w", err)
	}
	return p.queue.Publish(ctx, p.name, "application/json", body)
}
