package messagequeue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lyra-backend-go/internal/core"
	"lyra-backend-go/internal/models"
)

type memoryQueue struct {
	queue       string
	contentType string
	bodies      [][]byte
}

func (q *memoryQueue) Publish(_ context.Context, queueName, contentType string, body []byte) error {
	q.queue, q.contentType = queueName, contentType
	q.bodies = append(q.bodies, body)
	return nil
}

func (q *memoryQueue) Close() error { return nil }

func TestActivityPublisher_PublishesJSON(t *testing.T) {
	q := &memoryQueue{}
	p := NewActivityPublisher(q, "lyra.activity")
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(), core.ActivityEvent{
		Type: core.EventToolGenerated, UserID: 3, ToolType: models.ToolEmail, HistoryID: 9, At: at,
	})
	require.NoError(t, err)

	assert.Equal(t, "lyra.activity", q.queue)
	assert.Equal(t, "application/json", q.contentType)
	require.Len(t, q.bodies, 1)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(q.bodies[0], &decoded))
	assert.Equal(t, "tool.generated", decoded["type"])
	assert.Equal(t, "email", decoded["toolType"])
	assert.EqualValues(t, 9, decoded["historyId"])
	assert.NotContains(t, decoded, "format")
}
