package queue

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T, opts Options) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewQueue(client, opts, nil), mr
}

func TestEnqueueDequeuePhotoReconcile(t *testing.T) {
	q, _ := newTestQueue(t, Options{Name: "jobs"})
	ctx := context.Background()
	photoID := uuid.New()

	require.NoError(t, q.EnqueuePhotoReconcile(ctx, photoID, "photos/x_a.jpg"))

	job, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, JobTypePhotoReconcile, job.Type)
	assert.Equal(t, 0, job.Attempt)

	var payload PhotoReconcilePayload
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, photoID, payload.PhotoID)
	assert.Equal(t, "photos/x_a.jpg", payload.FileKey)
}

func TestRetryMovesToDLQAfterMaxRetries(t *testing.T) {
	q, mr := newTestQueue(t, Options{Name: "jobs", MaxRetries: 2})
	ctx := context.Background()

	job, err := q.Enqueue(ctx, JobTypePhotoReconcile, PhotoReconcilePayload{PhotoID: uuid.New()})
	require.NoError(t, err)
	_, err = q.Dequeue(ctx)
	require.NoError(t, err)

	require.NoError(t, q.Retry(ctx, job))
	list, err := mr.List("jobs")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = q.Dequeue(ctx)
	require.NoError(t, err)
	require.NoError(t, q.Retry(ctx, job))

	assert.False(t, mr.Exists("jobs"))
	dlq, err := mr.List("jobs:dlq")
	require.NoError(t, err)
	assert.Len(t, dlq, 1)
	assert.Equal(t, 2, job.Attempt)
}

func TestDefaults(t *testing.T) {
	q, _ := newTestQueue(t, Options{})
	assert.Equal(t, DefaultQueue+":dlq", q.DLQ())
	assert.Equal(t, DefaultRetryBackoff, q.Backoff())
}
