package service

import (
	"context"
	"encoding/json"
	"testing"

	"cfp-backend/internal/domain"
	"cfp-backend/pkg/errors"
	"cfp-backend/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestQueueNotifier_EnqueuesJob(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	client := redis.NewClientFromRedis(rdb, "test", zap.NewNop())
	t.Cleanup(func() { client.Close() })

	notifier := NewQueueNotifier(client, zap.NewNop())

	proposal := &domain.Proposal{
		ID:      "p1",
		EventID: "ev-1",
		Title:   "Talk",
		Speakers: []domain.Speaker{
			{ID: "spk-1", Name: "Sam", Email: "sam@example.com"},
		},
	}

	require.NoError(t, notifier.Notify(context.Background(), proposal, domain.DeliberationAccepted))

	queue := client.KeyBuilder.KeyNotifications()
	length, err := client.LLen(context.Background(), queue)
	require.NoError(t, err)
	assert.Equal(t, int64(1), length)

	payload, err := mr.Lpop(queue)
	require.NoError(t, err)

	var job NotificationJob
	require.NoError(t, json.Unmarshal([]byte(payload), &job))
	assert.Equal(t, "p1", job.ProposalID)
	assert.Equal(t, domain.DeliberationAccepted, job.Outcome)
	require.Len(t, job.Speakers, 1)
	assert.Equal(t, "spk-1", job.Speakers[0].ID)
}

func TestQueueNotifier_NoRedisIsTransient(t *testing.T) {
	notifier := NewQueueNotifier(nil, zap.NewNop())

	err := notifier.Notify(context.Background(), &domain.Proposal{ID: "p1"}, domain.DeliberationAccepted)
	require.Error(t, err)

	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeDelivery, appErr.Type)
	assert.True(t, appErr.Transient)
}
