package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"foody/indexer/internal/config"
	"foody/indexer/internal/domain/task"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Message is one task read from a stream, not yet acknowledged.
type Message struct {
	ID       string
	TaskType string
	Data     []byte
}

type Queue interface {
	AddTask(ctx context.Context, task task.Task) (string, error) // Returns message ID
	GetTask(ctx context.Context, consumer, taskType string) (*Message, error)
	AckTask(ctx context.Context, taskType, msgID string) error
	AutoClaim(ctx context.Context, consumer, taskType string, minIdleTime time.Duration) ([]Message, error)
}

type RedisQueue struct {
	redisClient  *redis.Client
	streamPrefix string
	groupName    string
	block        time.Duration
}

// NewRedisQueue creates the streams and consumer group for every task type
// before returning, so workers can start reading immediately.
func NewRedisQueue(ctx context.Context, redisClient *redis.Client, cfg config.RedisConfig, taskTypes ...string) (*RedisQueue, error) {
	q := &RedisQueue{
		redisClient:  redisClient,
		streamPrefix: cfg.KeyPrefix + "stream:",
		groupName:    cfg.ConsumerGroup,
		block:        5 * time.Second,
	}

	if err := q.EnsureStreamsExist(ctx, taskTypes...); err != nil {
		return nil, fmt.Errorf("failed to ensure streams exist: %w", err)
	}
	return q, nil
}

func (q *RedisQueue) Stream(taskType string) string {
	return q.streamPrefix + taskType
}

func (q *RedisQueue) AddTask(ctx context.Context, t task.Task) (string, error) {
	taskType := t.TaskType()
	streamName := q.Stream(taskType)

	taskValue, err := t.TaskValue()
	if err != nil {
		return "", fmt.Errorf("failed to serialize task: %w", err)
	}

	messageID, err := q.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: streamName,
		Values: map[string]any{
			"task_type": taskType,
			"task_data": string(taskValue),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to add task to Redis stream %s: %w", streamName, err)
	}

	log.Debugf("Added task %s to stream %s with message ID: %s", taskType, streamName, messageID)
	return messageID, nil
}

// GetTask blocks for a few seconds waiting for a new message. It returns
// nil, nil when none arrived.
func (q *RedisQueue) GetTask(ctx context.Context, consumer, taskType string) (*Message, error) {
	streamName := q.Stream(taskType)
	result, err := q.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.groupName,
		Consumer: consumer,
		Streams:  []string{streamName, ">"},
		Count:    1,
		Block:    q.block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read from Redis stream %s: %w", streamName, err)
	}

	if len(result) == 0 || len(result[0].Messages) == 0 {
		return nil, nil
	}
	return decodeMessage(result[0].Messages[0])
}

func (q *RedisQueue) AckTask(ctx context.Context, taskType, msgID string) error {
	return q.redisClient.XAck(ctx, q.Stream(taskType), q.groupName, msgID).Err()
}

// AutoClaim takes over messages another consumer read but did not
// acknowledge within minIdleTime.
func (q *RedisQueue) AutoClaim(
	ctx context.Context,
	consumer,
	taskType string,
	minIdleTime time.Duration,
) ([]Message, error) {
	streamName := q.Stream(taskType)
	result, _, err := q.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   streamName,
		Group:    q.groupName,
		Consumer: consumer,
		MinIdle:  minIdleTime,
		Start:    "0-0",
		Count:    1,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to claim messages from Redis stream %s: %w", streamName, err)
	}

	messages := make([]Message, 0, len(result))
	for _, raw := range result {
		msg, err := decodeMessage(raw)
		if err != nil {
			log.Warnf("⚠️ Dropping malformed message %s from %s: %v", raw.ID, streamName, err)
			if ackErr := q.AckTask(ctx, taskType, raw.ID); ackErr != nil {
				log.Warnf("⚠️ Failed to acknowledge malformed message %s: %v", raw.ID, ackErr)
			}
			continue
		}
		messages = append(messages, *msg)
	}
	return messages, nil
}

func (q *RedisQueue) CreateGroup(ctx context.Context, stream string) error {
	err := q.redisClient.XGroupCreateMkStream(ctx, stream, q.groupName, "0").Err()
	if err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP") {
		log.Debugf("Group %s already exists for stream %s", q.groupName, stream)
		return nil
	}
	return err
}

func (q *RedisQueue) EnsureStreamsExist(ctx context.Context, taskTypes ...string) error {
	for _, taskType := range taskTypes {
		streamName := q.Stream(taskType)
		if err := q.CreateGroup(ctx, streamName); err != nil {
			return fmt.Errorf("failed to create consumer group for %s: %w", taskType, err)
		}
		log.Infof("✅ Stream %s and consumer group %s ready", streamName, q.groupName)
	}
	return nil
}

func decodeMessage(msg redis.XMessage) (*Message, error) {
	taskType, ok := msg.Values["task_type"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid task type in message %s", msg.ID)
	}
	taskData, ok := msg.Values["task_data"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid task data in message %s", msg.ID)
	}
	return &Message{ID: msg.ID, TaskType: taskType, Data: []byte(taskData)}, nil
}
