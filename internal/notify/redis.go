package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/aryankumarrai/pharmakrypt/internal/model"
)

// Redis publishes alerts as JSON on a pub/sub channel so dashboards can
// react to new alerts without polling.
type Redis struct {
	rdb     *redis.Client
	channel string
}

// NewRedis creates a Redis notifier and verifies connectivity.
func NewRedis(addr, password string, db int, channel string) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &Redis{rdb: rdb, channel: channel}, nil
}

// PublishAlert implements Notifier.
func (n *Redis) PublishAlert(ctx context.Context, a model.Alert) error {
	payload, err := json.Marshal(alertMessage{
		ID:          a.ID.String(),
		SubjectName: a.SubjectName,
		SubjectID:   a.SubjectID,
		Category:    a.Category,
		Status:      string(a.Status),
		Timestamp:   a.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, n.channel, payload).Err()
}

// Close releases the underlying connection.
func (n *Redis) Close() error { return n.rdb.Close() }

type alertMessage struct {
	ID          string `json:"id"`
	SubjectName string `json:"subject_name"`
	SubjectID   string `json:"subject_id"`
	Category    string `json:"category"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
}
