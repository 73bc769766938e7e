package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/littlenest/core/internal/pkg/mail"
	redisc "github.com/littlenest/core/internal/pkg/redis"
)

// Status is the lifecycle state of a queued email.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Entry is one email waiting in Redis to be delivered.
type Entry struct {
	ID        string       `json:"id"`
	Message   mail.Message `json:"message"`
	Status    Status       `json:"status"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

const (
	keyPrefix  = "ln:mail:"
	keyPending = "ln:mail:pending" // list of entry ids, FIFO
	keyIndex   = "ln:mail:index"   // sorted set: score=created_at ms, member=id
	entryTTL   = 7 * 24 * time.Hour
)

// Outbox is a Redis-backed email queue. Enqueue is cheap and transactional;
// a single worker drains the pending list and hands messages to the sender.
type Outbox struct {
	rc     *redisc.Client
	sender *mail.Sender
	logger *zap.Logger
}

func New(rc *redisc.Client, sender *mail.Sender, logger *zap.Logger) *Outbox {
	return &Outbox{rc: rc, sender: sender, logger: logger}
}

func entryKey(id string) string { return keyPrefix + id }

// Enqueue stores the message and appends it to the pending list.
func (o *Outbox) Enqueue(ctx context.Context, msg mail.Message) (*Entry, error) {
	now := time.Now()
	entry := &Entry{
		ID:        uuid.New().String(),
		Message:   msg,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}

	pipe := o.rc.Raw().TxPipeline()
	pipe.Set(ctx, entryKey(entry.ID), data, entryTTL)
	pipe.RPush(ctx, keyPending, entry.ID)
	pipe.ZAdd(ctx, keyIndex, redislib.Z{
		Score:  float64(now.UnixMilli()),
		Member: entry.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return entry, nil
}

// GetByID retrieves an entry; nil when unknown or expired.
func (o *Outbox) GetByID(ctx context.Context, id string) (*Entry, error) {
	data, err := o.rc.Raw().Get(ctx, entryKey(id)).Bytes()
	if err == redislib.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entry Entry
	return &entry, json.Unmarshal(data, &entry)
}

// List returns the newest entries first, capped at limit.
func (o *Outbox) List(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	ids, err := o.rc.Raw().ZRevRange(ctx, keyIndex, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]*Entry, 0, len(ids))
	for _, id := range ids {
		entry, err := o.GetByID(ctx, id)
		if err != nil || entry == nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (o *Outbox) store(ctx context.Context, entry *Entry) error {
	entry.UpdatedAt = time.Now()
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return o.rc.Raw().Set(ctx, entryKey(entry.ID), data, entryTTL).Err()
}

// drainOne pops and delivers a single pending entry. Returns false when the
// pending list is empty.
func (o *Outbox) drainOne(ctx context.Context) (bool, error) {
	id, err := o.rc.Raw().LPop(ctx, keyPending).Result()
	if err == redislib.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	entry, err := o.GetByID(ctx, id)
	if err != nil {
		return true, err
	}
	if entry == nil {
		return true, nil
	}

	if sendErr := o.sender.Send(entry.Message); sendErr != nil {
		entry.Status = StatusFailed
		entry.Error = sendErr.Error()
		o.logger.Warn("mail delivery failed",
			zap.String("id", entry.ID), zap.Error(sendErr))
	} else {
		entry.Status = StatusSent
		entry.Error = ""
	}
	return true, o.store(ctx, entry)
}

// Run drains the outbox until ctx is cancelled.
func (o *Outbox) Run(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				more, err := o.drainOne(ctx)
				if err != nil {
					o.logger.Warn("outbox drain error", zap.Error(err))
					break
				}
				if !more {
					break
				}
			}
		}
	}
}

// PurgeDelivered removes sent/failed entries older than the cutoff.
func (o *Outbox) PurgeDelivered(ctx context.Context, before time.Time) (int, error) {
	ids, err := o.rc.Raw().ZRangeByScore(ctx, keyIndex, &redislib.ZRangeBy{
		Min: "0",
		Max: fmt.Sprintf("%d", before.UnixMilli()),
	}).Result()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range ids {
		entry, err := o.GetByID(ctx, id)
		if err != nil {
			continue
		}
		if entry != nil && entry.Status == StatusPending {
			continue
		}
		pipe := o.rc.Raw().TxPipeline()
		pipe.Del(ctx, entryKey(id))
		pipe.ZRem(ctx, keyIndex, id)
		if _, err := pipe.Exec(ctx); err == nil {
			removed++
		}
	}
	return removed, nil
}
