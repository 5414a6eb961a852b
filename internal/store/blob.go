package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

// BlobKey mirrors the hosted object layout: a single JSON object under a
// fixed bucket/file name.
const BlobKey = "chat-storage/chat_store.json"

// ErrEmptyBlob is returned by BlobBackend.Load when the object does not
// exist yet (first boot of a fresh deployment).
var ErrEmptyBlob = errors.New("store: blob object not found")

// BlobBackend persists the aggregate as one JSON blob in Redis.
type BlobBackend struct {
	rdb *redis.Client
	key string
}

func NewBlobBackend(rdb *redis.Client) *BlobBackend {
	return &BlobBackend{rdb: rdb, key: BlobKey}
}

func (b *BlobBackend) Load(ctx context.Context) (*Aggregate, error) {
	data, err := b.rdb.Get(ctx, b.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrEmptyBlob
		}
		return nil, err
	}
	agg := &Aggregate{}
	if err := json.Unmarshal(data, agg); err != nil {
		return nil, err
	}
	return agg, nil
}

func (b *BlobBackend) Save(ctx context.Context, agg *Aggregate) error {
	data, err := json.Marshal(agg)
	if err != nil {
		return err
	}
	return b.rdb.Set(ctx, b.key, data, 0).Err()
}
