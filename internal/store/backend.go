package store

import (
	"context"
	"encoding/json"
	"os"
)

// Backend is the durable medium behind the in-memory aggregate.
// Local deployments use a plain JSON file, remote deployments use a blob
// object in Redis (see blob.go).
type Backend interface {
	Load(ctx context.Context) (*Aggregate, error)
	Save(ctx context.Context, agg *Aggregate) error
}

// FileBackend persists the aggregate as a pretty-printed JSON file.
type FileBackend struct {
	Path string
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

func (f *FileBackend) Load(_ context.Context) (*Aggregate, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	agg := &Aggregate{}
	if err := json.Unmarshal(data, agg); err != nil {
		return nil, err
	}
	return agg, nil
}

func (f *FileBackend) Save(_ context.Context, agg *Aggregate) error {
	data, err := json.MarshalIndent(agg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, data, 0644)
}
