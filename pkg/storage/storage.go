package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrDisabled = errors.New("object storage is not configured")

type PutOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

type ObjectInfo struct {
	Key         string
	Size        int64
	ETag        string
	ContentType string
}

// Store keeps binary objects (car images) outside the database.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opt PutOptions) (ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type disabledStore struct{}

// Disabled is the Store used when no endpoint is configured. Every call
// fails with ErrDisabled.
func Disabled() Store {
	return disabledStore{}
}

func (disabledStore) Put(context.Context, string, io.Reader, PutOptions) (ObjectInfo, error) {
	return ObjectInfo{}, ErrDisabled
}

func (disabledStore) Delete(context.Context, string) error {
	return ErrDisabled
}

func (disabledStore) PresignGet(context.Context, string, time.Duration) (string, error) {
	return "", ErrDisabled
}
