// Package storage keeps the current roster upload in an object store.
// Exactly one upload is current at a time; a new upload replaces the old.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/isp/pkg/logger"
)

const manifestKey = "current.json"

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectStore saves and retrieves binary objects by key.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Object describes a stored upload.
type Object struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Key         string    `json:"key"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Option applies a configuration option to Uploads.
type Option func(*Uploads)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(u *Uploads) {
		if l != nil {
			u.log = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(u *Uploads) {
		if now != nil {
			u.now = now
		}
	}
}

// Uploads tracks the single current upload on top of an ObjectStore.
type Uploads struct {
	store ObjectStore
	log   logger.Logger
	now   func() time.Time

	mu      sync.RWMutex
	current *Object
}

// NewUploads creates an upload tracker and restores the current upload from
// the store's manifest, if any.
func NewUploads(ctx context.Context, store ObjectStore, opts ...Option) (*Uploads, error) {
	u := &Uploads{
		store: store,
		log:   logger.Get().Named("uploads"),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}

	rc, err := store.Open(ctx, manifestKey)
	switch {
	case errors.Is(err, ErrNotFound):
		return u, nil
	case err != nil:
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer func() { _ = rc.Close() }()

	var obj Object
	if err := json.NewDecoder(rc).Decode(&obj); err != nil {
		u.log.Warn(ctx, "ignoring unreadable upload manifest", logger.Error(err))
		return u, nil
	}
	u.current = &obj
	return u, nil
}

// Replace stores r as the current upload and removes the previous one.
func (u *Uploads) Replace(ctx context.Context, name string, r io.Reader) (Object, error) {
	var sniff [512]byte
	n, err := io.ReadFull(r, sniff[:])
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return Object{}, fmt.Errorf("read upload: %w", err)
	}
	contentType := http.DetectContentType(sniff[:n])

	id := uuid.NewString()
	obj := Object{
		ID:          id,
		Name:        filepath.Base(name),
		Key:         id + "_" + SanitizeName(name),
		ContentType: contentType,
		UploadedAt:  u.now().UTC(),
	}
	size, err := u.store.Put(ctx, obj.Key, contentType, io.MultiReader(bytes.NewReader(sniff[:n]), r))
	if err != nil {
		return Object{}, fmt.Errorf("store upload: %w", err)
	}
	obj.Size = size

	manifest, err := json.Marshal(obj)
	if err != nil {
		return Object{}, fmt.Errorf("encode manifest: %w", err)
	}
	if _, err := u.store.Put(ctx, manifestKey, "application/json", bytes.NewReader(manifest)); err != nil {
		return Object{}, fmt.Errorf("store manifest: %w", err)
	}

	u.mu.Lock()
	prev := u.current
	u.current = &obj
	u.mu.Unlock()

	if prev != nil && prev.Key != obj.Key {
		if err := u.store.Delete(ctx, prev.Key); err != nil && !errors.Is(err, ErrNotFound) {
			u.log.Warn(ctx, "failed to remove previous upload",
				logger.String("key", prev.Key), logger.Error(err))
		}
	}
	u.log.Info(ctx, "upload stored",
		logger.String("id", obj.ID),
		logger.String("name", obj.Name),
		logger.Int("size", int(obj.Size)))
	return obj, nil
}

// Current returns the current upload.
func (u *Uploads) Current() (Object, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.current == nil {
		return Object{}, false
	}
	return *u.current, true
}

// Open opens the current upload for reading.
func (u *Uploads) Open(ctx context.Context) (io.ReadCloser, Object, error) {
	obj, ok := u.Current()
	if !ok {
		return nil, Object{}, ErrNoUpload
	}
	rc, err := u.store.Open(ctx, obj.Key)
	if errors.Is(err, ErrNotFound) {
		return nil, Object{}, fmt.Errorf("%w: %s", ErrNoUpload, obj.Name)
	}
	if err != nil {
		return nil, Object{}, fmt.Errorf("open upload: %w", err)
	}
	return rc, obj, nil
}

// SanitizeName reduces name to a safe base file name.
func SanitizeName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	base = unsafeName.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "upload"
	}
	return base
}
