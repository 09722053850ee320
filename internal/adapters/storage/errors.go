package storage

import "errors"

var (
	// ErrNoUpload is returned when no roster has been uploaded yet.
	ErrNoUpload = errors.New("no file uploaded")
	// ErrInvalidKey is returned for keys that escape the store.
	ErrInvalidKey = errors.New("invalid storage key")
	// ErrNotFound is returned by stores for missing objects.
	ErrNotFound = errors.New("object not found")
)
