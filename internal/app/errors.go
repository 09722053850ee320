package service

import "errors"

// Sentinel errors returned by the Service.
var (
	ErrNotStarted        = errors.New("service not started")
	ErrUnsupportedUpload = errors.New("invalid file type, only CSV and Excel files are allowed")
	ErrUploadTooLarge    = errors.New("file size exceeds limit")
	ErrEmptyUpload       = errors.New("no file provided")
)
