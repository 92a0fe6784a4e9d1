package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("record not found")

// Document is an uploaded file registered for a chat.
type Document struct {
	ChatID     string
	Filename   string    // Base filename, equal to the "source" of its vector records
	Chunks     int       // Records upserted for the file
	UploadedAt time.Time // UTC
}
