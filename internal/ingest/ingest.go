package ingest

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/epanner/shipfast-hack-25/internal/ai"
)

// MaxUploadBytes is the client-enforced ceiling for audio uploads.
const MaxUploadBytes = 50 << 20

var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".ogg":  true,
	".flac": true,
}

// InvalidInputError means the upload failed validation; no request was sent.
type InvalidInputError struct {
	Reason string
}

func (e InvalidInputError) Error() string {
	return e.Reason
}

// TransportError wraps a network or non-2xx failure from the AI service.
type TransportError struct {
	Err error
}

func (e TransportError) Error() string {
	return fmt.Sprintf("audio processing failed: %v", e.Err)
}

func (e TransportError) Unwrap() error {
	return e.Err
}

// ValidateUpload enforces the audio type and size gate before any network
// call. A file passes on a known extension, an audio/* MIME type, or an
// empty MIME type, and must stay under 50 MiB.
func ValidateUpload(filename, contentType string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	okType := audioExtensions[ext] || contentType == "" || strings.HasPrefix(contentType, "audio/")
	if !okType {
		return InvalidInputError{Reason: "invalid file type, expected MP3, WAV, M4A, OGG, or FLAC"}
	}
	if size > MaxUploadBytes {
		return InvalidInputError{Reason: "file size must be less than 50MB"}
	}
	return nil
}

// Client packages a user-selected audio artifact into a request to the AI
// service and returns the decoded result.
type Client struct {
	AI              ai.Adapter
	DefaultLanguage string
}

// Submit validates the upload and forwards it. Prior session state is left
// untouched on any failure.
func (c Client) Submit(ctx context.Context, fh *multipart.FileHeader, targetLanguage string) (ai.TranscriptionResult, error) {
	if targetLanguage == "" {
		targetLanguage = c.DefaultLanguage
	}
	if err := ValidateUpload(fh.Filename, fh.Header.Get("Content-Type"), fh.Size); err != nil {
		return ai.TranscriptionResult{}, err
	}

	f, err := fh.Open()
	if err != nil {
		return ai.TranscriptionResult{}, InvalidInputError{Reason: "could not read uploaded file"}
	}
	defer f.Close()

	res, err := c.AI.ProcessAudio(ctx, f, fh.Filename, targetLanguage)
	if err != nil {
		return ai.TranscriptionResult{}, TransportError{Err: err}
	}
	return res, nil
}
