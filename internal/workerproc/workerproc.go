package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"smartdoc-backend/internal/extract"
	"smartdoc-backend/internal/queue"
)

// Extractor is the part of the extraction service a worker drives.
type Extractor interface {
	ExtractAndSave(ctx context.Context, documentID, ownerID string) (string, error)
}

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrMissingDocument indicates a message without a document or owner id.
type ErrMissingDocument struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingDocument) Error() string { return "missing document or user id" }

// ErrProcess indicates extraction failed after successful parsing.
type ErrProcess struct {
	DocumentID string
	RequestID  string
	Err        error
	// Permanent is set when retrying cannot succeed.
	Permanent bool
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process extraction"
	}
	return "process extraction: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.DocumentID) == "" || strings.TrimSpace(msg.UserID) == "" {
		return msg, meta, ErrMissingDocument{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

// Process runs extraction for a decoded message. Documents that no longer
// exist or cannot be decoded are reported as permanent failures.
func Process(ctx context.Context, ex Extractor, msg queue.Message) error {
	if ex == nil {
		return errors.New("extractor not configured")
	}
	if _, err := ex.ExtractAndSave(ctx, msg.DocumentID, msg.UserID); err != nil {
		permanent := errors.Is(err, extract.ErrNotFoundOrForbidden) ||
			errors.Is(err, extract.ErrUnsupportedType) ||
			errors.Is(err, extract.ErrExtractionFailed)
		return ErrProcess{DocumentID: msg.DocumentID, RequestID: msg.RequestID, Err: err, Permanent: permanent}
	}
	return nil
}
