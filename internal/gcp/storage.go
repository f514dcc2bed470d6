package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/pdfmerge/internal/models"
	"google.golang.org/api/googleapi"
)

// ErrObjectExists is returned when the destination object is already present.
var ErrObjectExists = errors.New("object already exists")

// ObjectCandidate is a merge input stored in Cloud Storage. Its declared type
// is the object's Content-Type metadata.
type ObjectCandidate struct {
	client *storage.Client
	bucket string
	object string
	attrs  *storage.ObjectAttrs
}

// NewObjectCandidate fetches the object's metadata.
func NewObjectCandidate(ctx context.Context, client *storage.Client, bucket, object string) (*ObjectCandidate, error) {
	attrs, err := client.Bucket(bucket).Object(object).Attrs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get attributes for gs://%s/%s: %w", bucket, object, err)
	}
	return &ObjectCandidate{client: client, bucket: bucket, object: object, attrs: attrs}, nil
}

func (o *ObjectCandidate) Name() string      { return path.Base(o.object) }
func (o *ObjectCandidate) Size() int64       { return o.attrs.Size }
func (o *ObjectCandidate) MediaType() string { return o.attrs.ContentType }

// Open streams the object generation that was described, so a concurrent
// overwrite cannot change what gets merged.
func (o *ObjectCandidate) Open(ctx context.Context) (io.ReadCloser, error) {
	obj := o.client.Bucket(o.bucket).Object(o.object)
	if o.attrs.Generation != 0 {
		obj = obj.Generation(o.attrs.Generation)
	}
	r, err := obj.NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", o.bucket, o.object, err)
	}
	return r, nil
}

// RemoteResolver adapts NewObjectCandidate to source.RemoteFunc.
func RemoteResolver(client *storage.Client) func(ctx context.Context, bucket, object string) (models.Candidate, error) {
	return func(ctx context.Context, bucket, object string) (models.Candidate, error) {
		return NewObjectCandidate(ctx, client, bucket, object)
	}
}

// ObjectSink delivers merged documents into a bucket.
type ObjectSink struct {
	Client *storage.Client
	Bucket string
	Prefix string

	// MaxRetries defaults to 4, Backoff to one second.
	MaxRetries int
	Backoff    time.Duration
	// AttemptTimeout bounds a single upload; defaults to 50s.
	AttemptTimeout time.Duration
}

// Deliver uploads data as Prefix/filename. The write only succeeds if the
// object does not exist yet. Each attempt runs under its own context, which
// is cancelled on every return path; a cancelled writer never commits a
// partial object.
func (s *ObjectSink) Deliver(ctx context.Context, data []byte, filename string) error {
	objectName := path.Join(s.Prefix, path.Base(filename))
	logCtx := slog.With("gcsBucket", s.Bucket, "gcsObject", objectName)

	bucket := s.Client.Bucket(s.Bucket)
	err := retry(ctx, s.maxRetries(), s.backoff(), logCtx, func() error {
		writeCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout())
		defer cancel()
		return writeObjectAtomically(writeCtx, bucket, objectName, data)
	})
	if err != nil {
		return err
	}
	logCtx.Info("Merged PDF uploaded.", "bytes", len(data))
	return nil
}

func (s *ObjectSink) maxRetries() int {
	if s.MaxRetries > 0 {
		return s.MaxRetries
	}
	return 4
}

func (s *ObjectSink) backoff() time.Duration {
	if s.Backoff > 0 {
		return s.Backoff
	}
	return time.Second
}

func (s *ObjectSink) attemptTimeout() time.Duration {
	if s.AttemptTimeout > 0 {
		return s.AttemptTimeout
	}
	return 50 * time.Second
}

// writeObjectAtomically writes content to a GCS object only if it doesn't
// already exist.
func writeObjectAtomically(ctx context.Context, bucket *storage.BucketHandle, objectName string, content []byte) error {
	writer := bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = "application/pdf"

	if _, err := io.Copy(writer, bytes.NewReader(content)); err != nil {
		_ = writer.Close()
		return classifyWriteError(objectName, err)
	}
	if err := writer.Close(); err != nil {
		return classifyWriteError(objectName, err)
	}
	return nil
}

func classifyWriteError(objectName string, err error) error {
	if isPreconditionFailed(err) {
		return fmt.Errorf("%s: %w", objectName, ErrObjectExists)
	}
	return fmt.Errorf("failed to write to GCS: %w", err)
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}

// retry runs op up to maxRetries times, doubling backoff between attempts.
// ErrObjectExists and context errors are not retried.
func retry(ctx context.Context, maxRetries int, backoff time.Duration, logCtx *slog.Logger, op func() error) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := op()
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrObjectExists) {
			return err
		}
		lastErr = err
		if i == maxRetries-1 {
			break
		}
		logCtx.Warn(
			"Upload failed, will retry.",
			"attempt", i+1,
			"maxRetries", maxRetries,
			"backoff", backoff.String(),
			"error", err,
		)

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			logCtx.Error("Context cancelled during backoff. Aborting retries.", "error", ctx.Err())
			return ctx.Err()
		}
	}
	logCtx.Error("Upload failed after all retries.", "error", lastErr)
	return fmt.Errorf("upload failed after %d attempts: %w", maxRetries, lastErr)
}
