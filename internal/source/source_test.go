package source

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Lllllllleong/pdfmerge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFile_DeclaredTypeFromExtension(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "Scan.PDF")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.4"), 0o644))

	f, err := NewFile(pdfPath)
	require.NoError(t, err)
	assert.Equal(t, "Scan.PDF", f.Name())
	assert.Equal(t, int64(8), f.Size())
	assert.Equal(t, "application/pdf", f.MediaType())

	rc, err := f.Open(context.Background())
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestNewFile_Errors(t *testing.T) {
	_, err := NewFile(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = NewFile(t.TempDir())
	assert.ErrorContains(t, err, "is a directory")
}

func TestBytes_OpenHonoursContext(t *testing.T) {
	b := &Bytes{FileName: "a.pdf", Type: "application/pdf", Data: []byte("x")}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Open(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSplitGCSURI(t *testing.T) {
	tests := []struct {
		in             string
		bucket, object string
		ok             bool
	}{
		{"gs://docs/in/a.pdf", "docs", "in/a.pdf", true},
		{"gs://docs/", "", "", false},
		{"gs://docs", "", "", false},
		{"/tmp/a.pdf", "", "", false},
		{"s3://docs/a.pdf", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			bucket, object, ok := SplitGCSURI(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.object, object)
		})
	}
}

func TestResolver_KeepsOrder(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "local.pdf")
	require.NoError(t, os.WriteFile(local, []byte("%PDF"), 0o644))

	r := Resolver{
		Limit: 4,
		Remote: func(ctx context.Context, bucket, object string) (models.Candidate, error) {
			// finish remote lookups late so ordering cannot come from completion order
			time.Sleep(10 * time.Millisecond)
			return &Bytes{FileName: bucket + "/" + object, Type: "application/pdf"}, nil
		},
	}

	got, err := r.Resolve(context.Background(), []string{"gs://b/one.pdf", local, "gs://b/two.pdf"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "b/one.pdf", got[0].Name())
	assert.Equal(t, "local.pdf", got[1].Name())
	assert.Equal(t, "b/two.pdf", got[2].Name())
}

func TestResolver_RemoteDisabled(t *testing.T) {
	_, err := Resolver{}.Resolve(context.Background(), []string{"gs://b/a.pdf"})
	assert.ErrorContains(t, err, "remote inputs are not enabled")
}

func TestResolver_PropagatesFailure(t *testing.T) {
	boom := errors.New("boom")
	r := Resolver{Remote: func(context.Context, string, string) (models.Candidate, error) { return nil, boom }}

	_, err := r.Resolve(context.Background(), []string{"gs://b/a.pdf"})
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "input 1")
}
