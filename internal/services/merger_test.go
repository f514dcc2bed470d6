package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"

	"github.com/Lllllllleong/pdfmerge/internal/models"
	"github.com/Lllllllleong/pdfmerge/internal/testutil"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upload struct {
	name, contentType string
	data              []byte
}

func multipartRequest(t *testing.T, outputName string, files ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if outputName != "" {
		require.NoError(t, mw.WriteField("name", outputName))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{"name": "files", "filename": f.name}))
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.MergeErrorResponse {
	t.Helper()
	var body models.MergeErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestMergerFunction_MergesUploadsInOrder(t *testing.T) {
	f := NewMergerWithConfig(MergerConfig{ValidationMode: "relaxed"})
	req := multipartRequest(t, "combined",
		upload{"a.pdf", "application/pdf", testutil.BuildPDF(100, 101)},
		upload{"notes.txt", "text/plain", []byte("hello")},
		upload{"b.pdf", "application/pdf", testutil.BuildPDF(200, 201, 202)},
	)
	rec := httptest.NewRecorder()

	f.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	_, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "combined.pdf", params["filename"])

	dims, err := api.PageDims(bytes.NewReader(rec.Body.Bytes()), nil)
	require.NoError(t, err)
	var widths []int
	for _, d := range dims {
		widths = append(widths, int(d.Width))
	}
	assert.Equal(t, []int{100, 101, 200, 201, 202}, widths)
}

func TestMergerFunction_BrokenFileIsUnprocessable(t *testing.T) {
	f := NewMergerWithConfig(MergerConfig{})
	req := multipartRequest(t, "",
		upload{"a.pdf", "application/pdf", testutil.BuildPDF(100)},
		upload{"b.pdf", "application/pdf", []byte("definitely not a pdf")},
		upload{"c.pdf", "application/pdf", testutil.BuildPDF(300)},
	)
	rec := httptest.NewRecorder()

	f.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "error", body.Status)
	require.NotNil(t, body.FileIndex)
	assert.Equal(t, 1, *body.FileIndex)
	assert.Equal(t, "b.pdf", body.FileName)
}

func TestMergerFunction_OnlyRejectedFiles(t *testing.T) {
	f := NewMergerWithConfig(MergerConfig{})
	req := multipartRequest(t, "x", upload{"notes.txt", "text/plain", []byte("hello")})
	rec := httptest.NewRecorder()

	f.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, 1, body.Rejected)
	assert.Contains(t, body.Error, "only PDF files are allowed")
}

func TestMergerFunction_RejectsGet(t *testing.T) {
	rec := httptest.NewRecorder()

	NewMergerWithConfig(MergerConfig{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMergerFunction_UploadTooLarge(t *testing.T) {
	f := NewMergerWithConfig(MergerConfig{MaxUploadBytes: 64})
	req := multipartRequest(t, "x", upload{"a.pdf", "application/pdf", testutil.BuildPDF(100, 101, 102)})
	rec := httptest.NewRecorder()

	f.ServeHTTP(rec, req)

	assert.Contains(t, []int{http.StatusRequestEntityTooLarge, http.StatusBadRequest}, rec.Code)
}

func TestMergerFunction_ConcurrentRequests(t *testing.T) {
	f := NewMergerWithConfig(MergerConfig{ValidationMode: "strict"})

	const n = 8
	recs := make([]*httptest.ResponseRecorder, n)
	reqs := make([]*http.Request, n)
	for i := range n {
		reqs[i] = multipartRequest(t, "",
			upload{"a.pdf", "application/pdf", testutil.BuildPDF(100+i, 101)},
			upload{"b.pdf", "application/pdf", testutil.BuildPDF(200)},
		)
		recs[i] = httptest.NewRecorder()
	}

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f.ServeHTTP(recs[i], reqs[i])
		}(i)
	}
	wg.Wait()

	for i, rec := range recs {
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
		count, err := api.PageCount(bytes.NewReader(rec.Body.Bytes()), nil)
		require.NoError(t, err)
		assert.Equal(t, 3, count, "request %d", i)
	}
}

// brokenPipe accepts headers but fails every body write.
type brokenPipe struct {
	header       http.Header
	writeHeaders []int
}

func (b *brokenPipe) Header() http.Header { return b.header }

func (b *brokenPipe) WriteHeader(code int) { b.writeHeaders = append(b.writeHeaders, code) }

func (b *brokenPipe) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestMergerFunction_FailedStreamWritesNoErrorBody(t *testing.T) {
	w := &brokenPipe{header: make(http.Header)}
	req := multipartRequest(t, "x", upload{"a.pdf", "application/pdf", testutil.BuildPDF(100)})

	NewMergerWithConfig(MergerConfig{}).ServeHTTP(w, req)

	assert.Equal(t, []int{http.StatusOK}, w.writeHeaders)
	assert.Equal(t, "application/pdf", w.header.Get("Content-Type"))
}
