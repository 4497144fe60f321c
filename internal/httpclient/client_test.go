package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanguard-load/vanguard/pkg/model"
)

func TestDo_SimpleGET(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(Options{Concurrency: 10, Timeout: 2 * time.Second})
	defer c.Close()

	resp, err := c.Do(context.Background(), Realized{Method: "GET", URL: srv.URL}, false)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.EqualValues(t, 2, resp.BytesReceived)
}

func TestDo_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Options{Concurrency: 1, Timeout: 20 * time.Millisecond})
	defer c.Close()

	_, err := c.Do(context.Background(), Realized{Method: "GET", URL: srv.URL}, false)
	require.Error(t, err)
	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, model.ErrTransportTimeout, tErr.Kind)
}

func TestDo_Multipart(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "upload.bin")
	require.NoError(t, os.WriteFile(filePath, make([]byte, 1024), 0o644))

	var gotContentType string
	var gotFieldValue string
	var gotFileSize int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseMultipartForm(10<<20))
		gotFieldValue = r.FormValue("name")
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		gotFileSize = int(hdr.Size)
		data, _ := io.ReadAll(f)
		gotFileSize = len(data)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("done"))
	}))
	defer srv.Close()

	c := New(Options{Concurrency: 1, Timeout: 2 * time.Second})
	defer c.Close()

	spec := Realized{
		Method: "POST",
		URL:    srv.URL,
		Kind:   model.BodyMultipart,
		Parts: []model.MultipartPart{
			{FieldName: "file", FilePath: filePath, IsFile: true},
			{FieldName: "name", Value: "foo"},
		},
	}
	resp, err := c.Do(context.Background(), spec, false)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Contains(t, gotContentType, "multipart/form-data; boundary=")
	assert.Equal(t, "foo", gotFieldValue)
	assert.Equal(t, 1024, gotFileSize)
}

func TestDo_MultipartWinsOverRaw(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("hi"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		assert.Contains(t, ct, "multipart/form-data")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Options{Concurrency: 1, Timeout: 2 * time.Second})
	defer c.Close()

	spec := Realized{
		Method: "POST",
		URL:    srv.URL,
		Kind:   model.BodyMultipart,
		Raw:    `{"ignored":true}`,
		Parts:  []model.MultipartPart{{FieldName: "f", FilePath: filePath, IsFile: true}},
	}
	_, err := c.Do(context.Background(), spec, false)
	require.NoError(t, err)
}
