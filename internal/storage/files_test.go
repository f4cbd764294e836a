package storage

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := NewFileStore(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return store
}

func multipartFiles(t *testing.T, names ...string) []*multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, name := range names {
		part, err := writer.CreateFormFile("images", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte("fake image bytes")); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("parse multipart form: %v", err)
	}

	return req.MultipartForm.File["images"]
}

func TestStoredName_ReplacesColons(t *testing.T) {
	store := newTestStore(t)
	store.timeFunc = func() time.Time {
		return time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC)
	}

	name := store.StoredName("car.jpg")

	if strings.Contains(name, ":") {
		t.Errorf("stored name must not contain colons, got %s", name)
	}
	if !strings.HasPrefix(name, "2024-03-15T10-30-45") {
		t.Errorf("expected timestamp prefix, got %s", name)
	}
	if !strings.HasSuffix(name, "car.jpg") {
		t.Errorf("expected original filename suffix, got %s", name)
	}
}

func TestStoredName_StripsPathComponents(t *testing.T) {
	store := newTestStore(t)

	name := store.StoredName("../../etc/passwd")

	if strings.Contains(name, "/") || strings.Contains(name, "..") {
		t.Errorf("stored name must not contain path components, got %s", name)
	}
}

func TestSave_WritesFile(t *testing.T) {
	store := newTestStore(t)
	files := multipartFiles(t, "one.jpg")

	path, err := store.Save(files[0])
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !strings.HasPrefix(path, filepath.ToSlash(store.Dir())+"/") {
		t.Errorf("expected stored path under %s, got %s", store.Dir(), path)
	}

	data, err := os.ReadFile(filepath.FromSlash(path))
	if err != nil {
		t.Fatalf("expected stored file to exist: %v", err)
	}
	if string(data) != "fake image bytes" {
		t.Errorf("unexpected file contents: %s", data)
	}
}

func TestSaveAll_OrderPreserving(t *testing.T) {
	store := newTestStore(t)
	files := multipartFiles(t, "a.jpg", "b.jpg", "c.jpg")

	stored := store.SaveAll(files)

	if len(stored) != 3 {
		t.Fatalf("expected 3 stored paths, got %d", len(stored))
	}
	for i, want := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		if !strings.HasSuffix(stored[i], want) {
			t.Errorf("expected stored[%d] to end with %s, got %s", i, want, stored[i])
		}
	}
}
