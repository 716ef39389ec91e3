// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/sportsdesk/cmx/internal/models"
	"github.com/sportsdesk/cmx/internal/services"
	"github.com/sportsdesk/cmx/internal/source"
)

// MockDestination is a test double for [services.Destination]. Posts are
// recorded under a mutex so concurrent batch workers can share one instance.
type MockDestination struct {
	mu sync.Mutex

	Posts     []models.MappedRecord
	PostErr   error
	Existing  map[string]bool
	Items     map[string][]services.ReferenceItem
	ListErr   error
	UploadID  string
	UploadErr error
	Uploads   []services.MediaUpload
}

func (m *MockDestination) Post(ctx context.Context, kind models.Kind, record models.MappedRecord) (*services.PostResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PostErr != nil {
		return nil, m.PostErr
	}
	m.Posts = append(m.Posts, record)
	return &services.PostResult{DestinationID: "dest-1", StatusCode: http.StatusCreated}, nil
}

func (m *MockDestination) Exists(ctx context.Context, kind models.Kind, legacyID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Existing[string(kind)+"/"+legacyID], nil
}

func (m *MockDestination) List(ctx context.Context, resource string, columns []string) ([]services.ReferenceItem, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Items[resource], nil
}

func (m *MockDestination) UploadMedia(ctx context.Context, upload services.MediaUpload) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UploadErr != nil {
		return "", m.UploadErr
	}
	m.Uploads = append(m.Uploads, upload)
	if m.UploadID != "" {
		return m.UploadID, nil
	}
	return "media-1", nil
}

// PostCount reports how many records were posted.
func (m *MockDestination) PostCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Posts)
}

// MockStore is a test double for [source.Store] backed by a fixed record slice.
type MockStore struct {
	Records  []models.SourceRecord
	CountErr error
	ReadErr  error
}

func (m *MockStore) Count(ctx context.Context, kind models.Kind) (int, error) {
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	return len(m.Records), nil
}

func (m *MockStore) ReadPage(ctx context.Context, kind models.Kind, variant source.Variant, offset, limit int) ([]models.SourceRecord, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	if offset >= len(m.Records) {
		return nil, nil
	}
	end := offset + limit
	if end > len(m.Records) {
		end = len(m.Records)
	}
	return m.Records[offset:end], nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
