// package services defines interface Destination for interacting with the
// destination CMS HTTP API.
package services

import (
	"context"

	"github.com/sportsdesk/cmx/internal/models"
)

// Destination defines the surface of the destination CMS API the migration
// needs: posting mapped records, idempotency lookups, bulk reference listing
// and media uploads.
type Destination interface {
	// Post creates one record of the given kind and returns the assigned
	// destination id. A response indicating the record already exists is
	// surfaced as a [shared.ErrDuplicate] wrap.
	Post(ctx context.Context, kind models.Kind, record models.MappedRecord) (*PostResult, error)

	// Exists reports whether a record with the given legacy id is already
	// present in the destination. Lookup failures resolve to false so a
	// flaky check never causes a record to be skipped.
	Exists(ctx context.Context, kind models.Kind, legacyID string) (bool, error)

	// List fetches a reference resource (websites, categories, leagues,
	// roles, users) for snapshot loading.
	List(ctx context.Context, resource string, columns []string) ([]ReferenceItem, error)

	// UploadMedia uploads one media asset and returns the destination
	// media file id.
	UploadMedia(ctx context.Context, upload MediaUpload) (string, error)
}

// PostResult carries the outcome of a successful destination post.
type PostResult struct {
	DestinationID string
	StatusCode    int
	Raw           map[string]any
}

// ReferenceItem is one entry of a bulk reference listing.
type ReferenceItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MediaUpload describes one media asset to push to the destination.
// A non-empty VideoURL selects the video payload variant; otherwise the
// asset is uploaded as a still image.
type MediaUpload struct {
	Filename    string
	Data        []byte
	ContentType string
	Caption     string
	AddedByID   string
	Width       int
	Height      int
	VideoURL    string
}
