package media

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sportsdesk/cmx/internal/services"
	"github.com/sportsdesk/cmx/internal/shared"
)

// Cache maps normalized legacy filenames to destination media ids. Lookups
// and inserts go through the shared sqlite database so every worker in a
// run, and every later run, sees the same mappings.
type Cache struct {
	db      *sql.DB
	dest    services.Destination
	fetcher *Fetcher
	logger  *log.Logger

	captionFallback string
	defaultAssetID  string
}

// NewCache wires a Cache over the ledger database, the upload endpoint and
// a byte fetcher.
func NewCache(db *sql.DB, dest services.Destination, fetcher *Fetcher, cfg shared.MediaConfig, logger *log.Logger) *Cache {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Cache{
		db:              db,
		dest:            dest,
		fetcher:         fetcher,
		logger:          logger,
		captionFallback: cfg.UploadCaptionFallback,
		defaultAssetID:  cfg.DefaultAssetID,
	}
}

// NormalizeKey canonicalizes a filename for cache lookup. It is the same
// normalization the byte fetcher applies, so encoding and case variants of
// one asset share a single cache entry and resolve to the same local file.
func NormalizeKey(filename string) string {
	return CleanFilename(filename)
}

// Resolve returns the destination media id for a legacy filename, uploading
// the asset on a cache miss. A non-empty videoURL switches the upload to the
// video payload variant. All failures are [shared.ErrMediaUnavailable] wraps.
func (c *Cache) Resolve(ctx context.Context, filename, caption, addedByID, videoURL string) (string, error) {
	key := NormalizeKey(filename)
	if key == "" {
		return "", fmt.Errorf("%w: empty filename", shared.ErrMediaUnavailable)
	}

	if id, ok, err := c.lookup(ctx, key); err != nil {
		return "", err
	} else if ok {
		return id, nil
	}

	data, err := c.fetcher.Fetch(ctx, filename)
	if err != nil {
		return "", err
	}

	if caption == "" {
		caption = c.captionFallback
	}
	width, height := probeDimensions(data)

	id, err := c.dest.UploadMedia(ctx, services.MediaUpload{
		Filename:    CleanFilename(filename),
		Data:        data,
		ContentType: http.DetectContentType(data),
		Caption:     caption,
		AddedByID:   addedByID,
		Width:       width,
		Height:      height,
		VideoURL:    videoURL,
	})
	if err != nil {
		return "", fmt.Errorf("%w: upload %s: %v", shared.ErrMediaUnavailable, key, err)
	}

	return c.persist(ctx, key, id)
}

// ResolveLogo uploads a sponsor logo without touching the shared cache.
// Failures fall back to the configured default asset; only a missing
// default is an error.
func (c *Cache) ResolveLogo(ctx context.Context, filename, caption, addedByID string) (string, error) {
	id, err := c.uploadLogo(ctx, filename, caption, addedByID)
	if err == nil {
		return id, nil
	}

	if c.defaultAssetID == "" {
		return "", err
	}
	c.logger.Warn("falling back to default logo asset", "file", filename, "error", err)
	return c.defaultAssetID, nil
}

func (c *Cache) uploadLogo(ctx context.Context, filename, caption, addedByID string) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", fmt.Errorf("%w: empty logo filename", shared.ErrMediaUnavailable)
	}

	data, err := c.fetcher.Fetch(ctx, filename)
	if err != nil {
		return "", err
	}

	if caption == "" {
		caption = c.captionFallback
	}
	width, height := probeDimensions(data)

	id, err := c.dest.UploadMedia(ctx, services.MediaUpload{
		Filename:    CleanFilename(filename),
		Data:        data,
		ContentType: http.DetectContentType(data),
		Caption:     caption,
		AddedByID:   addedByID,
		Width:       width,
		Height:      height,
	})
	if err != nil {
		return "", fmt.Errorf("%w: upload logo %s: %v", shared.ErrMediaUnavailable, filename, err)
	}
	return id, nil
}

func (c *Cache) lookup(ctx context.Context, key string) (string, bool, error) {
	var id string
	err := c.db.QueryRowContext(ctx,
		`SELECT media_file_id FROM media_mappings WHERE filename = ?`, key,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: mapping lookup %s: %v", shared.ErrMediaUnavailable, key, err)
	}
	return id, true, nil
}

// persist stores the mapping before Resolve returns so a crash between
// upload and insert is the only window for a re-upload. When a concurrent
// worker got there first, its id wins and ours is discarded.
func (c *Cache) persist(ctx context.Context, key, id string) (string, error) {
	res, err := c.db.ExecContext(ctx,
		`INSERT INTO media_mappings (filename, media_file_id) VALUES (?, ?)
		 ON CONFLICT (filename) DO NOTHING`, key, id,
	)
	if err != nil {
		return "", fmt.Errorf("%w: persist mapping %s: %v", shared.ErrMediaUnavailable, key, err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		if stored, ok, err := c.lookup(ctx, key); err == nil && ok {
			c.logger.Debug("concurrent upload won the mapping", "file", key, "kept", stored, "discarded", id)
			return stored, nil
		}
	}

	c.logger.Info("cached media mapping", "file", key, "mediaFileId", id)
	return id, nil
}

// Mapping is one cached filename → media id row.
type Mapping struct {
	Filename    string    `json:"filename"`
	MediaFileID string    `json:"mediaFileId"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// Mappings returns the most recently cached mappings, newest first.
// A limit of zero or less returns everything.
func (c *Cache) Mappings(ctx context.Context, limit int) ([]Mapping, error) {
	query := `SELECT filename, media_file_id, uploaded_at FROM media_mappings ORDER BY uploaded_at DESC, filename`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list mappings: %v", shared.ErrMediaUnavailable, err)
	}
	defer rows.Close()

	var mappings []Mapping
	for rows.Next() {
		var m Mapping
		if err := rows.Scan(&m.Filename, &m.MediaFileID, &m.UploadedAt); err != nil {
			return nil, fmt.Errorf("%w: scan mapping: %v", shared.ErrMediaUnavailable, err)
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

// probeDimensions decodes just the image header. Unknown formats report
// zero dimensions rather than failing the upload.
func probeDimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
