// Destination CMS API client.
//
// The destination is only reachable over REST; every write goes through a
// shared rate limiter and a small fixed retry budget for transient network
// failures. Responses reporting an existing record are classified as
// duplicates, which the orchestrator counts separately from errors.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/sportsdesk/cmx/internal/models"
	"github.com/sportsdesk/cmx/internal/shared"
)

// Client implements [Destination] against the CMS REST API.
type Client struct {
	baseURL      string
	migrationKey string
	httpClient   *http.Client
	limiter      *rate.Limiter
	retries      int
	retryDelay   time.Duration
	logger       *log.Logger
}

// NewClient creates a destination API client from configuration. When an
// OAuth2 token URL is configured the client authenticates with client
// credentials; otherwise it sends the static migration key header.
func NewClient(cfg shared.APIConfig, logger *log.Logger) *Client {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}
	if cfg.OAuth.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			TokenURL:     cfg.OAuth.TokenURL,
		}
		httpClient = cc.Client(context.Background())
		httpClient.Timeout = 60 * time.Second
	}

	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 10
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}
	retries := cfg.RetryAttempts
	if retries <= 0 {
		retries = 3
	}
	delay := time.Duration(cfg.RetryDelayMS) * time.Millisecond
	if delay <= 0 {
		delay = 1500 * time.Millisecond
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		migrationKey: cfg.MigrationKey,
		httpClient:   httpClient,
		limiter:      rate.NewLimiter(rate.Limit(rps), burst),
		retries:      retries,
		retryDelay:   delay,
		logger:       logger,
	}
}

// endpointFor maps a content kind to its destination API path. Articles and
// videos both live under the contents endpoint; sponsors are management
// items in the destination model.
func endpointFor(kind models.Kind) (string, error) {
	switch kind {
	case models.KindArticle, models.KindVideo:
		return "/api/contents/", nil
	case models.KindCategory:
		return "/api/categories/", nil
	case models.KindLeague:
		return "/api/leagues/", nil
	case models.KindSponsor:
		return "/api/management-items/", nil
	case models.KindUser:
		return "/api/users/", nil
	default:
		return "", fmt.Errorf("%w: %s", shared.ErrUnknownKind, kind)
	}
}

// referencePath maps a snapshot resource name to its listing endpoint.
func referencePath(resource string) (string, error) {
	switch resource {
	case "websites", "categories", "leagues", "roles", "users":
		return "/api/" + resource, nil
	default:
		return "", fmt.Errorf("%w: unknown reference resource %q", shared.ErrInvalidArgument, resource)
	}
}

// Post creates one record in the destination.
func (c *Client) Post(ctx context.Context, kind models.Kind, record models.MappedRecord) (*PostResult, error) {
	endpoint, err := endpointFor(kind)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", kind, err)
	}

	var result *PostResult
	err = c.withRetry(ctx, func() (bool, error) {
		resp, body, err := c.do(ctx, http.MethodPost, endpoint, "application/json", bytes.NewReader(payload))
		if err != nil {
			return true, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			raw := decodeObject(body)
			result = &PostResult{
				DestinationID: extractID(raw),
				StatusCode:    resp.StatusCode,
				Raw:           raw,
			}
			return false, nil
		}

		message := responseMessage(body)
		if strings.Contains(strings.ToLower(message), "already exists") {
			return false, fmt.Errorf("%w: %s", shared.ErrDuplicate, message)
		}
		// Server-side failures are worth retrying; validation errors are not.
		retryable := resp.StatusCode >= 500
		return retryable, fmt.Errorf("%w: %s %d: %s", shared.ErrAPIRequest, endpoint, resp.StatusCode, message)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Exists checks whether a record with the given legacy id already exists.
// A failed check resolves to false; skipping a record because the check
// errored would silently drop data.
func (c *Client) Exists(ctx context.Context, kind models.Kind, legacyID string) (bool, error) {
	endpoint, err := endpointFor(kind)
	if err != nil {
		return false, err
	}

	query := map[string]any{
		"where": map[string]any{
			"_and": []map[string]any{
				{"field": "deletedOn", "value": nil},
				{"field": "legacyId", "value": legacyID},
			},
		},
		"columns": []string{"id"},
		"limit":   1,
	}
	q, err := json.Marshal(query)
	if err != nil {
		return false, fmt.Errorf("failed to marshal existence query: %w", err)
	}

	path := strings.TrimRight(endpoint, "/") + "?q=" + url.QueryEscape(string(q))
	resp, body, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		c.logger.Warn("existence check failed, assuming absent", "kind", kind, "legacyId", legacyID, "err", err)
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("existence check returned non-2xx, assuming absent", "kind", kind, "legacyId", legacyID, "status", resp.StatusCode)
		return false, nil
	}

	return len(extractList(body)) > 0, nil
}

// List fetches a reference resource for snapshot loading. Soft-deleted
// rows are excluded server-side.
func (c *Client) List(ctx context.Context, resource string, columns []string) ([]ReferenceItem, error) {
	endpoint, err := referencePath(resource)
	if err != nil {
		return nil, err
	}

	query := map[string]any{
		"where": map[string]any{
			"_and": []map[string]any{{"field": "deletedOn", "value": nil}},
		},
		"columns": columns,
	}
	q, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal list query: %w", err)
	}

	path := endpoint + "?q=" + url.QueryEscape(string(q))
	resp, body, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: listing %s: %v", shared.ErrAPIRequest, resource, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: listing %s: status %d", shared.ErrAPIRequest, resource, resp.StatusCode)
	}

	var items []ReferenceItem
	for _, entry := range extractList(body) {
		item := ReferenceItem{}
		if id, ok := entry["id"].(string); ok {
			item.ID = id
		}
		if name, ok := entry["name"].(string); ok {
			item.Name = name
		} else if name, ok := entry["firstName"].(string); ok {
			item.Name = name
		}
		items = append(items, item)
	}
	return items, nil
}

// UploadMedia pushes one asset to the media files endpoint using the
// multipart form layout the destination expects: the raw file plus a
// data[0] JSON descriptor whose shape depends on photo vs video.
func (c *Client) UploadMedia(ctx context.Context, upload MediaUpload) (string, error) {
	contentType := upload.ContentType
	if contentType == "" {
		if upload.VideoURL != "" {
			contentType = "video/mp4"
		} else {
			contentType = "image/jpeg"
		}
	}

	descriptor := map[string]any{
		"type":      "photo",
		"aliases":   []string{"files/photo/" + upload.Filename},
		"caption":   upload.Caption,
		"addedById": upload.AddedByID,
		"info": map[string]any{
			"name":   upload.Filename,
			"type":   contentType,
			"size":   len(upload.Data),
			"height": upload.Height,
			"width":  upload.Width,
		},
	}
	if upload.VideoURL != "" {
		descriptor["type"] = "video"
		descriptor["aliases"] = []string{"files/video/" + upload.Filename}
		descriptor["urls"] = []string{upload.VideoURL}
	}
	descriptorJSON, err := json.Marshal(descriptor)
	if err != nil {
		return "", fmt.Errorf("failed to marshal media descriptor: %w", err)
	}

	var mediaFileID string
	err = c.withRetry(ctx, func() (bool, error) {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)

		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, upload.Filename))
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return false, fmt.Errorf("failed to create multipart file: %w", err)
		}
		if _, err := part.Write(upload.Data); err != nil {
			return false, fmt.Errorf("failed to write multipart file: %w", err)
		}
		if err := writer.WriteField("data[0]", string(descriptorJSON)); err != nil {
			return false, fmt.Errorf("failed to write media descriptor: %w", err)
		}
		if err := writer.Close(); err != nil {
			return false, fmt.Errorf("failed to finalize multipart form: %w", err)
		}

		path := "/api/media-files/?columns=image,fileName,caption,type,info,tags"
		resp, body, err := c.do(ctx, http.MethodPost, path, writer.FormDataContentType(), &buf)
		if err != nil {
			return true, fmt.Errorf("%w: media upload: %v", shared.ErrAPIRequest, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return resp.StatusCode >= 500, fmt.Errorf("%w: media upload status %d: %s", shared.ErrAPIRequest, resp.StatusCode, responseMessage(body))
		}

		raw := decodeObject(body)
		mediaFileID = extractID(raw)
		if mediaFileID == "" {
			return false, fmt.Errorf("%w: media upload response carried no id", shared.ErrAPIRequest)
		}
		return false, nil
	})
	if err != nil {
		return "", err
	}

	c.logger.Info("uploaded media", "file", upload.Filename, "mediaFileId", mediaFileID)
	return mediaFileID, nil
}

// do issues one rate-limited HTTP request and returns the response and its
// fully read body.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.migrationKey != "" {
		req.Header.Set("x-migration-key", c.migrationKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp, data, nil
}

// withRetry runs fn until it succeeds, returns a terminal error, or the
// retry budget runs out. fn reports whether its error is retryable.
func (c *Client) withRetry(ctx context.Context, fn func() (retryable bool, err error)) error {
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		retryable, err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable || attempt == c.retries {
			return lastErr
		}

		c.logger.Warn("retrying request", "attempt", attempt, "err", err)
		select {
		case <-time.After(c.retryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

// decodeObject parses a JSON object body, returning nil for anything else.
func decodeObject(body []byte) map[string]any {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}
	return raw
}

// extractList pulls the array out of a listing response. The destination
// is inconsistent about its envelope key, so several shapes are accepted.
func extractList(body []byte) []map[string]any {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}

	var arr []any
	switch v := raw.(type) {
	case []any:
		arr = v
	case map[string]any:
		for _, key := range []string{"list", "data", "items"} {
			if candidate, ok := v[key].([]any); ok {
				arr = candidate
				break
			}
		}
	}

	var out []map[string]any
	for _, entry := range arr {
		if obj, ok := entry.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

// extractID digs the created record's id out of a post response. The id
// lives under a type-specific envelope key (story, mediaFile, ...), or at
// the top level for simpler resources.
func extractID(raw map[string]any) string {
	if raw == nil {
		return ""
	}
	if id, ok := raw["id"].(string); ok && id != "" {
		return id
	}
	for _, key := range []string{"story", "mediaFile", "data", "item"} {
		if obj, ok := raw[key].(map[string]any); ok {
			if id, ok := obj["id"].(string); ok && id != "" {
				return id
			}
		}
	}
	for _, v := range raw {
		if obj, ok := v.(map[string]any); ok {
			if id, ok := obj["id"].(string); ok && id != "" {
				return id
			}
		}
	}
	return ""
}

// responseMessage extracts a human-readable error message from a response.
func responseMessage(body []byte) string {
	raw := decodeObject(body)
	if raw != nil {
		if msg, ok := raw["message"].(string); ok && msg != "" {
			return msg
		}
		if msg, ok := raw["error"].(string); ok && msg != "" {
			return msg
		}
	}
	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) > 300 {
		trimmed = trimmed[:300]
	}
	return trimmed
}
