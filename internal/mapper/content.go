package mapper

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sportsdesk/cmx/internal/blocks"
	"github.com/sportsdesk/cmx/internal/models"
)

// articleMapper builds story payloads. Articles without a lead image are
// skipped: the destination renders every story card from its media file.
type articleMapper struct{}

func (m *articleMapper) Kind() models.Kind { return models.KindArticle }

func (m *articleMapper) Map(ctx context.Context, rc *RunContext, record models.SourceRecord) (models.MappedRecord, error) {
	image := record.Str("image")
	if image == "" {
		return nil, nil
	}

	caption := record.Str("caption")
	if caption == "" {
		caption = record.Str("title")
	}

	mediaID, err := rc.Media.Resolve(ctx, image, caption, rc.FallbackAuthorID(), "")
	if err != nil {
		return nil, fmt.Errorf("article %s: %w", record.ID(m.Kind()), err)
	}

	body, contentBlock, err := decomposeBody(record.Str("body"))
	if err != nil {
		return nil, fmt.Errorf("article %s: %w", record.ID(m.Kind()), err)
	}

	authorName := record.Str("author")
	return models.NewMappedArticle(models.MappedContent{
		LegacyID:     record.ID(m.Kind()),
		Title:        record.Str("title"),
		Lede:         record.Str("description"),
		Body:         body,
		ContentBlock: contentBlock,
		Type:         "story",
		Status:       "publish",
		Slug:         record.Str("slug"),
		AddedByID:    rc.FallbackAuthorID(),
		AuthorID:     rc.resolveAuthor(authorName),
		CategoryID:   rc.Snapshot.Category(record.Int("category")),
		LeagueID:     rc.Snapshot.League(record.Int("subverticalid")),
		WebsiteID:    rc.Snapshot.Website(record.Int("verticalid")),
		MediaFileID:  mediaID,
		PublishedAt:  record.Str("published_at"),
		Author:       models.AuthorByline{Name: authorName},
	}), nil
}

// videoMapper builds video payloads. Records without a video link or a
// thumbnail image are skipped; the thumbnail upload carries the video URL
// and serves as both mediaFileId and mainVideoId.
type videoMapper struct{}

func (m *videoMapper) Kind() models.Kind { return models.KindVideo }

func (m *videoMapper) Map(ctx context.Context, rc *RunContext, record models.SourceRecord) (models.MappedRecord, error) {
	videoURL := record.Str("videolink")
	if videoURL == "" {
		videoURL = record.Str("url")
	}
	if videoURL == "" {
		return nil, nil
	}

	image := record.Str("image")
	if image == "" {
		return nil, nil
	}

	caption := record.Str("caption")
	if caption == "" {
		caption = record.Str("title")
	}

	mediaID, err := rc.Media.Resolve(ctx, image, caption, rc.FallbackAuthorID(), videoURL)
	if err != nil {
		return nil, fmt.Errorf("video %s: %w", record.ID(m.Kind()), err)
	}

	body, contentBlock, err := decomposeBody(record.Str("body"))
	if err != nil {
		return nil, fmt.Errorf("video %s: %w", record.ID(m.Kind()), err)
	}

	authorName := record.Str("author")
	return models.NewMappedVideo(models.MappedContent{
		LegacyID:     record.ID(m.Kind()),
		Title:        record.Str("title"),
		Lede:         record.Str("description"),
		Body:         body,
		ContentBlock: contentBlock,
		Type:         "video",
		Status:       "publish",
		Slug:         record.Str("slug"),
		AddedByID:    rc.FallbackAuthorID(),
		AuthorID:     rc.resolveAuthor(authorName),
		CategoryID:   rc.Snapshot.Category(record.Int("category")),
		LeagueID:     rc.Snapshot.League(record.Int("subverticalid")),
		WebsiteID:    rc.Snapshot.Website(record.Int("verticalid")),
		MediaFileID:  mediaID,
		MainVideoID:  mediaID,
		PublishedAt:  record.Str("post"),
		Author:       models.AuthorByline{Name: authorName},
	}), nil
}

// decomposeBody runs block decomposition and serializes the blocks for the
// contentBlock field.
func decomposeBody(raw string) (string, string, error) {
	result := blocks.Decompose(raw)
	if len(result.Blocks) == 0 {
		return result.Body, "", nil
	}

	data, err := json.Marshal(result.Blocks)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode content blocks: %w", err)
	}
	return result.Body, string(data), nil
}
