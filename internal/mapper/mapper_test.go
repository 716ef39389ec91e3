package mapper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sportsdesk/cmx/internal/models"
	"github.com/sportsdesk/cmx/internal/shared"
)

type mockMedia struct {
	resolved   []string
	videoURLs  []string
	logoCalls  int
	resolveErr error
	logoErr    error
}

func (m *mockMedia) Resolve(ctx context.Context, filename, caption, addedByID, videoURL string) (string, error) {
	if m.resolveErr != nil {
		return "", m.resolveErr
	}
	m.resolved = append(m.resolved, filename)
	m.videoURLs = append(m.videoURLs, videoURL)
	return fmt.Sprintf("media-%d", len(m.resolved)), nil
}

func (m *mockMedia) ResolveLogo(ctx context.Context, filename, caption, addedByID string) (string, error) {
	m.logoCalls++
	if m.logoErr != nil {
		return "", m.logoErr
	}
	return "logo-1", nil
}

func newTestRunContext(media *mockMedia) *RunContext {
	snap := models.NewReferenceSnapshot()
	snap.Websites[7] = "w-7"
	snap.Categories[2] = "c-2"
	snap.Leagues[9] = "l-9"
	snap.Users["One Sports"] = "u-house"
	snap.Users["Jane Reporter"] = "u-jane"

	return &RunContext{
		Snapshot:       snap,
		Media:          media,
		FallbackAuthor: "One Sports",
		EmailDomain:    "onecms.com",
	}
}

func mustMap(t *testing.T, rc *RunContext, kind models.Kind, record models.SourceRecord) models.MappedRecord {
	t.Helper()

	m, err := NewRegistry().ForKind(kind)
	if err != nil {
		t.Fatalf("ForKind(%s) failed: %v", kind, err)
	}
	mapped, err := m.Map(context.Background(), rc, record)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	return mapped
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	for _, kind := range models.Kinds() {
		if _, err := registry.ForKind(kind); err != nil {
			t.Errorf("expected mapper for %s: %v", kind, err)
		}
	}

	if _, err := registry.ForKind(models.Kind("podcasts")); !errors.Is(err, shared.ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestArticleMapper(t *testing.T) {
	record := models.SourceRecord{
		"id":            int64(101),
		"title":         "Finals Game 7 Recap",
		"description":   "How it ended",
		"body":          "<p>It went to overtime.</p>",
		"slug":          "finals-game-7-recap",
		"image":         "game7.jpg",
		"caption":       "The winning shot",
		"author":        "Jane Reporter",
		"category":      int64(2),
		"subverticalid": int64(9),
		"verticalid":    int64(7),
		"published_at":  "2024-06-10T12:00:00Z",
	}

	t.Run("MapsFullRecord", func(t *testing.T) {
		media := &mockMedia{}
		mapped := mustMap(t, newTestRunContext(media), models.KindArticle, record)

		content, ok := mapped.(*models.MappedContent)
		if !ok {
			t.Fatalf("expected *MappedContent, got %T", mapped)
		}
		if content.EntityKind() != models.KindArticle {
			t.Errorf("expected article kind, got %s", content.EntityKind())
		}
		if content.Type != "story" || content.Status != "publish" {
			t.Errorf("unexpected type/status: %s/%s", content.Type, content.Status)
		}
		if content.AuthorID != "u-jane" {
			t.Errorf("expected byline resolved to u-jane, got %q", content.AuthorID)
		}
		if content.CategoryID != "c-2" || content.LeagueID != "l-9" || content.WebsiteID != "w-7" {
			t.Errorf("unexpected refs: %s/%s/%s", content.CategoryID, content.LeagueID, content.WebsiteID)
		}
		if content.MediaFileID != "media-1" {
			t.Errorf("expected uploaded media id, got %q", content.MediaFileID)
		}
		if !strings.Contains(content.ContentBlock, `"paragraph"`) {
			t.Errorf("expected paragraph block in %q", content.ContentBlock)
		}
		if content.Author.Name != "Jane Reporter" {
			t.Errorf("byline must keep the legacy display name, got %q", content.Author.Name)
		}
	})

	t.Run("SkipsWithoutImage", func(t *testing.T) {
		media := &mockMedia{}
		bare := models.SourceRecord{"id": int64(102), "title": "No art"}

		mapped := mustMap(t, newTestRunContext(media), models.KindArticle, bare)
		if mapped != nil {
			t.Errorf("expected skip for imageless article, got %+v", mapped)
		}
		if len(media.resolved) != 0 {
			t.Error("skip must not touch the media cache")
		}
	})

	t.Run("UnknownBylineFallsBack", func(t *testing.T) {
		media := &mockMedia{}
		rc := newTestRunContext(media)

		ghost := models.SourceRecord{}
		for k, v := range record {
			ghost[k] = v
		}
		ghost["author"] = "Unknown Stringer"

		content := mustMap(t, rc, models.KindArticle, ghost).(*models.MappedContent)
		if content.AuthorID != "u-house" {
			t.Errorf("expected house account fallback, got %q", content.AuthorID)
		}
		if content.Author.Name != "Unknown Stringer" {
			t.Errorf("byline name must survive the fallback, got %q", content.Author.Name)
		}
	})

	t.Run("UnmappedReferencesStayAbsent", func(t *testing.T) {
		media := &mockMedia{}
		orphan := models.SourceRecord{}
		for k, v := range record {
			orphan[k] = v
		}
		orphan["category"] = int64(999)
		orphan["subverticalid"] = int64(999)

		content := mustMap(t, newTestRunContext(media), models.KindArticle, orphan).(*models.MappedContent)
		if content.CategoryID != "" || content.LeagueID != "" {
			t.Errorf("unmapped refs must stay empty, got %q/%q", content.CategoryID, content.LeagueID)
		}
	})

	t.Run("MediaFailurePropagates", func(t *testing.T) {
		media := &mockMedia{resolveErr: fmt.Errorf("%w: host down", shared.ErrMediaUnavailable)}
		m, _ := NewRegistry().ForKind(models.KindArticle)

		_, err := m.Map(context.Background(), newTestRunContext(media), record)
		if !errors.Is(err, shared.ErrMediaUnavailable) {
			t.Fatalf("expected ErrMediaUnavailable, got %v", err)
		}
	})
}

func TestVideoMapper(t *testing.T) {
	record := models.SourceRecord{
		"id":        int64(201),
		"title":     "Title Fight Highlights",
		"body":      "<p>Round by round.</p>",
		"slug":      "title-fight-highlights",
		"image":     "thumb.jpg",
		"videolink": "https://stream.example.com/v/201",
		"author":    "Jane Reporter",
		"post":      "2024-07-01T09:00:00Z",
	}

	t.Run("ThumbnailCarriesVideoURL", func(t *testing.T) {
		media := &mockMedia{}
		content := mustMap(t, newTestRunContext(media), models.KindVideo, record).(*models.MappedContent)

		if content.EntityKind() != models.KindVideo {
			t.Errorf("expected video kind, got %s", content.EntityKind())
		}
		if content.Type != "video" {
			t.Errorf("expected type video, got %q", content.Type)
		}
		if media.videoURLs[0] != "https://stream.example.com/v/201" {
			t.Errorf("upload must carry the video url, got %q", media.videoURLs[0])
		}
		if content.MainVideoID != content.MediaFileID || content.MainVideoID == "" {
			t.Errorf("mainVideoId must equal mediaFileId, got %q/%q", content.MainVideoID, content.MediaFileID)
		}
		if content.PublishedAt != "2024-07-01T09:00:00Z" {
			t.Errorf("videos publish from the post column, got %q", content.PublishedAt)
		}
	})

	t.Run("SkipsWithoutVideoLink", func(t *testing.T) {
		media := &mockMedia{}
		silent := models.SourceRecord{"id": int64(202), "title": "No stream", "image": "thumb.jpg"}

		if mapped := mustMap(t, newTestRunContext(media), models.KindVideo, silent); mapped != nil {
			t.Errorf("expected skip, got %+v", mapped)
		}
	})

	t.Run("SkipsWithoutThumbnail", func(t *testing.T) {
		media := &mockMedia{}
		bare := models.SourceRecord{"id": int64(203), "videolink": "https://stream.example.com/v/203"}

		if mapped := mustMap(t, newTestRunContext(media), models.KindVideo, bare); mapped != nil {
			t.Errorf("expected skip, got %+v", mapped)
		}
	})
}

func TestCategoryMapper(t *testing.T) {
	t.Run("DerivesLink", func(t *testing.T) {
		record := models.SourceRecord{"id": int64(2), "name": "Breaking News"}
		taxonomy := mustMap(t, newTestRunContext(&mockMedia{}), models.KindCategory, record).(*models.MappedTaxonomy)

		if taxonomy.Name != "Breaking News" || taxonomy.Link != "breakingnews" {
			t.Errorf("unexpected name/link: %q/%q", taxonomy.Name, taxonomy.Link)
		}
		if taxonomy.RedirectURL != "Internal" {
			t.Errorf("expected Internal redirect, got %q", taxonomy.RedirectURL)
		}
		if len(taxonomy.Refs) != 2 || taxonomy.Refs[0].ID != "u-house" {
			t.Errorf("expected house account owner refs, got %+v", taxonomy.Refs)
		}
	})

	t.Run("RenamesSportsLife", func(t *testing.T) {
		record := models.SourceRecord{"id": int64(18), "name": "Sportslife"}
		taxonomy := mustMap(t, newTestRunContext(&mockMedia{}), models.KindCategory, record).(*models.MappedTaxonomy)

		if taxonomy.Name != "Sports Life" || taxonomy.Link != "sports-life" {
			t.Errorf("expected Sports Life rename, got %q/%q", taxonomy.Name, taxonomy.Link)
		}
	})
}

func TestLeagueMapper(t *testing.T) {
	record := models.SourceRecord{"id": int64(9), "name": "PBA", "slug": "p-b-a"}
	taxonomy := mustMap(t, newTestRunContext(&mockMedia{}), models.KindLeague, record).(*models.MappedTaxonomy)

	if taxonomy.EntityKind() != models.KindLeague {
		t.Errorf("expected league kind, got %s", taxonomy.EntityKind())
	}
	if taxonomy.Link != "pba" {
		t.Errorf("league link drops hyphens, got %q", taxonomy.Link)
	}
}

func TestSponsorMapper(t *testing.T) {
	t.Run("ResolvesLogo", func(t *testing.T) {
		media := &mockMedia{}
		record := models.SourceRecord{"id": int64(5), "name": "Acme Energy", "description": "Drinks", "link": "https://acme.example.com", "logo": "acme.png"}

		sponsor := mustMap(t, newTestRunContext(media), models.KindSponsor, record).(*models.MappedSponsor)
		if sponsor.Type != "sponsor" {
			t.Errorf("expected type sponsor, got %q", sponsor.Type)
		}
		if sponsor.LogoID != "logo-1" || media.logoCalls != 1 {
			t.Errorf("expected logo resolution, got id %q after %d calls", sponsor.LogoID, media.logoCalls)
		}
	})

	t.Run("NoLogoMeansNoUpload", func(t *testing.T) {
		media := &mockMedia{}
		record := models.SourceRecord{"id": int64(6), "name": "Quiet Corp"}

		sponsor := mustMap(t, newTestRunContext(media), models.KindSponsor, record).(*models.MappedSponsor)
		if sponsor.LogoID != "" || media.logoCalls != 0 {
			t.Errorf("expected no logo work, got %q after %d calls", sponsor.LogoID, media.logoCalls)
		}
	})
}

func TestUserMapper(t *testing.T) {
	t.Run("CleansNamesAndSynthesizesEmail", func(t *testing.T) {
		rc := newTestRunContext(&mockMedia{})
		record := models.SourceRecord{"distinct_author": "Juan  Dela Cruz Jr."}

		user := mustMap(t, rc, models.KindUser, record).(*models.MappedUser)
		if user.FirstName != "Juan" {
			t.Errorf("unexpected first name %q", user.FirstName)
		}
		if user.LastName != "DelaCruzJr" {
			t.Errorf("unexpected last name %q", user.LastName)
		}
		if user.Email != "contributor1@onecms.com" {
			t.Errorf("unexpected email %q", user.Email)
		}
	})

	t.Run("SingleTokenName", func(t *testing.T) {
		rc := newTestRunContext(&mockMedia{})
		record := models.SourceRecord{"distinct_author": "Staff"}

		user := mustMap(t, rc, models.KindUser, record).(*models.MappedUser)
		if user.FirstName != "Staff" || user.LastName != "N/A" {
			t.Errorf("unexpected names %q/%q", user.FirstName, user.LastName)
		}
	})

	t.Run("SkipsEmptyByline", func(t *testing.T) {
		rc := newTestRunContext(&mockMedia{})
		if mapped := mustMap(t, rc, models.KindUser, models.SourceRecord{"distinct_author": "  "}); mapped != nil {
			t.Errorf("expected skip for blank byline, got %+v", mapped)
		}
	})

	t.Run("SeededCounterContinuesNumbering", func(t *testing.T) {
		rc := newTestRunContext(&mockMedia{})
		rc.SeedEmails(41)

		first := mustMap(t, rc, models.KindUser, models.SourceRecord{"distinct_author": "A Writer"}).(*models.MappedUser)
		second := mustMap(t, rc, models.KindUser, models.SourceRecord{"distinct_author": "B Writer"}).(*models.MappedUser)

		if first.Email != "contributor42@onecms.com" {
			t.Errorf("expected contributor42, got %q", first.Email)
		}
		if second.Email != "contributor43@onecms.com" {
			t.Errorf("expected contributor43, got %q", second.Email)
		}
	})
}
