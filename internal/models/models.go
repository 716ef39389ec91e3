package models

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies a migratable content kind.
type Kind string

const (
	KindArticle  Kind = "articles"
	KindVideo    Kind = "videos"
	KindCategory Kind = "categories"
	KindLeague   Kind = "leagues"
	KindSponsor  Kind = "sponsors"
	KindUser     Kind = "users"
)

// Kinds lists every migratable kind in priority order (reference data
// first, content last, since articles depend on migrated users).
func Kinds() []Kind {
	return []Kind{KindLeague, KindCategory, KindUser, KindSponsor, KindArticle, KindVideo}
}

// ParseKind converts a CLI/config string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown content kind %q", s)
}

// SourceRecord is one raw row read from the legacy database. Column names
// are lowercased on read; values are whatever the driver produced.
// Records are immutable once read.
type SourceRecord map[string]any

// ID returns the record's stable identifier. User rows are keyed by the
// distinct author column; everything else carries a numeric id.
func (r SourceRecord) ID(kind Kind) string {
	if kind == KindUser {
		return r.Str("distinct_author")
	}
	return r.Str("id")
}

// Str returns the named column as a trimmed string, or "" when absent.
func (r SourceRecord) Str(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

// Int returns the named column as an int, or 0 when absent or non-numeric.
func (r SourceRecord) Int(key string) int {
	v, ok := r[key]
	if !ok || v == nil {
		return 0
	}
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	case float64:
		return int(t)
	case []byte:
		var n int
		fmt.Sscanf(string(t), "%d", &n)
		return n
	case string:
		var n int
		fmt.Sscanf(t, "%d", &n)
		return n
	default:
		return 0
	}
}

// BlockKind classifies one content block extracted from a rich-text body.
type BlockKind string

const (
	BlockHeading   BlockKind = "heading"
	BlockParagraph BlockKind = "paragraph"
	BlockEmbed     BlockKind = "embed_html"
	BlockScript    BlockKind = "embed_script"
)

// ContentBlock is one structurally classified unit of a rich-text body.
// Order within a document is significant and preserved end-to-end.
type ContentBlock struct {
	ID   string    `json:"id"`
	Key  BlockKind `json:"key"`
	Data string    `json:"data"`
}

// Ref is a relationship reference in a destination payload.
type Ref struct {
	Model   string `json:"model"`
	ID      string `json:"id"`
	ModelID string `json:"modelId"`
}

// AuthorByline carries the display name of the legacy author.
type AuthorByline struct {
	Name string `json:"name"`
}

// MappedRecord is a destination-shaped record ready to post.
type MappedRecord interface {
	EntityKind() Kind
}

// MappedContent is the destination payload for articles and videos.
type MappedContent struct {
	LegacyID     string       `json:"legacyId,omitempty"`
	Title        string       `json:"title"`
	Lede         string       `json:"lede"`
	Body         string       `json:"body"`
	ContentBlock string       `json:"contentBlock,omitempty"`
	Type         string       `json:"type"`
	Status       string       `json:"status"`
	Slug         string       `json:"slug"`
	AddedByID    string       `json:"addedById"`
	AuthorID     string       `json:"authorId,omitempty"`
	CategoryID   string       `json:"categoryId,omitempty"`
	LeagueID     string       `json:"leagueId,omitempty"`
	WebsiteID    string       `json:"websiteId,omitempty"`
	MediaFileID  string       `json:"mediaFileId,omitempty"`
	MainVideoID  string       `json:"mainVideoId,omitempty"`
	PublishedAt  string       `json:"publishedAt,omitempty"`
	Settings     any          `json:"settings"`
	Author       AuthorByline `json:"author"`

	kind Kind
}

// NewMappedArticle tags content as an article payload.
func NewMappedArticle(c MappedContent) *MappedContent { c.kind = KindArticle; return &c }

// NewMappedVideo tags content as a video payload.
func NewMappedVideo(c MappedContent) *MappedContent { c.kind = KindVideo; return &c }

func (c *MappedContent) EntityKind() Kind {
	if c.kind == "" {
		return KindArticle
	}
	return c.kind
}

// MappedTaxonomy is the destination payload for categories and leagues.
type MappedTaxonomy struct {
	Name        string `json:"name"`
	RedirectURL string `json:"redirectUrl"`
	Link        string `json:"link"`
	Refs        []Ref  `json:"refs"`

	kind Kind
}

// NewMappedCategory tags a taxonomy payload as a category.
func NewMappedCategory(t MappedTaxonomy) *MappedTaxonomy { t.kind = KindCategory; return &t }

// NewMappedLeague tags a taxonomy payload as a league.
func NewMappedLeague(t MappedTaxonomy) *MappedTaxonomy { t.kind = KindLeague; return &t }

func (t *MappedTaxonomy) EntityKind() Kind {
	if t.kind == "" {
		return KindCategory
	}
	return t.kind
}

// MappedSponsor is the destination payload for sponsors.
type MappedSponsor struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Link        string `json:"link"`
	LogoID      string `json:"logoId,omitempty"`
	Refs        []Ref  `json:"refs"`
}

func (s *MappedSponsor) EntityKind() Kind { return KindSponsor }

// MappedUser is the destination payload for contributors.
type MappedUser struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

func (u *MappedUser) EntityKind() Kind { return KindUser }

// Outcome classifies one ledger entry.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// LedgerEntry records one migration outcome for a source record.
type LedgerEntry struct {
	Kind          Kind
	SourceID      string
	Outcome       Outcome
	DestinationID string
	Title         string
	Slug          string
	Stage         string
	Reason        string
	Timestamp     time.Time
}

// FailureDetail is one failed source id with its reason, for operator triage.
type FailureDetail struct {
	SourceID string `json:"sourceId"`
	Stage    string `json:"stage"`
	Reason   string `json:"reason"`
}

// MigrationSummary aggregates counts across all batches of one run.
type MigrationSummary struct {
	Kind           Kind            `json:"kind"`
	Success        int             `json:"success"`
	Errors         int             `json:"errors"`
	Existing       int             `json:"existing"`
	Skipped        int             `json:"skipped"`
	Total          int             `json:"total"`
	TotalAvailable int             `json:"totalAvailable"`
	Batches        int             `json:"batches"`
	Duration       time.Duration   `json:"duration"`
	Failed         []FailureDetail `json:"failed,omitempty"`
}

// Processed returns how many records produced a terminal classification.
func (s *MigrationSummary) Processed() int {
	return s.Success + s.Errors + s.Existing + s.Skipped
}

// ReferenceSnapshot caches cross-system id mappings for one run.
// A missing entry is a valid absent state, not an error; consumers treat
// it as "no destination reference available". Read-only once loaded.
type ReferenceSnapshot struct {
	Websites   map[int]string    // legacy vertical id -> destination website id
	Categories map[int]string    // legacy category id -> destination category id
	Leagues    map[int]string    // legacy subvertical id -> destination league id
	Roles      map[string]string // role name -> destination role id
	Users      map[string]string // display name -> destination user id
}

// NewReferenceSnapshot returns a snapshot with all maps allocated.
func NewReferenceSnapshot() *ReferenceSnapshot {
	return &ReferenceSnapshot{
		Websites:   make(map[int]string),
		Categories: make(map[int]string),
		Leagues:    make(map[int]string),
		Roles:      make(map[string]string),
		Users:      make(map[string]string),
	}
}

// Website resolves a legacy vertical id, returning "" when unmapped.
func (s *ReferenceSnapshot) Website(legacyID int) string { return s.Websites[legacyID] }

// Category resolves a legacy category id, returning "" when unmapped.
func (s *ReferenceSnapshot) Category(legacyID int) string { return s.Categories[legacyID] }

// League resolves a legacy subvertical id, returning "" when unmapped.
func (s *ReferenceSnapshot) League(legacyID int) string { return s.Leagues[legacyID] }

// User resolves a contributor display name, returning "" when unmapped.
func (s *ReferenceSnapshot) User(displayName string) string { return s.Users[displayName] }
