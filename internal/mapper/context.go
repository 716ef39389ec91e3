package mapper

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/sportsdesk/cmx/internal/models"
)

// MediaResolver is the slice of the media cache mappers need.
type MediaResolver interface {
	Resolve(ctx context.Context, filename, caption, addedByID, videoURL string) (string, error)
	ResolveLogo(ctx context.Context, filename, caption, addedByID string) (string, error)
}

// RunContext carries the run-scoped state mappers read: the reference
// snapshot, the media cache and the contributor email counter. Safe for
// concurrent use by record workers.
type RunContext struct {
	Snapshot *models.ReferenceSnapshot
	Media    MediaResolver

	// FallbackAuthor is the display name of the house account used when a
	// legacy byline matches no migrated contributor.
	FallbackAuthor string

	// EmailDomain is the domain for synthesized contributor addresses.
	EmailDomain string

	emails atomic.Int64
}

// SeedEmails positions the email counter so a resumed user migration
// continues numbering where the last run stopped. Seed with the ledger's
// user success count.
func (rc *RunContext) SeedEmails(n int) {
	rc.emails.Store(int64(n))
}

// NextEmail synthesizes a unique contributor address. Legacy bylines carry
// no email, so every migrated user gets one.
func (rc *RunContext) NextEmail() string {
	n := rc.emails.Add(1)
	return fmt.Sprintf("contributor%d@%s", n, rc.EmailDomain)
}

// FallbackAuthorID resolves the house account's destination id, "" when the
// account has not been migrated yet.
func (rc *RunContext) FallbackAuthorID() string {
	return rc.Snapshot.User(rc.FallbackAuthor)
}

// resolveAuthor looks up a legacy byline, falling back to the house account.
func (rc *RunContext) resolveAuthor(displayName string) string {
	if id := rc.Snapshot.User(displayName); id != "" {
		return id
	}
	return rc.FallbackAuthorID()
}
