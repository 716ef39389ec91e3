package mapper

import (
	"context"
	"regexp"
	"strings"

	"github.com/sportsdesk/cmx/internal/models"
)

var nonWord = regexp.MustCompile(`[^\w]`)

// userMapper turns distinct legacy bylines into contributor accounts.
// Legacy authors have no stored email, so each gets a synthesized address
// from the run's counter.
type userMapper struct{}

func (m *userMapper) Kind() models.Kind { return models.KindUser }

func (m *userMapper) Map(ctx context.Context, rc *RunContext, record models.SourceRecord) (models.MappedRecord, error) {
	display := record.Str("distinct_author")
	if display == "" {
		return nil, nil
	}

	first, last := splitName(display)
	return &models.MappedUser{
		FirstName: first,
		LastName:  last,
		Email:     rc.NextEmail(),
	}, nil
}

// splitName breaks a byline into first/last, stripping non-word characters
// the destination rejects. Single-token names get "N/A" as the last name.
func splitName(display string) (string, string) {
	fields := strings.Fields(display)
	if len(fields) == 0 {
		return "N/A", "N/A"
	}

	first := nonWord.ReplaceAllString(fields[0], "")
	last := nonWord.ReplaceAllString(strings.Join(fields[1:], ""), "")
	if first == "" {
		first = "N/A"
	}
	if last == "" {
		last = "N/A"
	}
	return first, last
}
