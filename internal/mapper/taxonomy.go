package mapper

import (
	"context"
	"fmt"
	"strings"

	"github.com/sportsdesk/cmx/internal/models"
)

// The legacy "Sportslife" category was renamed during the redesign; its
// destination counterpart keeps the old numeric id.
const sportsLifeCategoryID = 18

type categoryMapper struct{}

func (m *categoryMapper) Kind() models.Kind { return models.KindCategory }

func (m *categoryMapper) Map(ctx context.Context, rc *RunContext, record models.SourceRecord) (models.MappedRecord, error) {
	name := record.Str("name")
	link := strings.ReplaceAll(strings.ToLower(name), " ", "")
	if record.Int("id") == sportsLifeCategoryID {
		name = "Sports Life"
		link = "sports-life"
	}
	if name == "" {
		return nil, nil
	}

	return models.NewMappedCategory(models.MappedTaxonomy{
		Name:        name,
		RedirectURL: "Internal",
		Link:        link,
		Refs:        ownerRefs(rc),
	}), nil
}

type leagueMapper struct{}

func (m *leagueMapper) Kind() models.Kind { return models.KindLeague }

func (m *leagueMapper) Map(ctx context.Context, rc *RunContext, record models.SourceRecord) (models.MappedRecord, error) {
	name := record.Str("name")
	if name == "" {
		return nil, nil
	}

	link := strings.ToLower(strings.ReplaceAll(record.Str("slug"), "-", ""))
	return models.NewMappedLeague(models.MappedTaxonomy{
		Name:        name,
		RedirectURL: "Internal",
		Link:        link,
		Refs:        ownerRefs(rc),
	}), nil
}

type sponsorMapper struct{}

func (m *sponsorMapper) Kind() models.Kind { return models.KindSponsor }

func (m *sponsorMapper) Map(ctx context.Context, rc *RunContext, record models.SourceRecord) (models.MappedRecord, error) {
	name := record.Str("name")
	if name == "" {
		return nil, nil
	}

	var logoID string
	if logo := record.Str("logo"); logo != "" {
		id, err := rc.Media.ResolveLogo(ctx, logo, name, rc.FallbackAuthorID())
		if err != nil {
			return nil, fmt.Errorf("sponsor %s: %w", record.ID(m.Kind()), err)
		}
		logoID = id
	}

	return &models.MappedSponsor{
		Type:        "sponsor",
		Name:        name,
		Description: record.Str("description"),
		Link:        record.Str("link"),
		LogoID:      logoID,
		Refs:        ownerRefs(rc),
	}, nil
}

// ownerRefs builds the addedBy/updatedBy references every taxonomy and
// sponsor row carries, pointing at the house account.
func ownerRefs(rc *RunContext) []models.Ref {
	id := rc.FallbackAuthorID()
	return []models.Ref{
		{Model: "addedBy", ID: id, ModelID: "users"},
		{Model: "updatedBy", ID: id, ModelID: "users"},
	}
}
