package directory

import (
	"context"
	"log/slog"
	"strings"
)

// Directory answers the two lookups the LLM tools expose, plus the
// allowed-users list for access control.
type Directory struct {
	src             Source
	tab             string
	allowedUsersTab string
}

// New creates a Directory over a row source.
func New(src Source, tab, allowedUsersTab string) *Directory {
	return &Directory{src: src, tab: tab, allowedUsersTab: allowedUsersTab}
}

// FindProfessionals returns rows whose title or specialty matches any
// variation of the requested specialty AND whose coverage area matches any
// variation of the city. Matching is case-insensitive substring containment,
// same as the spreadsheet-era behavior.
func (d *Directory) FindProfessionals(ctx context.Context, specialty, city string) ([]Row, error) {
	rows, err := d.src.Rows(ctx, d.tab)
	if err != nil {
		return nil, err
	}

	specialtyTerms := SpecialtyTerms(specialty)
	cityTerms := CityTerms(city)

	var matches []Row
	for _, r := range rows {
		specialtyText := strings.ToLower(r["specialty"])
		titleText := strings.ToLower(r["title"])
		coverageText := strings.ToLower(r["coverage_area"])

		professionalMatch := containsAny(specialtyText, specialtyTerms) || containsAny(titleText, specialtyTerms)
		cityMatch := containsAny(coverageText, cityTerms)

		if professionalMatch && cityMatch {
			matches = append(matches, r)
		}
	}

	slog.Debug("directory search",
		"specialty", specialty,
		"city", city,
		"rows", len(rows),
		"matches", len(matches),
	)
	return matches, nil
}

// FindByName returns the first professional whose name contains the query or
// vice versa (users often type partial names). Nil when nobody matches.
func (d *Directory) FindByName(ctx context.Context, name string) (Row, error) {
	rows, err := d.src.Rows(ctx, d.tab)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(name))
	for _, r := range rows {
		rowName := strings.ToLower(r["name"])
		if rowName == "" {
			continue
		}
		if strings.Contains(rowName, query) || strings.Contains(query, rowName) {
			return r, nil
		}
	}
	return nil, nil
}

// AllowedUsers returns the normalized phone numbers from the allowed-users
// tab's first column. Numbers are stripped of spaces, dashes, and "+".
func (d *Directory) AllowedUsers(ctx context.Context) (map[string]bool, error) {
	rows, err := d.src.Rows(ctx, d.allowedUsersTab)
	if err != nil {
		return nil, err
	}

	// The tab is a single column of numbers; collect every non-empty cell so
	// ragged sheets still work.
	allowed := make(map[string]bool, len(rows))
	for _, r := range rows {
		for _, v := range r {
			if n := NormalizeNumber(v); n != "" {
				allowed[n] = true
			}
		}
	}
	return allowed, nil
}

// NormalizeNumber strips spaces, dashes, and "+" from a phone number.
func NormalizeNumber(num string) string {
	n := strings.TrimSpace(num)
	n = strings.ReplaceAll(n, " ", "")
	n = strings.ReplaceAll(n, "-", "")
	n = strings.ReplaceAll(n, "+", "")
	return n
}

func containsAny(haystack string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(haystack, t) {
			return true
		}
	}
	return false
}
