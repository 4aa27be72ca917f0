// Package importer bulk-loads listings from admin-uploaded CSV files.
// Rows are processed independently: bad rows are reported, not fatal.
package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"dmcdir/internal/slug"
	"dmcdir/internal/store"
)

// FormatError reports a batch-fatal problem with the uploaded file:
// an empty file or a header missing required columns. Row-level
// problems never produce a FormatError.
type FormatError string

func (e FormatError) Error() string { return string(e) }

// ListingStore captures the persistence operations the engine needs.
type ListingStore interface {
	SlugExists(slug string) (bool, error)
	InsertListing(l store.Listing) (string, error)
}

// Result summarizes one import run.
type Result struct {
	Success int      `json:"success"`
	Errors  []string `json:"errors"`
}

// Engine parses and inserts listing rows.
type Engine struct {
	store ListingStore
	now   func() time.Time
}

// New constructs an Engine backed by the provided store.
func New(s ListingStore) *Engine {
	return &Engine{store: s, now: time.Now}
}

var requiredColumns = []string{"name", "state"}

// Import decodes the file, validates the header, and inserts one
// listing per valid data row. Row failures are accumulated with
// 1-based file line numbers (the header is line 1); only header and
// empty-file problems abort the batch.
func (e *Engine) Import(data []byte) (Result, error) {
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) < 2 {
		return Result{}, FormatError("CSV file is empty or invalid")
	}

	headers := splitLine(lines[0])
	for i, h := range headers {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var missing []string
	for _, required := range requiredColumns {
		found := false
		for _, h := range headers {
			if h == required {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return Result{}, FormatError("missing required columns: " + strings.Join(missing, ", "))
	}

	// Errors marshals as an empty array, never null.
	result := Result{Errors: []string{}}
	for i := 1; i < len(lines); i++ {
		values := splitLine(lines[i])

		if len(values) < len(headers) {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Insufficient columns", i+1))
			continue
		}

		row := make(map[string]string, len(headers))
		for j, header := range headers {
			row[header] = values[j]
		}

		if row["name"] == "" || row["state"] == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Missing name or state", i+1))
			continue
		}

		candidate, err := e.resolveSlug(row["name"])
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d (%s): %v", i+1, row["name"], err))
			continue
		}

		if _, err := e.store.InsertListing(buildListing(row, candidate)); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d (%s): %v", i+1, row["name"], err))
			continue
		}
		result.Success++
	}

	return result, nil
}

// resolveSlug applies the collision policy: generate a candidate, and
// if it is already taken append a unix-millis token without a second
// check. Concurrent imports can still race; the loser surfaces as a
// row-level insert error.
func (e *Engine) resolveSlug(name string) (string, error) {
	candidate := slug.Generate(name)
	if candidate == "" {
		return "", fmt.Errorf("name produces an empty slug")
	}

	exists, err := e.store.SlugExists(candidate)
	if err != nil {
		return "", err
	}
	if exists {
		candidate = fmt.Sprintf("%s-%d", candidate, e.now().UnixMilli())
	}
	return candidate, nil
}

func buildListing(row map[string]string, listingSlug string) store.Listing {
	l := store.Listing{
		Name:                 row["name"],
		Slug:                 listingSlug,
		State:                row["state"],
		Tagline:              optional(row["tagline"]),
		Description:          optional(row["description"]),
		City:                 optional(row["city"]),
		Address:              optional(row["address"]),
		PostalCode:           optional(row["postal_code"]),
		Phone:                optional(row["phone"]),
		Email:                optional(row["email"]),
		WebsiteURL:           optional(row["website_url"]),
		ServiceCategories:    splitMulti(row["service_categories"]),
		DestinationExpertise: splitMulti(row["destination_expertise"]),
		Certifications:       splitMulti(row["certifications"]),
		Languages:            splitMulti(row["languages"]),
		IsPublished:          true,
	}

	// An unparsable year stays null rather than failing the row.
	if raw := row["established_year"]; raw != "" {
		if year, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			l.EstablishedYear = &year
		}
	}

	return l
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
