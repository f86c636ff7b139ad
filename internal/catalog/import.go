// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gamevault/gamevault/pkg/errutil"
)

// csvColumns is the legacy data.csv layout.
const csvColumns = 5

// Record is one game row of a seed file.
type Record struct {
	Title       string
	Platform    string
	ReleaseDate string
	Category    string
	Publisher   string
}

// ImportResult counts what an import changed.
type ImportResult struct {
	CategoriesCreated int `json:"categories_created"`
	GamesCreated      int `json:"games_created"`
	GamesSkipped      int `json:"games_skipped"`
}

// ParseCSV reads records laid out as title, platform, release_date,
// category, publisher. The first row is a header and is skipped.
func ParseCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records []Record
	for line := 1; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, oops.Code(errutil.CodeValidation).With("line", line).Wrapf(err, "malformed csv")
		}
		if line == 1 {
			continue
		}
		if len(row) < csvColumns {
			return nil, oops.Code(errutil.CodeValidation).
				With("line", line).
				With("columns", len(row)).
				Errorf("line %d: expected %d columns, got %d", line, csvColumns, len(row))
		}
		records = append(records, Record{
			Title:       strings.TrimSpace(row[0]),
			Platform:    strings.TrimSpace(row[1]),
			ReleaseDate: strings.TrimSpace(row[2]),
			Category:    strings.TrimSpace(row[3]),
			Publisher:   strings.TrimSpace(row[4]),
		})
	}
	return records, nil
}

// Import creates each category on first sight and inserts each game. Games
// that already exist are counted as skipped, so re-running is safe.
func (s *Service) Import(ctx context.Context, records []Record) (*ImportResult, error) {
	result := &ImportResult{}
	categories := make(map[string]ulid.ULID)

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return result, oops.With("operation", "import").With("record", i).Wrap(err)
		}

		categoryID, created, err := s.ensureCategory(ctx, categories, rec.Category)
		if err != nil {
			return result, oops.With("record", i).Wrap(err)
		}
		if created {
			result.CategoriesCreated++
		}

		in := NewGame{
			Title:       rec.Title,
			Platform:    rec.Platform,
			Publisher:   rec.Publisher,
			ReleaseDate: rec.ReleaseDate,
			CategoryID:  categoryID,
		}
		if err := in.Validate(); err != nil {
			return result, oops.With("record", i).Wrap(err)
		}

		g := &Game{
			ID:          ulid.Make(),
			Title:       in.Title,
			Platform:    in.Platform,
			Publisher:   in.Publisher,
			ReleaseDate: in.ReleaseDate,
			CategoryID:  in.CategoryID,
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.repo.CreateGame(ctx, g); err != nil {
			if errors.Is(err, ErrDuplicate) {
				result.GamesSkipped++
				continue
			}
			return result, oops.With("operation", "import game").With("record", i).Wrap(err)
		}
		result.GamesCreated++
	}

	slog.InfoContext(ctx, "catalog import finished",
		"categories_created", result.CategoriesCreated,
		"games_created", result.GamesCreated,
		"games_skipped", result.GamesSkipped)
	return result, nil
}

func (s *Service) ensureCategory(ctx context.Context, cache map[string]ulid.ULID, title string) (ulid.ULID, bool, error) {
	if id, ok := cache[title]; ok {
		return id, false, nil
	}
	if title == "" {
		return ulid.ULID{}, false, missingField("category")
	}

	existing, err := s.repo.GetCategoryByTitle(ctx, title)
	switch {
	case err == nil:
		cache[title] = existing.ID
		return existing.ID, false, nil
	case !errors.Is(err, ErrNotFound):
		return ulid.ULID{}, false, oops.With("operation", "get category by title").Wrap(err)
	}

	c := &Category{ID: ulid.Make(), Title: title, CreatedAt: time.Now().UTC()}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return ulid.ULID{}, false, oops.With("operation", "create category").With("title", title).Wrap(err)
	}
	cache[title] = c.ID
	return c.ID, true, nil
}
