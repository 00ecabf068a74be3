package watch

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Page is a fetched page to examine.
type Page struct {
	URI         string
	ContentType string
	Content     string
	Rules       IgnoreRules
}

// ExamineAll examines pages concurrently, running at most limit examinations
// at a time (no limit if limit <= 0). The result has one entry per page in the
// order of pages; the entry of a page that is not markup is nil. The first
// other error cancels the remaining examinations.
func ExamineAll(ctx context.Context, pages []Page, limit int) ([]*PageInfo, error) {
	infos := make([]*PageInfo, len(pages))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, p := range pages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			info, err := Examine(p.ContentType, p.Content, p.Rules)
			switch {
			case errors.Is(err, ErrNotMarkup):
				return nil
			case err != nil:
				return fmt.Errorf("examine %s: %w", p.URI, err)
			}
			infos[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return infos, nil
}
