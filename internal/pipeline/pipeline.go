package pipeline

import (
	"context"
	"fmt"

	"hotelscout/internal/logging"
	"hotelscout/internal/source"
	"hotelscout/pkg/models"
)

// ResultStore is the slice of the file store the batch runner needs.
type ResultStore interface {
	LoadSourceIndex(source string) (map[int]models.SourceRecord, error)
	SaveSourceIndex(source string, idx map[int]models.SourceRecord) error
}

// Runner executes one source's fetch pipeline over the whole property list.
// Properties run strictly one at a time: the provider rate limit is shared,
// so there is no fan-out by design.
type Runner struct {
	store  ResultStore
	logger *logging.Logger
}

func NewRunner(store ResultStore, logger *logging.Logger) *Runner {
	return &Runner{store: store, logger: logger}
}

// RunSource fetches every property through the given fetcher, overwriting
// that property's entry in the source index and persisting the whole index
// after every property. A crash therefore loses at most the in-flight
// property; a rerun resumes with earlier properties' fresh data intact.
func (r *Runner) RunSource(ctx context.Context, fetcher source.Fetcher, props []models.Property) (int, error) {
	name := fetcher.Name()

	idx, err := r.store.LoadSourceIndex(name)
	if err != nil {
		return 0, fmt.Errorf("load %s results: %w", name, err)
	}

	r.logger.Info("%s: fetching %d properties", name, len(props))
	succeeded := 0
	for i, prop := range props {
		if err := ctx.Err(); err != nil {
			return succeeded, err
		}

		rec := fetcher.Fetch(ctx, prop)
		idx[prop.ID] = rec

		if rec.Failed() {
			r.logger.Warn("%s: [%d/%d] %s failed: %s", name, i+1, len(props), prop.Name, rec.Error)
		} else {
			succeeded++
			r.logger.Info("%s: [%d/%d] %s ok (%d reviews, %d photos)",
				name, i+1, len(props), prop.Name, len(rec.Reviews), len(rec.Photos))
		}

		if err := r.store.SaveSourceIndex(name, idx); err != nil {
			return succeeded, fmt.Errorf("persist %s results: %w", name, err)
		}
	}

	r.logger.Info("%s: done, %d/%d succeeded", name, succeeded, len(props))
	return succeeded, nil
}
