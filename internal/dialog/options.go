package dialog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/admin-console/internal/core/common/lookup"
	"golang.org/x/sync/errgroup"
)

type optionResult struct {
	options     map[string][]lookup.Option
	unavailable []string
}

// loadOptions fetches every source concurrently. The first required failure
// cancels the rest and is returned; optional failures are recorded in
// unavailable with an empty option list.
func loadOptions(ctx context.Context, sources []OptionSource, logger *slog.Logger) (optionResult, error) {
	loaded := make([][]lookup.Option, len(sources))
	failed := make([]bool, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			opts, err := src.Load(gctx)
			if err != nil {
				if src.Required {
					return fmt.Errorf("load %s options: %w", src.Field, err)
				}
				logger.Warn("optional option set unavailable", "field", src.Field, "error", err)
				failed[i] = true
				return nil
			}
			loaded[i] = opts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return optionResult{}, err
	}

	res := optionResult{options: make(map[string][]lookup.Option, len(sources))}
	for i, src := range sources {
		if failed[i] {
			res.unavailable = append(res.unavailable, src.Field)
		}
		if loaded[i] == nil {
			loaded[i] = []lookup.Option{}
		}
		res.options[src.Field] = loaded[i]
	}
	return res, nil
}
