package watcher

import (
	"context"

	serrors "github.com/conneroisu/stylesync/internal/errors"
	"github.com/conneroisu/stylesync/internal/logging"
	"github.com/conneroisu/stylesync/internal/registry"
)

// StyleHandler applies a batch of style file changes to reg and then syncs
// it once. Files that fail to load are reported to collector and leave the
// consumer's previous rules in place.
func StyleHandler(reg *registry.ConsumerRegistry, collector *serrors.Collector, logger logging.Logger) ChangeHandler {
	if logger == nil {
		logger = logging.Nop()
	}
	return func(ctx context.Context, events []ChangeEvent) error {
		perf := logging.StartOperation(logger, "style_batch")

		var loaded, unloaded, failed int
		for _, event := range events {
			if event.Type.Gone() {
				if reg.UnloadFile(event.Path) {
					unloaded++
				}
				collector.Resolve(event.Path)
				continue
			}

			consumer, err := reg.LoadFile(event.Path)
			if err != nil {
				failed++
				collector.AddError(registry.ConsumerName(event.Path), event.Path, err)
				logger.Warn(ctx, err, "Style file rejected", "path", event.Path)
				continue
			}
			collector.Resolve(event.Path)
			loaded++
			logger.Debug(ctx, "Style file applied", "consumer", consumer.Name, "rules", len(consumer.Rules()))
		}

		if err := reg.Sync(ctx); err != nil {
			perf.EndWithError(ctx, err)
			return err
		}
		perf.End(ctx, "loaded", loaded, "unloaded", unloaded, "failed", failed)
		return nil
	}
}
