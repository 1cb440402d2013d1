package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/conneroisu/stylesync/internal/compiler"
	"github.com/conneroisu/stylesync/internal/config"
	serrors "github.com/conneroisu/stylesync/internal/errors"
	"github.com/conneroisu/stylesync/internal/logging"
	"github.com/conneroisu/stylesync/internal/manager"
	"github.com/conneroisu/stylesync/internal/registry"
	"github.com/conneroisu/stylesync/internal/stylecache"
	"github.com/conneroisu/stylesync/internal/target"
)

// styleSession wires the compiler, the manager on a render target and the
// consumer registry for one command invocation.
type styleSession struct {
	cfg       *config.Config
	logger    logging.Logger
	cache     *stylecache.Cache
	compiler  *compiler.Compiler
	manager   *manager.Manager
	registry  *registry.ConsumerRegistry
	collector *serrors.Collector
	files     []string
}

func newStyleSession(ctx context.Context, cfg *config.Config, t target.Target, logger logging.Logger) (*styleSession, error) {
	mgr, err := manager.New(ctx, t,
		manager.WithCapacity(cfg.Manager.Capacity),
		manager.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	cache := stylecache.New()
	c := compiler.New(cache)
	return &styleSession{
		cfg:       cfg,
		logger:    logger,
		cache:     cache,
		compiler:  c,
		manager:   mgr,
		registry:  registry.NewConsumerRegistry(c, mgr),
		collector: serrors.NewCollector(),
	}, nil
}

// stylePaths returns the CLI arguments, or the configured watch paths.
func (s *styleSession) stylePaths() []string {
	if len(s.cfg.StyleFiles) > 0 {
		return s.cfg.StyleFiles
	}
	return s.cfg.Watch.Paths
}

// load mounts every style file and flushes once. Files that fail to load
// are recorded in the collector; with strict set they also fail the load.
func (s *styleSession) load(ctx context.Context, strict bool) error {
	paths := s.stylePaths()
	if err := validateArguments(paths); err != nil {
		return err
	}

	files, err := registry.FindStyleFiles(paths...)
	if err != nil {
		return err
	}
	s.files = files

	var errs error
	for _, file := range files {
		consumer, err := s.registry.LoadFile(file)
		if err != nil {
			// keyed like watcher events so a later fix resolves it
			if abs, absErr := filepath.Abs(file); absErr == nil {
				file = abs
			}
			s.collector.AddError(registry.ConsumerName(file), file, err)
			s.logger.Warn(ctx, err, "Style file rejected", "path", file)
			errs = multierr.Append(errs, err)
			continue
		}
		s.logger.Debug(ctx, "Style file mounted", "consumer", consumer.Name, "rules", len(consumer.Rules()))
	}
	if strict && errs != nil {
		return errs
	}

	if err := s.registry.Sync(ctx); err != nil {
		return fmt.Errorf("failed to write style containers: %w", err)
	}

	stats := s.manager.Stats()
	s.logger.Info(ctx, "Styles loaded",
		"files", len(files),
		"consumers", s.registry.Count(),
		"rules", stats.Rules,
		"containers", stats.Containers,
		"collisions", s.cache.Collisions(),
	)
	return nil
}
