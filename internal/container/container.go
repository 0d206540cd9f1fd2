// Package container provides dependency injection for tally.
// It builds every collaborator once from the configuration so commands get
// them wired and ready.
package container

import (
	"context"
	"fmt"

	"fjacquet/tally/internal/analysis"
	"fjacquet/tally/internal/budget"
	"fjacquet/tally/internal/cache"
	"fjacquet/tally/internal/categorizer"
	"fjacquet/tally/internal/config"
	"fjacquet/tally/internal/csvparser"
	"fjacquet/tally/internal/logging"
	"fjacquet/tally/internal/models"
	"fjacquet/tally/internal/ofxparser"
	"fjacquet/tally/internal/parser"
	"fjacquet/tally/internal/pipeline"
	"fjacquet/tally/internal/taxonomy"
)

// Container holds all application dependencies. It is immutable after
// creation.
type Container struct {
	logger   logging.Logger
	config   *config.Config
	dirs     config.Dirs
	registry *parser.Registry
	taxonomy *taxonomy.Taxonomy
	pipeline *pipeline.Pipeline
	cache    *cache.Store
}

// NewContainer creates and wires all application dependencies, logging
// through a logrus adapter configured from cfg.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	return NewContainerWithLogger(cfg, logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format))
}

// NewContainerWithLogger is NewContainer with an explicit logger.
func NewContainerWithLogger(cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	logger = logging.OrDefault(logger)

	dirs, err := cfg.ResolveDirs()
	if err != nil {
		return nil, err
	}

	registry, err := parser.NewRegistry(csvparser.New(logger), ofxparser.New(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to register parsers: %w", err)
	}

	tax, err := taxonomy.Load(dirs.Categories())
	if err != nil {
		return nil, err
	}

	p := pipeline.New(registry, tax, categorizer.NewEngine(logger), logger, pipeline.Options{
		IsolateFailures: cfg.Ingest.IsolateFailures,
		RuleExtensions:  cfg.Ingest.RuleExtensions,
	})

	logger.Debug("Container initialized",
		logging.F("parsers", registry.Types()),
		logging.F(logging.FieldDirectory, dirs.Parse),
		logging.F("keywords", tax.KeywordCount()))

	return &Container{
		logger:   logger,
		config:   cfg,
		dirs:     dirs,
		registry: registry,
		taxonomy: tax,
		pipeline: p,
		cache:    cache.NewStore(dirs.Cache, cfg.Cache.File, logger),
	}, nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// Dirs returns the resolved working directories.
func (c *Container) Dirs() config.Dirs {
	return c.dirs
}

// GetRegistry returns the format parser registry.
func (c *Container) GetRegistry() *parser.Registry {
	return c.registry
}

// GetTaxonomy returns the process-wide taxonomy.
func (c *Container) GetTaxonomy() *taxonomy.Taxonomy {
	return c.taxonomy
}

// GetPipeline returns the ingestion pipeline.
func (c *Container) GetPipeline() *pipeline.Pipeline {
	return c.pipeline
}

// GetCache returns the table cache.
func (c *Container) GetCache() *cache.Store {
	return c.cache
}

// Delimiter returns the configured export delimiter.
func (c *Container) Delimiter() rune {
	if r := []rune(c.config.Export.Delimiter); len(r) == 1 {
		return r[0]
	}
	return ','
}

// Ingest runs the pipeline over the parse directory and refreshes the cache.
func (c *Container) Ingest(ctx context.Context) (pipeline.Result, error) {
	result, err := c.pipeline.Run(ctx, c.dirs.Parse)
	if err != nil {
		return result, err
	}
	if err := c.cache.Save(result.Table); err != nil {
		return result, err
	}
	return result, nil
}

// Table returns the cached table, or ingests when reload is set or the
// cache is empty.
func (c *Container) Table(ctx context.Context, reload bool) (models.CanonicalTable, error) {
	if !reload {
		table, found, err := c.cache.Load()
		if err != nil {
			return models.CanonicalTable{}, err
		}
		if found {
			return table, nil
		}
		c.logger.Info("No cached table, ingesting sources")
	}
	result, err := c.Ingest(ctx)
	if err != nil {
		return models.CanonicalTable{}, err
	}
	return result.Table, nil
}

// Budget loads the budget file.
func (c *Container) Budget() (analysis.Sums, error) {
	return budget.Load(c.dirs.Budget(), c.taxonomy)
}

// Close performs cleanup of container resources.
func (c *Container) Close() error {
	c.logger.Debug("Container closed")
	return nil
}
