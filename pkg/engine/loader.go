package engine

import (
	"context"
	"errors"

	"lintang/routex/pkg/datastructure"
	"lintang/routex/pkg/graphbuilder"
	"lintang/routex/pkg/kv"
	"lintang/routex/pkg/osmsource"
	"lintang/routex/pkg/profile"

	"go.uber.org/zap"
)

type LoadConfig struct {
	MapFile string
	Source  osmsource.Options
	Profile profile.Evaluator
	Build   []graphbuilder.Option
	// Cache is optional. When set, a graph stored for the same file content,
	// profile table and build options is reused and a freshly built one is saved.
	Cache *kv.KVDB
	// Rebuild ignores whatever the cache holds.
	Rebuild bool
}

// LoadGraph returns the graph for cfg.MapFile, from the cache when possible.
func LoadGraph(ctx context.Context, cfg LoadConfig, logger *zap.Logger) (*datastructure.Graph, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append([]graphbuilder.Option{graphbuilder.WithLogger(logger)}, cfg.Build...)
	builder := graphbuilder.New(cfg.Profile, opts...)

	var key kv.GraphKey
	if cfg.Cache != nil {
		fp, err := osmsource.Fingerprint(cfg.MapFile)
		if err != nil {
			return nil, err
		}
		key = kv.GraphKey{Profile: cfg.Profile.Name(), Fingerprint: fp, Options: builder.Fingerprint()}

		if !cfg.Rebuild {
			g, err := cfg.Cache.LoadGraph(ctx, key)
			switch {
			case err == nil:
				logger.Sugar().Infof("using cached %s graph of %s: %d nodes, %d edges",
					key.Profile, cfg.MapFile, g.NumNodes(), g.NumEdges())
				return g, nil
			case errors.Is(err, kv.ErrCorruptGraph):
				logger.Warn("cached graph is corrupt, rebuilding", zap.Error(err))
			case !errors.Is(err, kv.ErrGraphNotFound):
				return nil, err
			}
		}
	}

	if cfg.Source.Logger == nil {
		cfg.Source.Logger = logger
	}
	src, err := osmsource.Load(ctx, cfg.MapFile, cfg.Source)
	if err != nil {
		return nil, err
	}

	g, err := builder.Build(src)
	if err != nil {
		return nil, err
	}

	if cfg.Cache != nil {
		if err := cfg.Cache.SaveGraph(ctx, key, g); err != nil {
			return nil, err
		}
	}
	return g, nil
}
