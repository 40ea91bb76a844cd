package osmsource

import (
	"bufio"
	"compress/bzip2"
	"context"
	"io"
	"os"

	"lintang/routex/pkg/graphbuilder"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrUnknownFormat = errors.New("unable to detect osm file format")

type Options struct {
	// Format of the input, Unknown means detect it from the name and content.
	Format Format
	// Procs is the number of pbf decoding goroutines.
	Procs  int
	Logger *zap.Logger
}

type scanner interface {
	Scan() bool
	Close() error
	Err() error
	Object() osm.Object
}

// Load reads every node, way and relation of an osm extract into memory.
func Load(ctx context.Context, path string, opts Options) (graphbuilder.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return graphbuilder.Source{}, errors.Wrap(err, "open osm file")
	}
	defer f.Close()

	if opts.Format == Unknown {
		opts.Format = formatFromName(path)
	}
	src, err := Read(ctx, f, opts)
	if err != nil {
		return graphbuilder.Source{}, errors.Wrapf(err, "load %s", path)
	}
	return src, nil
}

// Read is Load over an already opened stream.
func Read(ctx context.Context, r io.Reader, opts Options) (graphbuilder.Source, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	br := bufio.NewReader(r)
	format := opts.Format
	if format == Unknown {
		header, err := br.Peek(sniffLen)
		if err != nil && err != io.EOF {
			return graphbuilder.Source{}, errors.Wrap(err, "read osm header")
		}
		format = DetectFormat(header)
		if format == Unknown {
			return graphbuilder.Source{}, ErrUnknownFormat
		}
	}

	sc, err := newScanner(ctx, br, format, opts.Procs)
	if err != nil {
		return graphbuilder.Source{}, err
	}
	defer sc.Close()

	logger.Sugar().Infof("reading openstreetmap %s data...", format)
	src := graphbuilder.Source{}
	for sc.Scan() {
		switch o := sc.Object().(type) {
		case *osm.Node:
			src.Nodes = append(src.Nodes, o)
		case *osm.Way:
			if (len(src.Ways)+1)%50000 == 0 {
				logger.Sugar().Infof("reading openstreetmap ways: %d...", len(src.Ways)+1)
			}
			src.Ways = append(src.Ways, o)
		case *osm.Relation:
			src.Relations = append(src.Relations, o)
		}
	}
	if err := sc.Err(); err != nil {
		return graphbuilder.Source{}, errors.Wrap(err, "scan osm objects")
	}

	logger.Info("openstreetmap data loaded",
		zap.Int("nodes", len(src.Nodes)),
		zap.Int("ways", len(src.Ways)),
		zap.Int("relations", len(src.Relations)))
	return src, nil
}

func newScanner(ctx context.Context, r io.Reader, format Format, procs int) (scanner, error) {
	switch format {
	case XML:
		return osmxml.New(ctx, r), nil
	case XMLGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip stream")
		}
		return osmxml.New(ctx, gz), nil
	case XMLBzip2:
		return osmxml.New(ctx, bzip2.NewReader(r)), nil
	case PBF:
		if procs < 1 {
			procs = 1
		}
		return osmpbf.New(ctx, r, procs), nil
	}
	return nil, ErrUnknownFormat
}

// Fingerprint hashes the file content, used to key cached graphs.
func Fingerprint(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "open osm file")
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, errors.Wrap(err, "hash osm file")
	}
	return h.Sum64(), nil
}
