package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"

	"lintang/routex/pkg/engine"
	"lintang/routex/pkg/graphbuilder"
	"lintang/routex/pkg/kv"
	"lintang/routex/pkg/logger"
	"lintang/routex/pkg/osmsource"
	"lintang/routex/pkg/profile"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

var (
	mapFile        = flag.String("f", "solo_jogja.osm.pbf", "openstreeetmap file buat road network graphnya")
	mapFormat      = flag.String("format", "", "osm file format: xml, xml.gz, xml.bz2, pbf (default: detect)")
	profileName    = flag.String("profile", "motorcar", "routing profile: motorcar, bus, bicycle, foot, train, tram, subway")
	dbDir          = flag.String("db", "./routex_db", "badger directory for built graphs")
	bbox           = flag.String("bbox", "", "only keep roads inside minLon,minLat,maxLon,maxLat")
	workers        = flag.Int("workers", 0, "number of way processing goroutines (default: min(NumCPU, 8))")
	noRestrictions = flag.Bool("no_restrictions", false, "ignore turn restriction relations")
	cpuprofile     = flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile     = flag.String("memprofile", "", "write memory profile to this file")
)

func main() {
	flag.Parse()

	log, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if *cpuprofile != "" {
		// https://go.dev/blog/pprof
		// ./bin/routex-preprocessing -cpuprofile=routexcpu.prof -memprofile=routexmem.mprof
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal("create cpu profile", zap.Error(err))
		}
		defer f.Close()

		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, log); err != nil {
		log.Error("preprocessing failed", zap.Error(err))
		cancel()
		pprof.StopCPUProfile()
		os.Exit(1)
	}
}

func run(ctx context.Context, log *zap.Logger) error {
	kind, err := profile.ParseKind(*profileName)
	if err != nil {
		return err
	}
	prof, err := profile.ForKind(kind)
	if err != nil {
		return err
	}
	format, err := osmsource.ParseFormat(*mapFormat)
	if err != nil {
		return err
	}

	opts := []graphbuilder.Option{graphbuilder.WithWorkers(*workers)}
	if *bbox != "" {
		bound, err := graphbuilder.ParseBoundingBox(*bbox)
		if err != nil {
			return err
		}
		opts = append(opts, graphbuilder.WithBoundingBox(bound))
	}
	if *noRestrictions {
		opts = append(opts, graphbuilder.WithoutRestrictions())
	}

	var bar *progressbar.ProgressBar
	opts = append(opts, graphbuilder.WithProgress(func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionSetWidth(15),
				progressbar.OptionSetDescription(fmt.Sprintf("[cyan][2/3][reset] building %s graph from openstreetmap ways ...", prof.Name())),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}))
		}
		bar.Set(done)
		if done == total {
			fmt.Println()
		}
	}))

	cache, err := kv.Open(*dbDir, log)
	if err != nil {
		return err
	}
	defer cache.Close()

	log.Sugar().Infof("[1/3] reading osm file %s", *mapFile)
	g, err := engine.LoadGraph(ctx, engine.LoadConfig{
		MapFile: *mapFile,
		Source:  osmsource.Options{Format: format, Procs: 4},
		Profile: prof,
		Build:   opts,
		Cache:   cache,
		Rebuild: true,
	}, log)
	if err != nil {
		return err
	}
	recordMemProfile(memprofile, "build_graph")

	log.Sugar().Infof("[3/3] %s graph saved to %s: %d nodes, %d edges, %d turn restrictions",
		g.ProfileName(), *dbDir, g.NumNodes(), g.NumEdges(), len(g.Restrictions()))
	return nil
}

func recordMemProfile(memprofile *string, name string) {
	if *memprofile != "" {
		path := strings.Replace(*memprofile, ".mprof", fmt.Sprintf("%s.mprof", name), -1)
		f, err := os.Create(path)
		if err != nil {
			return
		}
		pprof.WriteHeapProfile(f)
		f.Close()
	}
}
