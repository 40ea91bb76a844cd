package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lintang/routex/pkg/engine"
	"lintang/routex/pkg/engine/routingalgorithm"
	"lintang/routex/pkg/kv"
	"lintang/routex/pkg/logger"
	"lintang/routex/pkg/osmsource"
	"lintang/routex/pkg/profile"
	"lintang/routex/pkg/server/rest"
	"lintang/routex/pkg/server/rest/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	listenAddr  = flag.String("listenaddr", ":5000", "server listen address")
	mapFile     = flag.String("f", "solo_jogja.osm.pbf", "openstreeetmap file buat road network graphnya")
	mapFormat   = flag.String("format", "", "osm file format: xml, xml.gz, xml.bz2, pbf (default: detect)")
	profileName = flag.String("profile", "motorcar", "routing profile: motorcar, bus, bicycle, foot, train, tram, subway")
	dbDir       = flag.String("db", "./routex_db", "badger directory for built graphs, empty disables the cache")
	stepLimit   = flag.Int("step_limit", routingalgorithm.DefaultStepLimit, "max search states expanded per route query, 0 = unlimited")
	debug       = flag.Bool("debug", false, "debug logging")
)

func main() {
	flag.Parse()

	newLogger := logger.New
	if *debug {
		newLogger = logger.NewDevelopment
	}
	log, err := newLogger()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, log); err != nil {
		log.Error("routex engine stopped", zap.Error(err))
		cancel()
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

	cfg := engine.LoadConfig{
		MapFile: *mapFile,
		Source:  osmsource.Options{Format: format, Procs: 4},
		Profile: prof,
	}
	if *dbDir != "" {
		cache, err := kv.Open(*dbDir, log)
		if err != nil {
			return err
		}
		defer cache.Close()
		cfg.Cache = cache
	}

	g, err := engine.LoadGraph(ctx, cfg, log)
	if err != nil {
		return err
	}
	eng := engine.New(g, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := rest.NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(rest.ZapLogger(log))
	r.Use(rest.PromeHttpMiddleware(m)) // prometheus http middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Mount("/debug", middleware.Profiler())
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	navigatorSvc := service.NewNavigationService(eng, *stepLimit)
	rest.NavigatorRouter(r, navigatorSvc, m)

	srv := &http.Server{Addr: *listenAddr, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Sugar().Infof("%s routing ready, server started at %s", prof.Name(), *listenAddr)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
