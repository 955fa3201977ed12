package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/Galoup/HARDSTATS/internal/adapters/ogame"
	"github.com/Galoup/HARDSTATS/internal/adapters/repository"
	service "github.com/Galoup/HARDSTATS/internal/app"
	"github.com/Galoup/HARDSTATS/internal/config"
	"github.com/Galoup/HARDSTATS/internal/report"
	"github.com/Galoup/HARDSTATS/pkg/logger"
	"github.com/Galoup/HARDSTATS/pkg/metrics"
)

const version = "1.0.0"

// Exit codes by error category.
const (
	exitOK       = 0
	exitFailure  = 1
	exitUniverse = 2
	exitPlayer   = 3
	exitAPI      = 4
)

const (
	metricsReadHeaderTimeout = 5 * time.Second
	lobbyListTimeout         = 30 * time.Second
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: hardstats [--debug] <command> [flags]

commands:
  init            generate an example config file
  list-universes  list universes from the lobby API
  collect         collect one snapshot batch
  render          render the HTML report
  publish         publish the latest report to the publish directory
  post-recap      post the daily recap to Discord
  run             daemon: collect + alerts + daily recap
  version         print the version`)
}

func run(args []string) int {
	debug := false
	for len(args) > 0 && strings.HasPrefix(args[0], "-") {
		switch args[0] {
		case "--debug", "-debug":
			debug = true
		case "--version", "-version":
			fmt.Println("hardstats " + version)
			return exitOK
		case "--help", "-h", "-help":
			usage()
			return exitOK
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\n", args[0])
			usage()
			return exitFailure
		}
		args = args[1:]
	}
	if len(args) == 0 {
		usage()
		return exitFailure
	}

	log := logger.New(os.Stderr)
	if debug {
		_ = logger.SetLevelString(log, "debug")
	}

	cmd, rest := args[0], args[1:]

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case "init":
		err = cmdInit(rest)
	case "list-universes":
		err = cmdListUniverses(ctx, rest, log)
	case "collect":
		err = cmdCollect(ctx, rest, log, debug)
	case "render":
		err = cmdRender(ctx, rest, log, debug)
	case "publish":
		err = cmdPublish(ctx, rest, log, debug)
	case "post-recap":
		err = cmdPostRecap(ctx, rest, log, debug)
	case "run":
		err = cmdRun(ctx, rest, log, debug)
	case "version":
		fmt.Println("hardstats " + version)
		return exitOK
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		usage()
		return exitFailure
	}

	if err == nil {
		return exitOK
	}
	switch {
	case errors.Is(err, ogame.ErrUniverseNotFound),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, config.ErrLoadConfig):
		log.Error("universe or configuration error", logger.Error(err))
		return exitUniverse
	case errors.Is(err, ogame.ErrPlayerNotFound):
		log.Error("player error", logger.Error(err))
		return exitPlayer
	case errors.Is(err, ogame.ErrAPI):
		log.Error("api error", logger.Error(err))
		return exitAPI
	default:
		log.Error("unhandled error", logger.Error(err))
		return exitFailure
	}
}

func cmdInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "path of the config file to create")
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *cfgPath == "" {
		return fmt.Errorf("%w: --config is required", config.ErrInvalidConfig)
	}
	path, err := config.WriteExample(*cfgPath, *force)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func cmdListUniverses(ctx context.Context, args []string, log logger.Logger) error {
	fs := flag.NewFlagSet("list-universes", flag.ContinueOnError)
	community := fs.String("community", "fr", "lobby community code")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, lobbyListTimeout)
	defer cancel()

	lobby := ogame.NewLobbyClient(ogame.WithLogger(log))
	servers, err := lobby.ListServersForCommunity(ctx, *community)
	if err != nil {
		return err
	}
	if len(servers) == 0 {
		return fmt.Errorf("%w: no servers found for community %q", ogame.ErrUniverseNotFound, *community)
	}

	fmt.Printf("Universes for community=%s (count=%d)\n", *community, len(servers))
	fmt.Println("serverId\tname\tcommunity\tlanguage\tbase_url\tmeta_keys(sample)")
	for _, s := range servers {
		keys := make([]string, 0, len(s.Raw))
		for k := range s.Raw {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if len(keys) > 8 {
			keys = keys[:8]
		}
		fmt.Printf("%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ServerID, s.Name, s.Community, s.Language, s.BaseURL(), strings.Join(keys, ","))
	}
	return nil
}

// setup loads the config, opens the store and builds the service. The caller
// owns the returned store.
func setup(args []string, log logger.Logger, debug bool) (*config.Config, *service.Service, repository.Store, *metrics.Manager, error) {
	fs := flag.NewFlagSet("hardstats", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "path to config.yaml")
	if err := fs.Parse(args); err != nil {
		return nil, nil, nil, nil, err
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if !debug {
		if err := logger.SetLevelString(log, cfg.LogLevel); err != nil {
			log.Warn("invalid log_level, falling back to info", logger.String("log_level", cfg.LogLevel))
			_ = logger.SetLevelString(log, "info")
		}
	}

	for _, dir := range []string{cfg.Output.OutDir, cfg.Storage.DataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	store, err := repository.New(cfg.Storage.SQLitePath, repository.WithLogger(log))
	if err != nil {
		return nil, nil, nil, nil, err
	}

	m := metrics.NewManager()
	svc, err := service.New(cfg, store,
		service.WithLogger(log),
		service.WithMetrics(m))
	if err != nil {
		store.Close()
		return nil, nil, nil, nil, err
	}
	return cfg, svc, store, m, nil
}

func cmdCollect(ctx context.Context, args []string, log logger.Logger, debug bool) error {
	_, svc, store, _, err := setup(args, log, debug)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := svc.Bootstrap(ctx); err != nil {
		return err
	}
	return svc.Collect(ctx)
}

func cmdRender(ctx context.Context, args []string, log logger.Logger, debug bool) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "path to config.yaml")
	date := fs.String("date", "", "report date as YYYY-MM-DD, default today")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, svc, store, _, err := setup([]string{"--config", *cfgPath}, log, debug)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := svc.Bootstrap(ctx); err != nil {
		return err
	}

	reportDate := time.Now().In(cfg.Location())
	if *date != "" {
		reportDate, err = time.Parse("2006-01-02", *date)
		if err != nil {
			return fmt.Errorf("%w: invalid --date %q", config.ErrInvalidConfig, *date)
		}
	}
	path, err := svc.RenderReport(ctx, reportDate)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func cmdPublish(ctx context.Context, args []string, log logger.Logger, debug bool) error {
	fs := flag.NewFlagSet("publish", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "path to config.yaml")
	reportPath := fs.String("report", "", "explicit report path, default latest rendered")
	noIndex := fs.Bool("no-index", false, "skip index.html generation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}

	// Publishing only needs the store for the render job state; it must work
	// even when the universe config is incomplete.
	store, err := repository.New(cfg.Storage.SQLitePath, repository.WithLogger(log))
	if err != nil {
		return err
	}
	defer store.Close()

	src := *reportPath
	if src == "" {
		if st, ok, err := store.JobState(ctx, "render"); err == nil && ok {
			if p := st["last_report_path"]; p != "" {
				if info, statErr := os.Stat(p); statErr == nil && !info.IsDir() {
					src = p
				}
			}
		}
	}
	if src == "" {
		src, err = report.FindLatestReport(cfg.Output.OutDir)
		if err != nil {
			return err
		}
	}
	if src == "" {
		return fmt.Errorf("no report found in %s", cfg.Output.OutDir)
	}

	pub := report.NewPublisher(cfg.Output.PublishDir,
		report.WithLatestFilename(cfg.Output.LatestFilename),
		report.WithKeepHistory(cfg.Output.KeepHistory),
		report.WithGenerateIndex(!*noIndex),
		report.WithPublisherLogger(log))
	res, err := pub.Publish(src)
	if err != nil {
		return err
	}
	fmt.Println(res.PublishedLatest)
	return nil
}

func cmdPostRecap(ctx context.Context, args []string, log logger.Logger, debug bool) error {
	_, svc, store, _, err := setup(args, log, debug)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := svc.Bootstrap(ctx); err != nil {
		return err
	}
	return svc.Recap(ctx)
}

func cmdRun(ctx context.Context, args []string, log logger.Logger, debug bool) error {
	cfg, svc, store, m, err := setup(args, log, debug)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: metricsReadHeaderTimeout,
		}
		go func() {
			log.Info("metrics listener started", logger.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics listener failed", logger.Error(err))
			}
		}()
		defer srv.Close()
	}

	if err := svc.Bootstrap(ctx); err != nil {
		return err
	}
	return svc.Run(ctx)
}
