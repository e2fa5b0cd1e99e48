// Package main is the bibliodash CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/bibliodash/internal/catalog"
	"github.com/hyperjump/bibliodash/internal/cli"
	"github.com/hyperjump/bibliodash/internal/config"
	"github.com/hyperjump/bibliodash/internal/dashboard"
	"github.com/hyperjump/bibliodash/internal/export"
	"github.com/hyperjump/bibliodash/internal/metrics"
	"github.com/hyperjump/bibliodash/internal/models"
	"github.com/hyperjump/bibliodash/internal/server"
	"github.com/hyperjump/bibliodash/internal/storage"
	"github.com/hyperjump/bibliodash/internal/watcher"
	"github.com/hyperjump/bibliodash/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/bibliodash/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory; if neither exists it falls back to the
// built-in datasets read from the current directory.
// Returns the config and the path that was actually loaded ("" for the built-in config).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		cwd, cwdErr := os.Getwd()
		if cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) && cwdErr == nil {
			return config.Default(cwd), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "summary":
		runSummary()
	case "export":
		runExport()
	case "datasets":
		runDatasets()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("bibliodash version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (file events, reloads, etc.)")
	port := fs.Int("port", 0, "override the configured port")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.Int("datasets", len(cfg.Datasets)),
	)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	cat := catalog.New(cfg.Datasets,
		catalog.WithLogger(logger),
		catalog.WithReloadHook(metrics.RecordLoad),
		catalog.WithReloadHook(loadRecorder(store, logger)),
	)
	defer cat.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := cat.LoadAll(ctx); err != nil {
		logger.Fatal("Failed to load datasets", zap.Error(err))
	}

	if cfg.Watch.EnabledOrDefault() {
		w := newDatasetWatcher(ctx, cat, cfg, logger, debugMode)
		if err := w.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer w.Stop()
		logger.Info("watching dataset files", zap.Strings("files", w.Files()))
	}

	srv := server.NewServer(cat, store, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// newDatasetWatcher reloads every dataset backed by a file once writes to it settle.
// A failed reload keeps the previous dataset live.
func newDatasetWatcher(ctx context.Context, cat *catalog.Catalog, cfg *config.Config, logger *zap.Logger, debug bool) *watcher.Watcher {
	opts := []watcher.WatcherOption{
		watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMs) * time.Millisecond),
		watcher.WithRemoveHandler(func(path string) {
			logger.Warn("dataset file removed; keeping last loaded copy", zap.String("path", path))
		}),
	}
	if debug {
		opts = append(opts, watcher.WithLogger(logger))
	}
	return watcher.NewWatcher(cat.Paths(), func(path string) {
		for _, name := range cat.NamesForPath(path) {
			if _, err := cat.Reload(ctx, name); err != nil {
				logger.Error("dataset reload failed", zap.String("dataset", name), zap.Error(err))
			}
		}
	}, opts...)
}

// loadRecorder returns a reload hook that appends successful loads to the history table.
func loadRecorder(store storage.Storage, logger *zap.Logger) catalog.ReloadHook {
	return func(name string, ds *models.Dataset, took time.Duration, err error) {
		if err != nil || ds == nil {
			return
		}
		rec := &models.LoadRecord{
			Dataset:     name,
			Fingerprint: ds.Fingerprint,
			Books:       ds.Len(),
			DurationMs:  took.Milliseconds(),
			LoadedAt:    ds.LoadedAt,
		}
		if err := store.RecordLoad(context.Background(), rec); err != nil {
			logger.Warn("record dataset load failed", zap.String("dataset", name), zap.Error(err))
		}
	}
}

// filterFlags collects repeated -f key=value filter arguments.
type filterFlags url.Values

func (f filterFlags) String() string {
	return url.Values(f).Encode()
}

func (f filterFlags) Set(s string) error {
	key, value, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("filter %q must be key=value", s)
	}
	url.Values(f).Add(key, value)
	return nil
}

// argsReorder moves any flags (and their values) that appear after positional
// arguments to the front so that flag.Parse() sees them.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// viewFlags are the flags shared by summary and export.
type viewFlags struct {
	configPath *string
	dataset    *string
	query      *string
	filters    filterFlags
}

func addViewFlags(fs *flag.FlagSet) *viewFlags {
	v := &viewFlags{
		configPath: fs.String("config", defaultConfigPath, "config file path"),
		dataset:    fs.String("dataset", "", "dataset name (default: first configured dataset)"),
		query:      fs.String("q", "", "full-text query over title, authors, and genre"),
		filters:    filterFlags{},
	}
	fs.Var(v.filters, "f", "filter as key=value, repeatable (e.g. -f genre=Fantasy -f min_price=5)")
	return v
}

func (v *viewFlags) values() url.Values {
	out := url.Values{}
	for k, vs := range v.filters {
		out[k] = append([]string(nil), vs...)
	}
	if q := strings.TrimSpace(*v.query); q != "" {
		out.Set(models.ParamQuery, q)
	}
	return out
}

// openView loads only the named dataset and applies the filter values to it.
func openView(ctx context.Context, cfg *config.Config, name string, values url.Values) (*catalog.View, func(), error) {
	if name == "" {
		name = cfg.Datasets[0].Name
	}
	dc, ok := cfg.Dataset(name)
	if !ok {
		return nil, nil, fmt.Errorf("%s: %w", name, models.ErrDatasetNotFound)
	}
	f, err := models.ParseFilter(values)
	if err != nil {
		return nil, nil, err
	}
	cat := catalog.New([]config.DatasetConfig{dc})
	if err := cat.LoadAll(ctx); err != nil {
		_ = cat.Close()
		return nil, nil, err
	}
	v, err := cat.View(ctx, name, f)
	if err != nil {
		_ = cat.Close()
		return nil, nil, err
	}
	return v, func() { _ = cat.Close() }, nil
}

// summarize writes the dashboard summary of a filtered view to w.
func summarize(ctx context.Context, w io.Writer, cfg *config.Config, name string, values url.Values, format cli.OutputFormat) error {
	v, closeFn, err := openView(ctx, cfg, name, values)
	if err != nil {
		return err
	}
	defer closeFn()
	tab := dashboard.NewBuilder(cfg.Dashboard).Build(v, dashboard.TableRequest{})
	tab.Table = nil
	return cli.WriteSummary(w, tab, format)
}

// exportTo writes the filtered view to out; the format follows out's extension.
// It returns the number of exported books.
func exportTo(ctx context.Context, cfg *config.Config, name string, values url.Values, out string) (int, error) {
	format, err := export.ParseFormat(filepath.Ext(out))
	if err != nil {
		return 0, err
	}
	v, closeFn, err := openView(ctx, cfg, name, values)
	if err != nil {
		return 0, err
	}
	defer closeFn()
	if v.Empty() {
		return 0, models.ErrEmptyView
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, err
		}
	}
	f, err := os.Create(out)
	if err != nil {
		return 0, err
	}
	if err := export.Write(f, format, v.Dataset, v.Books); err != nil {
		_ = f.Close()
		_ = os.Remove(out)
		return 0, err
	}
	return len(v.Books), f.Close()
}

func runSummary() {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	vf := addViewFlags(fs)
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))
	if fs.NArg() > 0 && *vf.dataset == "" {
		*vf.dataset = fs.Arg(0)
	}

	cfg, _, err := loadConfig(*vf.configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := summarize(context.Background(), os.Stdout, cfg, *vf.dataset, vf.values(), cli.ParseOutputFormat(*output)); err != nil {
		fmt.Printf("Summary failed: %v\n", err)
		os.Exit(1)
	}
}

func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	vf := addViewFlags(fs)
	out := fs.String("out", "", "output file (.csv or .xlsx); default: the dataset's export name")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	cfg, _, err := loadConfig(*vf.configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	target := *out
	if target == "" {
		name := *vf.dataset
		if name == "" {
			name = cfg.Datasets[0].Name
		}
		dc, ok := cfg.Dataset(name)
		if !ok {
			fmt.Printf("Unknown dataset: %s\n", name)
			os.Exit(1)
		}
		target = dc.ExportName
	}
	n, err := exportTo(context.Background(), cfg, *vf.dataset, vf.values(), target)
	if err != nil {
		fmt.Printf("Export failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Exported %d books to %s\n", n, target)
}

func runDatasets() {
	fs := flag.NewFlagSet("datasets", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cat := catalog.New(cfg.Datasets)
	defer cat.Close()
	if err := cat.LoadAll(context.Background()); err != nil {
		fmt.Printf("Failed to load datasets: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteDatasets(os.Stdout, cat.Datasets(), cli.ParseOutputFormat(*output)); err != nil {
		fmt.Printf("Output failed: %v\n", err)
		os.Exit(1)
	}
}

// writeInitConfig writes the built-in config to path. Relative dataset paths are
// kept relative ("./") so the file can be moved with its data.
func writeInitConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	for i := range cfg.Datasets {
		cfg.Datasets[i].Path = "./" + cfg.Datasets[i].Path
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return config.Save(path, cfg)
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("path", "config.yaml", "where to write the config file")
	force := fs.Bool("force", false, "overwrite an existing file")
	_ = fs.Parse(os.Args[2:])

	if err := writeInitConfig(*path, *force); err != nil {
		fmt.Printf("Init failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *path)
}

func printUsage() {
	fmt.Println(`bibliodash - Book catalog dashboard

Usage:
  bibliodash server [flags]             Start the HTTP dashboard
  bibliodash summary [flags] [dataset]  Print metrics and top values of a filtered view
  bibliodash export [flags]             Write a filtered view to CSV or XLSX
  bibliodash datasets [flags]           List configured datasets
  bibliodash init [flags]               Write a starter config.yaml
  bibliodash version                    Show version
  bibliodash help                       Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/bibliodash/config.yaml,
                     then ./config.yaml, then the built-in datasets in the current directory)
  --debug            Enable debug logging (file events, reloads, etc.)
  --port int         Override the configured port

Summary / Export Flags:
  --config string    Config file path
  --dataset string   Dataset name (default: first configured dataset)
  --q string         Full-text query over title, authors, and genre
  -f key=value       Filter, repeatable. Keys: genre, nationality, age_group, language,
                     min_rating, max_rating, min_price, max_price, min_score, max_score,
                     year_from, year_to, min_pages, max_pages, min_ratings_count
  --output string    (summary) Output format: text or json (default: text)
  --out string       (export) Output file, .csv or .xlsx (default: the dataset's export name)

Examples:
  bibliodash server
  bibliodash summary --dataset selection
  bibliodash summary -f genre=Fantasy -f genre=Classics --output json
  bibliodash export --dataset full -f nationality=French --out french.xlsx
  bibliodash init --path ./config.yaml`)
}
