package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/sync/errgroup"

	"github.com/rewired-gh/usercube/internal/api"
	"github.com/rewired-gh/usercube/internal/config"
	"github.com/rewired-gh/usercube/internal/explorer"
	"github.com/rewired-gh/usercube/internal/export"
	"github.com/rewired-gh/usercube/internal/logger"
	"github.com/rewired-gh/usercube/internal/models"
	"github.com/rewired-gh/usercube/internal/source"
	"github.com/rewired-gh/usercube/internal/telegram"
	"github.com/rewired-gh/usercube/internal/tui"
	"github.com/rewired-gh/usercube/internal/watcher"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file (empty for defaults)")

const usage = `usage: usercube [-config path] <command> [flags]

commands:
  summary   print the current view with its stats or selected cell (default)
  export    write the current view as json, yaml or table
  serve     run the HTTP API
  tui       open the interactive explorer
  import    fetch the configured source into a new dataset
  datasets  list stored datasets
  notify    send a digest to Telegram
`

func main() {
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Debug("Configuration loaded from %q", *configPath)

	cmd, args := "summary", flag.Args()
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		logger.Fatal("%v", err)
	}
	defer a.close()

	switch cmd {
	case "summary":
		err = runSummary(ctx, a, args)
	case "export":
		err = runExport(ctx, a, args)
	case "serve":
		err = runServe(ctx, a, args)
	case "tui":
		err = runTUI(ctx, a, args)
	case "import":
		err = runImport(ctx, a, args)
	case "datasets":
		err = runDatasets(a)
	case "notify":
		err = runNotify(ctx, a, args)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("%s failed: %v", cmd, err)
		a.close()
		os.Exit(1)
	}
}

// viewFlags are shared by the commands that open one dataset.
type viewFlags struct {
	dataset string
	filter  string
	setF    bool
}

func (v *viewFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&v.dataset, "dataset", "", "Dataset id (default: latest)")
	fs.Func("filter", "Entity filter text (default: stored session filter)", func(s string) error {
		v.filter, v.setF = s, true
		return nil
	})
}

func (v *viewFlags) open(ctx context.Context, a *app) (*models.Dataset, *explorer.Explorer, error) {
	d, err := a.loadDataset(ctx, v.dataset)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	e := a.openExplorer(d)
	if v.setF {
		e.SetFilter(v.filter)
	}
	return d, e, nil
}

func runSummary(ctx context.Context, a *app, args []string) error {
	var vf viewFlags
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	vf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, e, err := vf.open(ctx, a)
	if err != nil {
		return err
	}
	return export.WriteTable(os.Stdout, snapshot(d, e))
}

func runExport(ctx context.Context, a *app, args []string) error {
	var vf viewFlags
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	vf.register(fs)
	formatFlag := fs.String("format", "json", "Output format: json, yaml or table")
	out := fs.String("o", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	format, err := export.ParseFormat(*formatFlag)
	if err != nil {
		return err
	}
	d, e, err := vf.open(ctx, a)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := export.Write(w, format, snapshot(d, e)); err != nil {
		return err
	}
	if *out != "" {
		logger.Info("Exported %s view of %s to %s", format, d.ID, *out)
	}
	return nil
}

func runServe(ctx context.Context, a *app, args []string) error {
	var vf viewFlags
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	vf.register(fs)
	addr := fs.String("addr", a.cfg.Server.Addr, "Listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, e, err := vf.open(ctx, a)
	if err != nil {
		return err
	}

	router := api.SetupRouter(api.NewHandler(e, a.store))
	server := api.NewServer(*addr, router, a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(ctx) })
	if w := a.newWatcher(ctx, d, e, nil); w != nil {
		g.Go(func() error { return w.Run(ctx) })
	}
	return g.Wait()
}

func runTUI(ctx context.Context, a *app, args []string) error {
	var vf viewFlags
	fs := flag.NewFlagSet("tui", flag.ExitOnError)
	vf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, e, err := vf.open(ctx, a)
	if err != nil {
		return err
	}

	// The UI owns the terminal; keep logs out of it.
	logger.SetOutput(io.Discard)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := tui.New(e, d.Name, tui.WithOnChange(func(s models.Session) {
		if err := a.store.SaveSession(&s); err != nil {
			logger.Warn("Failed to save session %s: %v", s.ID, err)
		}
	}))
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if w := a.newWatcher(ctx, d, e, func() { p.Send(tui.ReloadedMsg{}) }); w != nil {
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Warn("Watcher stopped: %v", err)
			}
		}()
	}

	_, err = p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func runImport(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	location := fs.String("source", "", "File path, URL or \"sample\" (default: dataset.source)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := a.importDataset(ctx, *location)
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s rows from %s\n", d.ID, humanize.Comma(int64(d.RowCount)), d.Source)
	return nil
}

func runDatasets(a *app) error {
	datasets, err := a.store.ListDatasets()
	if err != nil {
		return err
	}

	table := tablewriter.NewTable(os.Stdout)
	table.Header([]string{"ID", "Name", "Source", "Rows", "Loaded"})
	for _, d := range datasets {
		row := []string{d.ID, d.Name, d.Source, humanize.Comma(int64(d.RowCount)), humanize.Time(d.LoadedAt)}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func runNotify(ctx context.Context, a *app, args []string) error {
	var vf viewFlags
	fs := flag.NewFlagSet("notify", flag.ExitOnError)
	vf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	tc := a.cfg.Telegram
	if !tc.Enabled {
		return fmt.Errorf("telegram is disabled in configuration")
	}
	client, err := telegram.NewClient(tc.BotToken, tc.ChatID, tc.MaxRetries, tc.RetryDelayBase)
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram client: %w", err)
	}

	d, e, err := vf.open(ctx, a)
	if err != nil {
		return err
	}
	if err := client.Send(ctx, telegram.Digest{
		Dataset:    d.Name,
		LoadedAt:   d.LoadedAt,
		Filter:     e.Filter(),
		Stats:      e.Stats(),
		Categories: e.Categories(),
		Selected:   e.Selected(),
	}); err != nil {
		return err
	}
	logger.Info("Sent digest for dataset %s", d.ID)
	return nil
}

// newWatcher returns a watcher that reloads e when the dataset's source file
// changes, or nil when watching is off or the source is not a local file.
func (a *app) newWatcher(ctx context.Context, d *models.Dataset, e *explorer.Explorer, onReload func()) *watcher.Watcher {
	if !a.cfg.Watch.Enabled {
		return nil
	}
	if d.Source == "" || d.Source == source.SampleLocation || source.IsRemote(d.Source) {
		logger.Debug("Not watching dataset source %q", d.Source)
		return nil
	}

	w, err := watcher.New(d.Source,
		watcher.WithDebounce(a.cfg.Watch.Debounce),
		watcher.WithOnChange(func() {
			if err := a.reload(ctx, e, d.Source); err != nil {
				logger.Error("Failed to reload %s: %v", d.Source, err)
				return
			}
			if onReload != nil {
				onReload()
			}
		}),
		watcher.WithOnError(func(err error) {
			logger.Warn("Watcher error on %s: %v", d.Source, err)
		}),
	)
	if err != nil {
		logger.Warn("Failed to watch %s: %v", d.Source, err)
		return nil
	}
	logger.Info("Watching %s for changes (debounce %v)", d.Source, a.cfg.Watch.Debounce)
	return w
}

func snapshot(d *models.Dataset, e *explorer.Explorer) export.Snapshot {
	return export.Snapshot{
		Dataset:     d.Name + " (" + d.ID + ")",
		GeneratedAt: time.Now().UTC(),
		Filter:      e.Filter(),
		Stats:       e.Stats(),
		Categories:  e.Categories(),
		Spread:      e.Spread(),
		View:        e.View(),
		Selected:    e.Selected(),
		Labels:      labels(e),
	}
}

func labels(e *explorer.Explorer) map[string]string {
	c := e.Cube()
	m := make(map[string]string, len(c.Categories))
	for _, category := range c.Categories {
		m[category] = e.Label(category)
	}
	return m
}
