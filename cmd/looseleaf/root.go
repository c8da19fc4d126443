package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hack-pad/hackpadfs"
	osfs "github.com/hack-pad/hackpadfs/os"
	"github.com/spf13/cobra"

	"github.com/kittclouds/looseleaf/internal/autosave"
	"github.com/kittclouds/looseleaf/internal/config"
	"github.com/kittclouds/looseleaf/internal/gateway"
	"github.com/kittclouds/looseleaf/internal/persist"
	"github.com/kittclouds/looseleaf/internal/relation"
	"github.com/kittclouds/looseleaf/internal/store"
)

var (
	dataDir string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "looseleaf",
	Short: "A local-first note store with wikilinks, backlinks, and AI tooling",
	Long: `Looseleaf keeps your notes in a local durable store, derives [[Title]]
mentions and backlinks from their content, suggests related notes, and can
summarize or rank them through a generative-language API.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default ~/.looseleaf)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// app wires the components together for one command invocation.
type app struct {
	cfg    *config.Config
	kv     persist.KV
	store  *store.NoteStore
	sched  *autosave.Scheduler
	creds  *persist.Credentials
	engine *relation.Engine
	gw     *gateway.Gateway

	closeFn func() error
}

// openApp composes the application: config, durable store, note store,
// autosave, relationship engine, and AI gateway.
func openApp() (*app, error) {
	cfg, err := config.Load(dataDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Storage.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	a := &app{cfg: cfg}

	switch cfg.Storage.Backend {
	case "files":
		root := osfs.NewFS()
		sub, err := root.FromOSPath(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("resolve data dir: %w", err)
		}
		fsys, err := hackpadfs.Sub(root, sub)
		if err != nil {
			return nil, fmt.Errorf("open data dir: %w", err)
		}
		a.kv = persist.NewFileKV(fsys)
		a.store = store.New()
		a.closeFn = func() error { return nil }
	default:
		db, err := persist.Open(filepath.Join(cfg.Storage.Path, "looseleaf.db"))
		if err != nil {
			return nil, err
		}
		a.kv = db.KV()
		a.store = store.New(store.WithMetadata(db.Metadata()))
		a.closeFn = db.Close
	}

	if err := autosave.Load(a.kv, a.store); err != nil {
		a.closeFn()
		return nil, err
	}

	a.sched = autosave.New(a.kv, a.store, autosave.WithDebounce(cfg.Autosave.Debounce))
	a.store.OnChange(a.sched.Trigger)
	a.engine = relation.New(a.store)

	a.creds = persist.NewCredentials(a.kv, cfg.Storage.Path)
	if err := a.creds.Load(); err != nil {
		slog.Warn("stored API key unreadable", "error", err)
	}

	clientOpts := []gateway.ClientOption{
		gateway.WithParams(gateway.Params{
			Temperature: cfg.AI.Temperature,
			TopK:        cfg.AI.TopK,
			TopP:        cfg.AI.TopP,
		}),
	}
	if cfg.AI.Endpoint != "" {
		clientOpts = append(clientOpts, gateway.WithEndpoint(cfg.AI.Endpoint))
	}
	a.gw = gateway.New(gateway.NewClient(envOverrideCreds{a.creds, cfg.AI.KeyEnv}, clientOpts...))

	return a, nil
}

// save flushes pending changes synchronously. CLI commands are one-shot, so
// the debounce never gets a chance to fire on its own.
func (a *app) save() {
	if err := a.sched.Flush(); err != nil {
		slog.Warn("save failed, notes kept in memory only", "error", err)
		fmt.Fprintln(os.Stderr, "warning: could not save notes:", err)
	}
}

func (a *app) close() {
	a.sched.Stop()
	if err := a.closeFn(); err != nil {
		slog.Warn("close failed", "error", err)
	}
}

// envOverrideCreds prefers the configured environment variable over the
// stored encrypted key.
type envOverrideCreds struct {
	stored *persist.Credentials
	envVar string
}

func (e envOverrideCreds) APIKey() (string, bool) {
	if e.envVar != "" {
		if key := os.Getenv(e.envVar); key != "" {
			return key, true
		}
	}
	return e.stored.APIKey()
}

// resolveNote finds a note by ID, unique ID prefix, or exact title.
func resolveNote(a *app, ref string) (*store.Note, error) {
	if n, ok := a.store.Get(ref); ok {
		return n, nil
	}

	var byPrefix []*store.Note
	for _, n := range a.store.List() {
		if strings.HasPrefix(n.ID, ref) {
			byPrefix = append(byPrefix, n)
		}
		if strings.EqualFold(n.Title, ref) {
			return n, nil
		}
	}
	switch len(byPrefix) {
	case 1:
		return byPrefix[0], nil
	case 0:
		return nil, fmt.Errorf("no note matches %q", ref)
	default:
		return nil, fmt.Errorf("%q is ambiguous (%d matches)", ref, len(byPrefix))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
