package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bastiangx/replserve/internal/cli"
	"github.com/bastiangx/replserve/internal/logger"
	"github.com/bastiangx/replserve/internal/utils"
	"github.com/bastiangx/replserve/pkg/analysis"
	"github.com/bastiangx/replserve/pkg/autocomplete"
	"github.com/bastiangx/replserve/pkg/config"
	"github.com/bastiangx/replserve/pkg/importindex"
	"github.com/bastiangx/replserve/pkg/object"
	"github.com/bastiangx/replserve/pkg/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           AppName,
		Short:         "Completion engine for interactive Python shells",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetDebug(opts.debug)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config.toml")
	root.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "Toggle debug mode")

	root.AddCommand(
		newServeCmd(opts),
		newCliCmd(opts),
		newIndexCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve completions over msgpack on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, configPath := loadConfig(opts)
			completer := newCompleter(ctx, cfg, configPath)

			srv := server.NewServer(completer, cfg, configPath)
			log.Debugf("Session %s using config %s", srv.Session(), config.GetActiveConfigPath(configPath))
			return srv.Start(ctx)
		},
	}
}

func newCliCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "cli",
		Short: "Try completions interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, configPath := loadConfig(opts)
			completer := newCompleter(ctx, cfg, configPath)

			h := cli.NewInputHandler(completer, cfg.Completion.MatchingMode(), cfg.Completion.CompleteMagicMethods,
				cfg.Completion.MaxMatches, os.Stdin, os.Stdout)
			return h.Start(ctx)
		},
	}
}

func newIndexCmd(opts *options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Scan module search paths and write the module cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, configPath := loadConfig(opts)
			ix := newIndex(cfg)
			if err := ix.Refresh(cmd.Context()); err != nil {
				return errors.Wrap(err, "scan search paths")
			}
			if output == "" {
				output = cfg.Imports.CachePath(configDir(configPath))
			}
			if output == "" {
				return errors.New("no cache file configured, pass --output")
			}
			if err := ix.Save(output); err != nil {
				return err
			}
			log.Infof("Indexed %d modules from %d search paths into %s", len(ix.Modules()), len(ix.SearchPaths()), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Cache file to write (default from config)")
	return cmd
}

func newConfigCmd(opts *options) *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the active config file, or reset it to defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			if reset {
				if err := config.RebuildConfigFile(); err != nil {
					return errors.Wrap(err, "rebuild config")
				}
				log.Infof("Wrote defaults to %s", config.GetDefaultConfigPath())
				return nil
			}
			_, path := loadConfig(opts)
			fmt.Fprintln(cmd.OutOrStdout(), config.GetActiveConfigPath(path))
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "Overwrite the default config.toml with defaults")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show current version",
		Run: func(cmd *cobra.Command, args []string) {
			showVersion()
		},
	}
}

func loadConfig(opts *options) (*config.Config, string) {
	cfg, path, err := config.LoadConfigWithPriority(opts.configPath)
	if err != nil {
		log.Warnf("Failed to load config: %v. Using built-in defaults...", err)
		return config.DefaultConfig(), ""
	}
	return cfg, path
}

func configDir(configPath string) string {
	if configPath == "" {
		return config.GetConfigDir()
	}
	return filepath.Dir(configPath)
}

func newIndex(cfg *config.Config) *importindex.Index {
	ix := importindex.New(
		importindex.WithSearchPaths(utils.PythonSearchPaths(cfg.Imports.SearchPaths...)...),
		importindex.WithScanTTL(cfg.Imports.ScanTTL()),
		importindex.WithMaxDepth(cfg.Imports.MaxDepth),
	)
	for _, mod := range object.DefaultGlobals().Modules {
		ix.RegisterLoaded(mod)
	}
	return ix
}

// newCompleter builds the canonical chain over a module index that warms
// from its cache and rescans in the background.
func newCompleter(ctx context.Context, cfg *config.Config, configPath string) *autocomplete.Completer {
	ix := newIndex(cfg)
	cache := cfg.Imports.CachePath(configDir(configPath))
	if cache != "" && utils.FileExists(cache) {
		if err := ix.Load(cache); err != nil {
			log.Warnf("Ignoring module cache: %v", err)
		}
	}

	go func() {
		if err := ix.Refresh(ctx); err != nil {
			log.Debugf("Module scan stopped: %v", err)
			return
		}
		if cache != "" {
			if err := ix.Save(cache); err != nil {
				log.Warnf("Failed to save module cache: %v", err)
			}
		}
	}()

	if cfg.Imports.Watch {
		if err := ix.Watch(ctx); err != nil {
			log.Warnf("Not watching search paths: %v", err)
		}
	}
	return autocomplete.NewCompleter(ix, analysis.NewEngine(nil))
}

// showVersion prints the version banner with the charm log styles.
func showVersion() {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	l.SetStyles(styles)

	l.Print("")
	l.Print("[ replserve ] Completions for interactive Python shells")
	l.Print("", "version", Version)
	l.Print("")
	l.Print("use -h or --help to see available options")
	l.Print("Github Repo", "gh", gh)
}
