package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/atinylittleshell/gsearch/internal/config"
	"github.com/atinylittleshell/gsearch/internal/core"
	"github.com/atinylittleshell/gsearch/internal/history"
	"github.com/atinylittleshell/gsearch/internal/search"
	"github.com/atinylittleshell/gsearch/internal/styles"
	"github.com/atinylittleshell/gsearch/internal/suggest"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var BUILD_VERSION = "dev"

// exitInterrupted is the conventional status for a Ctrl+C exit.
const exitInterrupted = 130

const historyListLimit = 20

const helpText = `gsearch - a terminal search box with as-you-type suggestions

USAGE:
  gsearch [options]
  gsearch -history [-prefix] [filter...]

  Type to get suggestions for the word under the cursor. Tab or Down moves
  into the list, Up and Down move within it, Enter picks the highlighted
  suggestion. Enter on the input prints the query to stdout and exits.

  With -history, any remaining arguments filter the listing to searches
  containing them, or starting with them when -prefix is set.

KEYS:
  Esc      hide suggestions
  Ctrl+L   clear the input
  Ctrl+V   paste
  Ctrl+C   quit without a result

  Keys can be rebound in the "keys" section of the config file. Run
  gsearch -keys to see the effective bindings.

OPTIONS:
`

type cliFlags struct {
	configPath   *string
	debounce     *time.Duration
	latency      *time.Duration
	failureRate  *float64
	noHistory    *bool
	listHistory  *bool
	prefix       *bool
	deleteEntry  *uint
	resetHistory *bool
	listKeys     *bool
	help         *bool
	version      *bool

	fs *flag.FlagSet
}

func newCLIFlags(fs *flag.FlagSet) *cliFlags {
	return &cliFlags{
		configPath:   fs.String("config", "", "path to the config file (default ~/.gsearch/config.yaml)"),
		debounce:     fs.Duration("debounce", 0, "quiet period before suggestions are requested"),
		latency:      fs.Duration("latency", 0, "maximum simulated backend latency"),
		failureRate:  fs.Float64("failure-rate", 0, "probability that a suggestion request fails"),
		noHistory:    fs.Bool("no-history", false, "do not record or suggest from past searches"),
		listHistory:  fs.Bool("history", false, "list recent searches and exit"),
		prefix:       fs.Bool("prefix", false, "with -history, match the filter as a prefix"),
		deleteEntry:  fs.Uint("delete-history", 0, "delete the recorded search with this id and exit"),
		resetHistory: fs.Bool("reset-history", false, "delete all recorded searches and exit"),
		listKeys:     fs.Bool("keys", false, "list the effective key bindings and exit"),
		help:         fs.Bool("h", false, "display help information"),
		version:      fs.Bool("ver", false, "display build version"),
		fs:           fs,
	}
}

// applyOverrides copies explicitly set flags onto cfg. -no-history can only
// turn history off.
func (f *cliFlags) applyOverrides(cfg *config.Config) error {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "debounce":
			cfg.Debounce = *f.debounce
		case "latency":
			cfg.Mock.MaxLatency = *f.latency
		case "failure-rate":
			cfg.Mock.FailureRate = *f.failureRate
		case "no-history":
			if *f.noHistory {
				cfg.History = false
			}
		}
	})
	return cfg.Validate()
}

func main() {
	os.Exit(realMain())
}

func realMain() int {
	flags := newCLIFlags(flag.CommandLine)
	flag.Parse()

	if *flags.version {
		fmt.Println(BUILD_VERSION)
		return 0
	}

	if *flags.help {
		fmt.Print(helpText)
		flag.PrintDefaults()
		return 0
	}

	cfg, configErrors, err := loadConfig(*flags.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, styles.ERROR(err.Error()))
		return 1
	}
	if err := flags.applyOverrides(cfg); err != nil {
		fmt.Fprintln(os.Stderr, styles.ERROR(fmt.Sprintf("invalid flags: %v", err)))
		return 2
	}

	logger, err := initializeLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, styles.ERROR(fmt.Sprintf("failed to initialize logger: %v", err)))
		return 1
	}
	defer logger.Sync() // Flush any buffered log entries

	logger.Info("-------- new gsearch session --------", zap.Any("args", os.Args))

	for _, configErr := range configErrors {
		logger.Warn("config error, using defaults", zap.Error(configErr))
		fmt.Fprintln(os.Stderr, styles.LOG(fmt.Sprintf("config: %v (using defaults)", configErr)))
	}

	code, err := run(cfg, flags, logger, os.Stdout)
	if err != nil {
		logger.Error("unhandled error", zap.Error(err))
		fmt.Fprintln(os.Stderr, styles.ERROR(err.Error()))
	}
	return code
}

func run(cfg *config.Config, flags *cliFlags, logger *zap.Logger, stdout io.Writer) (int, error) {
	keymap := search.DefaultKeyMap()
	if err := keymap.Apply(cfg.Keys); err != nil {
		logger.Warn("invalid key bindings, keeping defaults for them", zap.Error(err))
		fmt.Fprintln(os.Stderr, styles.LOG(fmt.Sprintf("config: %v (using default keys)", err)))
	}

	if *flags.listKeys {
		printKeys(stdout, keymap)
		return 0, nil
	}

	var historyManager *history.HistoryManager
	if cfg.History || *flags.listHistory || *flags.resetHistory || isSet(flags.fs, "delete-history") {
		hm, err := history.NewHistoryManager(core.HistoryFile())
		if err != nil {
			return 1, fmt.Errorf("failed to open history: %w", err)
		}
		defer hm.Close()
		historyManager = hm
	}

	if *flags.resetHistory {
		if err := historyManager.ResetHistory(); err != nil {
			return 1, err
		}
		fmt.Fprintln(stdout, "history cleared")
		return 0, nil
	}

	if isSet(flags.fs, "delete-history") {
		if err := historyManager.DeleteEntry(*flags.deleteEntry); err != nil {
			return 1, err
		}
		fmt.Fprintf(stdout, "deleted history entry %d\n", *flags.deleteEntry)
		return 0, nil
	}

	if *flags.listHistory {
		filter := strings.Join(flags.fs.Args(), " ")
		entries, err := findHistory(historyManager, filter, *flags.prefix, historyListLimit)
		if err != nil {
			return 1, err
		}
		printHistory(stdout, entries, time.Now())
		return 0, nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return 1, errors.New("gsearch needs an interactive terminal on stdin")
	}

	modelConfig := search.Config{
		Prompt:        cfg.Prompt,
		Source:        buildSource(cfg, historyManager, logger),
		DebounceDelay: cfg.Debounce,
		FetchTimeout:  cfg.FetchTimeout,
		KeyMap:        keymap,
		Logger:        logger,
	}
	if historyManager != nil {
		modelConfig.Recorder = historyManager
	}

	if width, _, err := term.GetSize(int(os.Stderr.Fd())); err == nil {
		modelConfig.Width = width
	}

	// The UI draws on stderr so stdout carries only the result.
	program := tea.NewProgram(
		search.New(modelConfig),
		tea.WithOutput(os.Stderr),
		tea.WithReportFocus(),
	)

	final, err := program.Run()
	if err != nil {
		return 1, fmt.Errorf("search box failed: %w", err)
	}

	model, ok := final.(search.Model)
	if !ok {
		return 1, fmt.Errorf("unexpected model type %T", final)
	}

	return handleResult(model.Result(), stdout, logger), nil
}

// handleResult prints a submitted query and maps the result to an exit code.
func handleResult(result search.Result, stdout io.Writer, logger *zap.Logger) int {
	switch result.Type {
	case search.ResultSubmit:
		query := strings.TrimSpace(result.Value)
		logger.Info("query submitted", zap.String("query", query))
		fmt.Fprintln(stdout, query)
		return 0
	case search.ResultInterrupt:
		logger.Info("search interrupted")
		return exitInterrupted
	default:
		return 0
	}
}

// buildSource wires the simulated backend with the history source and caps
// the merged result.
func buildSource(cfg *config.Config, historyManager *history.HistoryManager, logger *zap.Logger) suggest.Source {
	var source suggest.Source = suggest.NewMockSource(suggest.MockConfig{
		MaxLatency:    cfg.Mock.MaxLatency,
		FailureRate:   cfg.Mock.FailureRate,
		InclusionRate: cfg.Mock.InclusionRate,
		Prefix:        cfg.Mock.Prefix,
		Suffix:        cfg.Mock.Suffix,
		Logger:        logger.Named("mock"),
	})

	if historyManager != nil {
		source = suggest.Merge(logger, source, suggest.NewHistorySource(historyManager, 0, 0))
	}

	return suggest.Limit(source, cfg.MaxSuggestions)
}

// findHistory returns recent entries, optionally narrowed to those containing
// filter or, with prefix set, starting with it.
func findHistory(historyManager *history.HistoryManager, filter string, prefix bool, limit int) ([]history.HistoryEntry, error) {
	var (
		entries []history.HistoryEntry
		err     error
	)
	switch {
	case filter == "":
		entries, err = historyManager.GetRecentEntries(limit)
	case prefix:
		entries, err = historyManager.GetRecentEntriesByPrefix(filter, limit)
	default:
		entries, err = historyManager.SearchHistory(filter, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return entries, nil
}

func printHistory(w io.Writer, entries []history.HistoryEntry, now time.Time) {
	for _, entry := range entries {
		fmt.Fprintf(w, "%5d  %-6s  %-16s  %s\n",
			entry.ID,
			entry.Kind,
			humanize.RelTime(entry.CreatedAt, now, "ago", "from now"),
			styles.QUERY(entry.Query))
	}
}

func printKeys(w io.Writer, keymap *search.KeyMap) {
	for _, binding := range keymap.Bindings() {
		fmt.Fprintf(w, "%-24s  %s\n", binding.Action, strings.Join(binding.Keys, ", "))
	}
}

func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func loadConfig(path string) (*config.Config, []error, error) {
	if path == "" {
		path = core.ConfigFile()
	}

	result, err := config.NewLoader(nil).LoadFromFile(path)
	if err != nil {
		return nil, nil, err
	}
	return result.Config, result.Errors, nil
}

// isDevBuild reports whether version is something other than a release
// version, e.g. the "dev" default of local builds.
func isDevBuild(version string) bool {
	_, err := semver.NewVersion(version)
	return err != nil
}

func initializeLogger(cfg *config.Config) (*zap.Logger, error) {
	logLevel, err := cfg.ZapLevel()
	if err != nil {
		return nil, err
	}
	if isDevBuild(BUILD_VERSION) {
		logLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = logLevel

	// Logs only go to file to avoid interfering with the Bubble Tea UI.
	// Use `tail -f ~/.gsearch/gsearch.log` to monitor them.
	loggerConfig.OutputPaths = []string{
		core.LogFile(),
	}

	return loggerConfig.Build()
}
