// Package cli implements the biochem command-line interface: descriptor
// calculation, Lipinski screening, geometry minimization, depiction, and
// the web-service scrapers, sharing one configuration and logging setup.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Arifmaulanaazis/BioChem/internal/config"
	"github.com/Arifmaulanaazis/BioChem/pkg/errors"
	"github.com/Arifmaulanaazis/BioChem/pkg/logging"
	"github.com/Arifmaulanaazis/BioChem/scrape"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Workers      int
	Verbose      bool
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	OutputFormat string
	Verbose      bool
}

// NewRootCommand creates the root cobra command with all global flags and
// subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "biochem",
		Short:   "BioChem CLI - molecular descriptors, 3D geometry and ADMET screening",
		Long:    "BioChem is a cheminformatics toolkit: SMILES parsing, molecular\ndescriptors, Lipinski screening, conformer generation with force-field\nminimization, structure depiction, and batch clients for ADMETlab, ProTox,\nMolsoft and KNApSAcK.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./biochem.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "O", "table", "output format (text, json, table)")
	pf.IntVar(&opts.Workers, "workers", 0, "number of concurrent workers (overrides config)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")

	cmd.AddCommand(
		newPropsCmd(),
		newLipinskiCmd(),
		newMinimizeCmd(),
		newDrawCmd(),
		newScrapeCmd(),
		newKnapsackCmd(),
	)

	return cmd
}

// persistentPreRun initializes config and logger, then stores CLIContext.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := initConfig(opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	if opts.Workers > 0 {
		cfg.Scrape.MaxWorkers = opts.Workers
		cfg.Chem.Workers = opts.Workers
	}

	logger, err := initLogger(cfg, opts)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}
	logging.SetDefault(logger)

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: opts.OutputFormat,
		Verbose:      opts.Verbose,
	}

	ctx := context.WithValue(cmd.Context(), cliContextKey{}, cliCtx)
	cmd.SetContext(ctx)
	return nil
}

// initConfig loads configuration with priority: flags > env > file > defaults.
func initConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}

	searchPaths := []string{"./biochem.yaml"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(homeDir, ".biochem", "config.yaml"))
	}
	for _, p := range searchPaths {
		if _, statErr := os.Stat(p); statErr == nil {
			return config.Load(p)
		}
	}

	// No config file found; env vars plus defaults.
	return config.LoadFromEnv()
}

// initLogger creates a logger configured for CLI usage (output to stderr).
func initLogger(cfg *config.Config, opts *RootOptions) (logging.Logger, error) {
	level := cfg.Log.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	if opts.Verbose {
		level = "debug"
	}

	return logging.New(logging.Config{
		Level:       level,
		Format:      "console",
		OutputPaths: []string{"stderr"},
	})
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.Internal("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.Internal("CLI context not initialized")
	}
	return cliCtx, nil
}

// scrapeOptions translates the loaded config into engine options.
func scrapeOptions(cliCtx *CLIContext) []scrape.Option {
	sc := cliCtx.Config.Scrape
	opts := []scrape.Option{
		scrape.WithMaxWorkers(sc.MaxWorkers),
		scrape.WithMaxBatchSize(sc.MaxBatchSize),
		scrape.WithWaitInterval(sc.WaitInterval),
		scrape.WithMaxWait(sc.MaxWait),
		scrape.WithHTTPTimeout(sc.HTTPTimeout),
		scrape.WithRetryPolicy(scrape.RetryPolicy{
			MaxRetries:        sc.Retry.MaxRetries,
			InitialBackoff:    sc.Retry.BaseDelay,
			MaxBackoff:        sc.Retry.MaxDelay,
			BackoffMultiplier: sc.Retry.Multiplier,
		}),
		scrape.WithLogger(cliCtx.Logger),
	}
	if sc.AutoResume {
		opts = append(opts, scrape.WithAutoResume(sc.ResumeDir))
	}
	return opts
}

// Execute is the main entry point for the CLI application.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

// PrintResult outputs data in the format selected by the --output flag.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return printJSON(cmd, data)
	}

	switch strings.ToLower(cliCtx.OutputFormat) {
	case "json":
		return printJSON(cmd, data)
	case "table":
		return printTable(cmd, data)
	default:
		return printText(cmd, data)
	}
}

func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printText(cmd *cobra.Command, data interface{}) error {
	switch v := data.(type) {
	case string:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	case fmt.Stringer:
		fmt.Fprintln(cmd.OutOrStdout(), v.String())
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", v)
	}
	return nil
}

// tableProvider is implemented by results that render as aligned tables.
type tableProvider interface {
	TableHeaders() []string
	TableRows() [][]string
}

func printTable(cmd *cobra.Command, data interface{}) error {
	if tp, ok := data.(tableProvider); ok {
		fmt.Fprint(cmd.OutOrStdout(), FormatTable(tp.TableHeaders(), tp.TableRows()))
		return nil
	}
	return printText(cmd, data)
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
}

// FormatTable renders headers and rows as an aligned ASCII table.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(colWidths); i++ {
			if len(row[i]) > colWidths[i] {
				colWidths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	for i, h := range headers {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(padRight(h, colWidths[i]))
	}
	sb.WriteString("\n")

	for i, w := range colWidths {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(strings.Repeat("-", w))
	}
	sb.WriteString("\n")

	for _, row := range rows {
		for i := 0; i < len(headers); i++ {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			sb.WriteString(padRight(val, colWidths[i]))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// readSMILESArgs resolves the structure list for a command: positional args
// first, otherwise one SMILES per line from the --input file.  Blank lines
// and lines starting with '#' are skipped.
func readSMILESArgs(args []string, inputPath string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if inputPath == "" {
		return nil, errors.InvalidParam("no structures given: pass SMILES arguments or --input FILE")
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "failed to read input file").WithDetail(inputPath)
	}

	var list []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		list = append(list, line)
	}
	if len(list) == 0 {
		return nil, errors.InvalidParam("input file contains no structures").WithDetail(inputPath)
	}
	return list, nil
}

// exportOrPrint writes the table to the --out file when given (format by
// extension), otherwise renders it to stdout.
func exportOrPrint(cmd *cobra.Command, table *scrape.Table, outPath string) error {
	if outPath != "" {
		if err := table.Export(outPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", table.Len(), outPath)
		return nil
	}
	return PrintResult(cmd, tableView{table})
}

// tableView adapts a scrape.Table to the CLI table renderer.
type tableView struct {
	t *scrape.Table
}

func (v tableView) TableHeaders() []string { return v.t.Columns() }

func (v tableView) TableRows() [][]string {
	records := v.t.Records()
	if len(records) <= 1 {
		return nil
	}
	return records[1:]
}

func (v tableView) MarshalJSON() ([]byte, error) {
	rows := make([]scrape.Row, 0, v.t.Len())
	for i := 0; i < v.t.Len(); i++ {
		rows = append(rows, v.t.Row(i))
	}
	return json.Marshal(rows)
}
