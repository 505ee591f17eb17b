// Package commands implements the jsonapi command-line tool with Cobra.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/jsonapi-gateway/internal/platform/config"
	"github.com/jsamuelsen/jsonapi-gateway/internal/platform/logging"
)

// ConfigLoader loads gateway configuration for a profile.
type ConfigLoader func(profile string) (*config.Config, error)

// AppOption customizes App dependencies.
type AppOption func(*App)

// App holds CLI state and runtime dependencies.
type App struct {
	root *cobra.Command

	loadConfig ConfigLoader
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
	logger     *slog.Logger

	output  string
	verbose bool
	profile string

	decodeStatus int
	report       bool
	baseURL      string
}

// WithConfigLoader injects a config loader dependency.
func WithConfigLoader(loader ConfigLoader) AppOption {
	return func(a *App) {
		if loader != nil {
			a.loadConfig = loader
		}
	}
}

// WithIO injects process I/O streams.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) AppOption {
	return func(a *App) {
		if stdin != nil {
			a.stdin = stdin
		}
		if stdout != nil {
			a.stdout = stdout
		}
		if stderr != nil {
			a.stderr = stderr
		}
	}
}

// NewApp creates a new CLI app with default dependencies.
func NewApp(opts ...AppOption) *App {
	a := &App{
		loadConfig: config.Load,
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}

	for _, opt := range opts {
		opt(a)
	}

	a.root = a.newRootCommand()

	return a
}

func (a *App) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "jsonapi",
		Short: "Decode JSON:API documents",
		Long: `jsonapi classifies HTTP responses and decodes JSON:API documents into plain
records with their relationships resolved from the included section.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&a.output, "output", "o", formatJSON, "output format (json, yaml)")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "enable debug logging on stderr")
	root.PersistentFlags().StringVar(&a.profile, "profile", "local", "configuration profile used by fetch")

	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.AddCommand(a.newDecodeCommand())
	root.AddCommand(a.newFetchCommand())
	root.AddCommand(a.newClassifyCommand())
	root.AddCommand(a.newVersionCommand())

	return root
}

// Execute runs the root command with the process arguments.
func (a *App) Execute() error {
	return a.root.Execute()
}

// Run runs the root command with args, for tests and embedding.
func (a *App) Run(args ...string) error {
	a.root.SetArgs(args)
	return a.root.Execute()
}

func (a *App) init() error {
	if err := validateFormat(a.output); err != nil {
		return err
	}

	level := "warn"
	if a.verbose {
		level = "debug"
	}

	a.logger = logging.NewWithWriter(&logging.Config{
		Level:   level,
		Format:  "pretty",
		Service: "jsonapi",
		Version: Version,
	}, a.stderr)

	return nil
}

var defaultApp = NewApp()

// Execute runs the default app root command.
func Execute() error {
	return defaultApp.Execute()
}
