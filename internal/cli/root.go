// Package cli implements the classreg command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/classreg/internal/paths"
	"github.com/mesh-intelligence/classreg/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string
}

// app is the state shared by one invocation's commands. PersistentPreRunE
// fills config and logger before any subcommand runs.
type app struct {
	flags     rootFlags
	configDir string
	config    types.Config
	logger    zerolog.Logger
}

// NewRootCmd creates the top-level "classreg" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "classreg",
		Short: "Inspect the classes packaged in JAR archives and class files",
		Long: "classreg decodes the JVM class files inside a JAR (or a single .class file)\n" +
			"and lists classes and methods, optionally recording them in a local index.",
		Args:              userArgs(cobra.NoArgs),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return userError{err}
	})

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "index directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error, disabled (default: warn)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newClassesCmd(a))
	root.AddCommand(newMethodsCmd(a))
	root.AddCommand(newShowCmd(a))
	root.AddCommand(newIndexCmd(a))
	root.AddCommand(newFindCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one invocation and returns its exit code.
func run(args []string, stdout, stderr io.Writer) (code int) {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*types.InconsistencyError)
			if !ok {
				panic(r)
			}
			fmt.Fprintln(stderr, "Error:", ie)
			code = exitSysError
		}
	}()

	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// setup resolves directories, loads config.yaml and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}

	if a.flags.logLevel != "" {
		cfg.LogLevel = a.flags.logLevel
	}
	if a.flags.jsonMode {
		cfg.Output = types.OutputJSON
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w (log level %q, output %q)", err, cfg.LogLevel, cfg.Output)
	}

	cfg.DataDir, err = paths.ResolveDataDir(a.flags.dataDir, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.EffectiveLogLevel())
	if err != nil {
		return err
	}

	a.configDir = configDir
	a.config = cfg
	a.logger = logger
	a.logger.Debug().
		Str("config_dir", configDir).
		Str("data_dir", cfg.DataDir).
		Str("output", cfg.EffectiveOutput()).
		Msg("configuration loaded")
	return nil
}

// jsonOutput reports whether results should be printed as JSON.
func (a *app) jsonOutput() bool {
	return a.config.EffectiveOutput() == types.OutputJSON
}

// userError marks an error caused by the invocation rather than the system.
type userError struct{ err error }

func (e userError) Error() string { return e.err.Error() }
func (e userError) Unwrap() error { return e.err }

// userArgs wraps a positional argument validator so its failures exit as
// user errors.
func userArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return userError{err}
		}
		return nil
	}
}

// exitCode maps an error to the process exit code.
func exitCode(err error) int {
	var ue userError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &ue),
		errors.Is(err, types.ErrInvalidContainer),
		errors.Is(err, types.ErrClassNotFound),
		errors.Is(err, types.ErrScanNotFound),
		errors.Is(err, types.ErrLogLevelUnknown),
		errors.Is(err, types.ErrOutputUnknown):
		return exitUserError
	default:
		return exitSysError
	}
}
