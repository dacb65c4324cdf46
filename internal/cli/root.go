package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spluca/filecopy/internal/copier"
	"github.com/spluca/filecopy/internal/monitor"
	"github.com/spluca/filecopy/internal/storage"
	"github.com/spluca/filecopy/internal/version"
	"github.com/spluca/filecopy/pkg/config"
	"github.com/spluca/filecopy/pkg/logger"
)

type options struct {
	cfgFile     string
	logLevel    string
	logFormat   string
	sync        bool
	checkSpace  bool
	metricsFile string

	stderr io.Writer
}

// Execute runs cp with args (program name excluded) and returns the exit status.
// Diagnostics are written to stderr, help and version output to stdout.
func Execute(args []string, stdout, stderr io.Writer) int {
	if args == nil {
		args = []string{}
	}

	cmd := NewRootCommand(stdout, stderr)
	cmd.SetArgs(separatePaths(cmd.Flags(), args))

	err := cmd.Execute()
	if err == nil {
		return copier.ExitOK
	}

	var cerr *copier.Error
	if errors.As(err, &cerr) {
		fmt.Fprintln(stderr, cerr.Diagnostic())
		return cerr.ExitCode()
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

// NewRootCommand builds the cp command
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	o := &options{stderr: stderr}

	cmd := &cobra.Command{
		Use:   "cp [flags] file_from file_to",
		Short: "Copy a file byte for byte",
		Long: `Copy file_from to file_to through a 1024-byte buffer.

file_to is created with mode 0664 or truncated if it exists.
Exit status: 0 success, 97 usage, 98 read failure, 99 write failure, 100 close failure.`,
		Version:       version.String(),
		Args:          exactlyTwoPaths,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          o.run,
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("cp {{.Version}}\n")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return copier.NewUsageError(err)
	})

	flags := cmd.Flags()
	flags.StringVar(&o.cfgFile, "config", "", "config file path")
	flags.StringVar(&o.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&o.logFormat, "log-format", "", "log format (text or json)")
	flags.BoolVar(&o.sync, "sync", false, "fsync file_to before closing it")
	flags.BoolVar(&o.checkSpace, "check-space", false, "fail before writing if file_to's filesystem lacks room")
	flags.StringVar(&o.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	// Registered without shorthands so -h and -v stay usable as file names.
	flags.Bool("help", false, "help for cp")
	flags.Bool("version", false, "version for cp")

	return cmd
}

// separatePaths returns args with "--" inserted before the first argument that
// is not a registered long flag, so paths such as "-in" or "__complete" are
// never parsed as flags or commands. Flags are only recognised before the paths.
func separatePaths(flags *pflag.FlagSet, args []string) []string {
	out := make([]string, 0, len(args)+1)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return append(out, args[i:]...)
		}

		f, inline := lookupLongFlag(flags, arg)
		if f == nil {
			out = append(out, "--")
			return append(out, args[i:]...)
		}

		out = append(out, arg)
		if !inline && f.NoOptDefVal == "" && i+1 < len(args) {
			i++
			out = append(out, args[i])
		}
	}
	return out
}

// lookupLongFlag resolves "--name" or "--name=value". inline is true when the
// value is part of arg.
func lookupLongFlag(flags *pflag.FlagSet, arg string) (*pflag.Flag, bool) {
	if !strings.HasPrefix(arg, "--") || len(arg) == 2 {
		return nil, false
	}
	name, _, inline := strings.Cut(arg[2:], "=")
	return flags.Lookup(name), inline
}

func exactlyTwoPaths(_ *cobra.Command, args []string) error {
	if len(args) != 2 {
		return copier.NewUsageError(fmt.Errorf("expected 2 arguments, got %d", len(args)))
	}
	return nil
}

func (o *options) run(cmd *cobra.Command, args []string) error {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return err
	}

	log := logger.New(o.stderr, cfg.Log.Level, cfg.Log.Format)
	log.WithFields(logrus.Fields{
		"version": version.Version,
		"config":  o.cfgFile,
	}).Debug("Starting cp")

	copts := copier.Options{
		Sync:           cfg.Copy.Sync,
		SequentialHint: cfg.SequentialHintEnabled(),
	}
	if cfg.Copy.CheckSpace {
		copts.Space = storage.NewManager(log)
	}

	var metrics *monitor.Metrics
	if cfg.Monitoring.Enabled {
		metrics = monitor.NewMetrics()
		copts.Observer = metrics
	}

	runner := copier.NewRunner(copts, log)
	_, copyErr := runner.Run(args)

	if metrics != nil {
		if err := metrics.WriteTextfile(cfg.Monitoring.Textfile); err != nil {
			log.WithError(err).Warn("Metrics not written")
		}
	}

	return copyErr
}

// loadConfig reads the config file, if any, and lets explicit flags override it.
func (o *options) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if o.cfgFile != "" {
		loaded, err := config.Load(o.cfgFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = o.logFormat
	}
	if flags.Changed("sync") {
		cfg.Copy.Sync = o.sync
	}
	if flags.Changed("check-space") {
		cfg.Copy.CheckSpace = o.checkSpace
	}
	if flags.Changed("metrics-file") {
		cfg.Monitoring.Enabled = o.metricsFile != ""
		cfg.Monitoring.Textfile = o.metricsFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}

	return cfg, nil
}
