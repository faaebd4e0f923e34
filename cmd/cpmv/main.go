package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/time/rate"

	"github.com/bamsammich/cpmv/internal/config"
	"github.com/bamsammich/cpmv/internal/logging"
	"github.com/bamsammich/cpmv/internal/platform"
	"github.com/bamsammich/cpmv/internal/stats"
	"github.com/bamsammich/cpmv/internal/tree"
	"github.com/bamsammich/cpmv/internal/ui"
	"github.com/bamsammich/cpmv/internal/verify"
)

var version = "dev"

const (
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// options holds the flags shared by copy and move.
type options struct {
	verbose bool
	quiet   bool
	verify  bool
	digest  string
	bwLimit string
	logFile string
}

func run(args []string) int {
	stop := handleInterrupt(os.Exit)
	defer stop()

	root := newRootCmd()
	root.SetArgs(args)
	return exitCode(root.Execute(), os.Stderr)
}

// exitCode maps the error returned by the command tree to a process exit
// status, printing errors that have not been reported yet.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitUsage
}

func newRootCmd() *cobra.Command {
	var (
		opts        options
		showVersion bool
	)

	rootCmd := &cobra.Command{
		Use:   "cpmv",
		Short: "Recursively copy or move a file or directory tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				fmt.Fprintf(cmd.OutOrStdout(), "cpmv %s\n", version)
				return nil
			}
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	pf.BoolVarP(&opts.quiet, "quiet", "q", false, "warnings and errors only")
	pf.BoolVar(&opts.verify, "verify", false, "compare content digests after the operation")
	opts.digest = string(verify.BLAKE3)
	pf.Var(digestValue{&opts.digest}, "digest", "verification digest (blake3 or xxh64)")
	pf.StringVar(&opts.bwLimit, "bwlimit", "", "cap copy throughput (e.g. 50M, 1G)")
	pf.StringVar(&opts.logFile, "log", "", "also write structured JSON log to FILE")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.AddCommand(
		newOpCmd("copy", "Copy SOURCE into the directory DESTINATION", &opts),
		newOpCmd("move", "Move SOURCE into the directory DESTINATION", &opts),
		newDocsCmd(),
	)
	return rootCmd
}

func newOpCmd(op, short string, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   op + " [flags] <source> <destination>",
		Short: short,
		Long: short + ".\n\nThe result is placed at DESTINATION/<base name of SOURCE>. " +
			"DESTINATION is created if missing. Symlinks, sockets, FIFOs and " +
			"devices inside SOURCE are skipped.",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, op, *opts, args[0], args[1])
		},
	}
}

//nolint:gocyclo // orchestrates config, logging, the operation and verification
func execute(cmd *cobra.Command, op string, opts options, src, dst string) error {
	// Load optional config file.
	cfg, cfgErr := config.Load()
	applyConfigDefaults(cmd, cfg, &opts)

	logOpts := logging.Options{Verbose: opts.verbose, Quiet: opts.quiet, File: opts.logFile}
	if !cmd.Flags().Changed("verbose") && !cmd.Flags().Changed("quiet") && cfg.Log.Level != nil {
		logOpts.Level = *cfg.Log.Level
	}
	logger, closer, err := logging.New(cmd.ErrOrStderr(), logOpts)
	if err != nil {
		return err
	}
	defer closer.Close()
	slog.SetDefault(logger)

	if cfgErr != nil {
		slog.Warn("failed to load config", "error", cfgErr)
	}

	alg, err := verify.ParseAlgorithm(opts.digest)
	if err != nil {
		return fmt.Errorf("invalid digest: %w", err)
	}

	var limiter *rate.Limiter
	if opts.bwLimit != "" {
		n, err := config.ParseSize(opts.bwLimit)
		if err != nil {
			return fmt.Errorf("invalid --bwlimit: %w", err)
		}
		if n <= 0 {
			return fmt.Errorf("invalid --bwlimit: must be positive")
		}
		limiter = platform.NewLimiter(n)
	}

	// The source manifest is taken first since move removes the source.
	var want verify.Manifest
	if opts.verify {
		want, err = verify.Snapshot(src, alg)
		if err != nil {
			slog.Error("snapshot source", "error", err)
			return &exitError{code: exitFailure}
		}
	}

	collector := stats.NewCollector()
	treeCfg := tree.Config{
		Logger:  logger,
		Stats:   collector,
		Limiter: limiter,
	}

	slog.Debug("starting "+op, "src", src, "dst", dst, "verify", opts.verify, "bwlimit", opts.bwLimit)

	if op == "move" {
		err = tree.Move(src, dst, treeCfg)
	} else {
		err = tree.Copy(src, dst, treeCfg)
	}

	failed := err != nil
	if err != nil {
		slog.Error(op+" failed", "src", src, "dst", dst, "error", err)
	} else if opts.verify {
		failed = !verifyTarget(want, src, dst, alg, collector)
	}

	if !opts.quiet {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Summary{
			Op:     op,
			Stats:  collector.Snapshot(),
			Failed: failed,
			Color:  ui.IsTTY(os.Stderr.Fd()),
		})
	}
	slog.Debug("finished "+op, "stats", collector.Snapshot().String())

	if failed {
		return &exitError{code: exitFailure}
	}
	return nil
}

// verifyTarget compares the tree produced under dst against want and logs
// every mismatch.
func verifyTarget(want verify.Manifest, src, dst string, alg verify.Algorithm, collector *stats.Collector) bool {
	target, err := tree.Target(src, dst)
	if err != nil {
		slog.Error("verification failed", "error", err)
		return false
	}
	result, err := verify.Check(want, target, alg, collector)
	if err != nil {
		slog.Error("verification failed", "error", err)
		return false
	}
	for _, m := range result.Mismatches {
		slog.Warn("verification mismatch", "path", m.Path, "reason", m.Reason)
	}
	return result.OK()
}

// digestValue rejects unknown digest names at flag parse time.
type digestValue struct{ p *string }

var _ pflag.Value = digestValue{}

func (v digestValue) String() string {
	if v.p == nil {
		return ""
	}
	return *v.p
}

func (digestValue) Type() string { return "string" }

func (v digestValue) Set(s string) error {
	if _, err := verify.ParseAlgorithm(s); err != nil {
		return err
	}
	*v.p = s
	return nil
}

// applyConfigDefaults applies config defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(cmd *cobra.Command, cfg config.Config, opts *options) {
	d := cfg.Defaults
	if !cmd.Flags().Changed("verify") && d.Verify != nil {
		opts.verify = *d.Verify
	}
	if !cmd.Flags().Changed("digest") && d.Digest != nil {
		opts.digest = *d.Digest
	}
	if !cmd.Flags().Changed("bwlimit") && d.BWLimit != nil {
		opts.bwLimit = *d.BWLimit
	}
	if !cmd.Flags().Changed("log") && cfg.Log.File != nil {
		opts.logFile = *cfg.Log.File
	}
}

// handleInterrupt removes in-flight temp files and exits with 130 on
// SIGINT or SIGTERM. The returned func stops listening.
func handleInterrupt(exit func(int)) func() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigCh:
			onInterrupt(sig, exit)
		case <-done:
		}
	}()
	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}

func onInterrupt(sig os.Signal, exit func(int)) {
	removed := platform.CleanupTmpFiles()
	slog.Warn("interrupted", "signal", sig.String(), "temp_files_removed", removed)
	exit(exitInterrupted)
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
