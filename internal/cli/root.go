// Package cli implements the gittopo command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rybkr/gittopo/internal/gitcore"
	"github.com/rybkr/gittopo/internal/history"
	"github.com/rybkr/gittopo/internal/server"
)

const notInRepository = "Not inside a Git repository"

type options struct {
	repoPath  string
	color     string
	lenient   bool
	serveAddr string
	poll      time.Duration
	verbose   bool
}

// Execute runs the command with the process arguments and returns the exit
// status.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, gitcore.ErrNotRepository) {
			fmt.Fprintln(stderr, notInRepository)
		} else {
			fmt.Fprintf(stderr, "gittopo: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "gittopo",
		Short: "Print the commits reachable from every branch in topological order",
		Long: `Reconstruct the commit graph straight from .git/objects and print it
newest first, one commit per line followed by the branches pointing at it.

Where two consecutive commits are not directly linked, the parents of the
first are printed followed by "=", then a blank line, then "=" followed by
the children of the next commit.

Examples:
  gittopo                      # Print the history of the enclosing repository
  gittopo --repo ../other      # Start the repository search elsewhere
  gittopo --serve :8080        # Publish the history over HTTP and WebSocket`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(stderr, opts.verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd.Context(), opts, stdout)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.repoPath, "repo", ".", "Directory to start searching for the repository from")
	flags.StringVar(&opts.color, "color", "auto", "Color branch names: auto, always or never")
	flags.BoolVar(&opts.lenient, "lenient", false, "Print a partial order instead of failing on cyclic histories")
	flags.StringVar(&opts.serveAddr, "serve", "", "Serve the history over HTTP on this address instead of printing it")
	flags.DurationVar(&opts.poll, "poll", 5*time.Second, "Re-read interval in serve mode, 0 to rely on file watching only")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func configureLogging(w io.Writer, verbose bool) {
	log.SetOutput(w)
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	if verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}
}

func runRoot(ctx context.Context, opts *options, stdout io.Writer) error {
	repo, err := gitcore.NewRepository(opts.repoPath)
	if err != nil {
		return err
	}
	log.WithField("gitDir", repo.GitDir()).Debug("repository found")

	historyOpts := history.Options{Lenient: opts.lenient}

	if opts.serveAddr != "" {
		srv := server.NewServer(repo, server.Config{
			History:      historyOpts,
			PollInterval: opts.poll,
		})
		return srv.ListenAndServe(ctx, opts.serveAddr)
	}

	useColor, err := resolveColor(opts.color, repo, stdout)
	if err != nil {
		return err
	}

	report, err := history.LinearizeRepository(repo, historyOpts)
	if err != nil {
		return err
	}
	return history.NewRenderer(stdout, useColor).Render(report)
}

// resolveColor decides whether branch names are colored. In auto mode the
// repository's color.branch/color.ui settings win, then whether out is a
// terminal.
func resolveColor(mode string, repo *gitcore.Repository, out io.Writer) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
	default:
		return false, fmt.Errorf("invalid --color value %q (want auto, always or never)", mode)
	}

	config, err := repo.Config()
	if err != nil {
		log.Warnf("ignoring unreadable repository config: %v", err)
	} else {
		switch config.ColorSetting() {
		case "always":
			return true, nil
		case "never":
			return false, nil
		}
	}

	return isTerminal(out), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
