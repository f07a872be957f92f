// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Exit codes returned by the process.
const (
	ExitOK           = 0
	ExitConfig       = 1
	ExitResolveGroup = 2
	ExitListProjects = 3
	ExitWriteReport  = 4
)

// exitError carries the process exit code for an error whose diagnostic was already printed.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// ExitCode maps an error returned by the root command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitConfig
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gitlab-inventory",
		Short: "A CLI tool to export an inventory of GitLab group projects.",
		Long: `gitlab-inventory lists every project under a GitLab group, including
nested subgroups, and writes their metadata to a CSV report.
The API token is read from the GITLAB_TOKEN environment variable or a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.AddCommand(newExportCommand())
	return rootCmd
}

// Execute runs the root command and exits with the code matching the outcome.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	rootCmd := NewRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		var ee *exitError
		if !errors.As(err, &ee) {
			// Cobra usage errors have not been reported yet.
			fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		}
		os.Exit(ExitCode(err))
	}
}

// newLogger writes to w, discarding everything below warnings unless verbose is set.
func newLogger(w io.Writer, verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(logrus.WarnLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}
