package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/gitlab-inventory/internal/config"
	"github.com/naka-gawa/gitlab-inventory/internal/domain"
	"github.com/naka-gawa/gitlab-inventory/internal/gateway"
	"github.com/naka-gawa/gitlab-inventory/internal/usecase"
)

type exportOptions struct {
	cfg     config.Config
	envFile string
	summary bool
}

func newExportCommand() *cobra.Command {
	opts := &exportOptions{cfg: config.Default(), envFile: config.DefaultEnvFile}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Exports all projects of a GitLab group to CSV",
		Long: `Resolves the group path, pages through every project in the group and its
subgroups (ordered by path), and writes name, path, archived flag, last activity,
web URL, empty-repository flag and visibility of each project to a CSV file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts)
		},
	}

	flags := exportCmd.Flags()
	flags.StringVar(&opts.cfg.BaseURL, "url", opts.cfg.BaseURL, "GitLab base URL")
	flags.StringVarP(&opts.cfg.GroupPath, "group", "g", opts.cfg.GroupPath, "Full path of the group to export (e.g. company/work)")
	flags.StringVarP(&opts.cfg.OutputPath, "output", "o", opts.cfg.OutputPath, "Destination CSV file, overwritten if it exists")
	flags.StringVar((*string)(&opts.cfg.AuthScheme), "auth", string(opts.cfg.AuthScheme), `How to send the token: "private-token" or "bearer"`)
	flags.DurationVar(&opts.cfg.Timeout, "timeout", opts.cfg.Timeout, "Per-request timeout (0 disables it)")
	flags.IntVar(&opts.cfg.MaxPages, "max-pages", opts.cfg.MaxPages, "Fail if projects are still returned after this many pages (0 means no limit)")
	flags.StringVar(&opts.envFile, "env-file", opts.envFile, "dotenv file to read GITLAB_TOKEN from, if present")
	flags.BoolVar(&opts.summary, "summary", false, "Print inventory statistics to stderr after the export")
	return exportCmd
}

func runExport(cmd *cobra.Command, opts *exportOptions) error {
	out := cmd.OutOrStdout()

	if err := config.LoadEnvFile(opts.envFile); err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return &exitError{code: ExitConfig, err: err}
	}
	cfg, err := config.Load(opts.cfg, os.Getenv)
	if errors.Is(err, config.ErrMissingToken) {
		fmt.Fprintf(out, "Error: %s not found.\n", config.TokenEnvVar)
		fmt.Fprintf(out, "Please create a .env file and add %s=your_token\n", config.TokenEnvVar)
		return &exitError{code: ExitConfig, err: err}
	}
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return &exitError{code: ExitConfig, err: err}
	}

	verbose, _ := cmd.InheritedFlags().GetBool("verbose")
	logger := newLogger(cmd.ErrOrStderr(), verbose)

	gitlabGateway, err := gateway.NewGitLabGateway(cfg, logger)
	if err != nil {
		fmt.Fprintf(out, "Error: failed to create GitLab gateway: %v\n", err)
		return &exitError{code: ExitConfig, err: err}
	}
	exporter := usecase.NewExporter(gitlabGateway, logger)

	result, err := exporter.Export(cmd.Context(), cfg.GroupPath, cfg.OutputPath)
	if err != nil {
		return reportExportError(out, cfg, err)
	}

	fmt.Fprintf(out, "Exported %d projects to %s\n", result.Count, cfg.OutputPath)
	if opts.summary {
		printSummary(cmd.ErrOrStderr(), result.Summary)
	}
	return nil
}

// printSummary writes s as an aligned key/value block.
func printSummary(w io.Writer, s domain.InventorySummary) {
	visibilities := make([]string, 0, len(s.ByVisibility))
	for v := range s.ByVisibility {
		visibilities = append(visibilities, v)
	}
	sort.Strings(visibilities)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()
	fmt.Fprintf(tw, "Projects:\t%d\n", s.Total)
	fmt.Fprintf(tw, "Archived:\t%d\n", s.Archived)
	fmt.Fprintf(tw, "Empty repositories:\t%d\n", s.Empty)
	for _, v := range visibilities {
		fmt.Fprintf(tw, "Visibility %s:\t%d\n", v, s.ByVisibility[v])
	}
	fmt.Fprintf(tw, "Median idle days:\t%.1f\n", s.MedianIdleDays)
	fmt.Fprintf(tw, "Max idle days:\t%.1f\n", s.MaxIdleDays)
}

// reportExportError prints an actionable diagnostic for err and picks the exit code.
func reportExportError(out io.Writer, cfg config.Config, err error) error {
	var stageErr *usecase.StageError
	if !errors.As(err, &stageErr) {
		fmt.Fprintf(out, "Error: %v\n", err)
		return &exitError{code: ExitConfig, err: err}
	}

	switch stageErr.Stage {
	case usecase.StageResolveGroup:
		switch {
		case errors.Is(err, gateway.ErrUnauthorized):
			fmt.Fprintln(out, "Error: Unauthorized (401).")
			fmt.Fprintf(out, "The %s likely expired or lacks the read_api scope.\n", config.TokenEnvVar)
			fmt.Fprintf(out, "Details: %v\n", stageErr.Err)
		case errors.Is(err, gateway.ErrNotFound):
			fmt.Fprintln(out, "Error: Group path not found (404).")
			fmt.Fprintf(out, "Check group path '%s' and ensure the token can access it.\n", cfg.GroupPath)
			fmt.Fprintf(out, "Details: %v\n", stageErr.Err)
		default:
			fmt.Fprintf(out, "Unexpected error when fetching group info: %v\n", stageErr.Err)
		}
		return &exitError{code: ExitResolveGroup, err: err}
	case usecase.StageListProjects:
		fmt.Fprintf(out, "Error: failed to list projects: %v\n", stageErr.Err)
		return &exitError{code: ExitListProjects, err: err}
	default:
		fmt.Fprintf(out, "Error: failed to write report: %v\n", stageErr.Err)
		return &exitError{code: ExitWriteReport, err: err}
	}
}
