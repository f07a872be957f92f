// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/gitlab-inventory/internal/domain"
	"github.com/naka-gawa/gitlab-inventory/internal/gateway"
	"github.com/naka-gawa/gitlab-inventory/internal/report"
)

// Stage identifies the step of an export that failed.
type Stage int

const (
	StageResolveGroup Stage = iota + 1
	StageListProjects
	StageWriteReport
)

func (s Stage) String() string {
	switch s {
	case StageResolveGroup:
		return "resolve group"
	case StageListProjects:
		return "list projects"
	case StageWriteReport:
		return "write report"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// StageError wraps the first error of an export together with the stage it came from.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// ExportResult describes a completed export.
type ExportResult struct {
	Group    *domain.Group
	Projects []domain.Project
	Count    int
	Summary  domain.InventorySummary
}

// Exporter is the use case for exporting a group's project inventory.
// It runs the stages strictly in sequence and stops at the first error.
type Exporter struct {
	fetcher gateway.Fetcher
	logger  logrus.FieldLogger
	now     func() time.Time
}

// NewExporter creates a new Exporter instance.
func NewExporter(fetcher gateway.Fetcher, logger logrus.FieldLogger) *Exporter {
	return &Exporter{
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
	}
}

// Export resolves groupPath, collects every project under it and writes the report to outputPath.
// The report file is only touched once the full project list has been collected.
func (e *Exporter) Export(ctx context.Context, groupPath, outputPath string) (*ExportResult, error) {
	log := e.logger.WithField("group", groupPath)
	log.Debug("Usecase: Resolving group...")

	group, err := e.fetcher.FetchGroup(ctx, groupPath)
	if err != nil {
		return nil, &StageError{Stage: StageResolveGroup, Err: err}
	}
	log = log.WithField("group_id", group.ID)

	log.Debug("Usecase: Listing projects...")
	projects, err := e.fetcher.FetchGroupProjects(ctx, group.ID)
	if err != nil {
		return nil, &StageError{Stage: StageListProjects, Err: err}
	}

	log.WithField("output", outputPath).Debugf("Usecase: Writing %d projects...", len(projects))
	if err := report.WriteFile(outputPath, projects); err != nil {
		return nil, &StageError{Stage: StageWriteReport, Err: err}
	}

	summary := domain.Summarize(projects, e.now())
	log.WithFields(logrus.Fields{
		"total":            summary.Total,
		"archived":         summary.Archived,
		"empty":            summary.Empty,
		"by_visibility":    summary.ByVisibility,
		"median_idle_days": fmt.Sprintf("%.1f", summary.MedianIdleDays),
		"max_idle_days":    fmt.Sprintf("%.1f", summary.MaxIdleDays),
	}).Info("Usecase: Export complete.")

	return &ExportResult{
		Group:    group,
		Projects: projects,
		Count:    len(projects),
		Summary:  summary,
	}, nil
}
