// Package report renders project inventories as CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/naka-gawa/gitlab-inventory/internal/domain"
)

// Columns is the fixed header of the report, in output order.
var Columns = []string{
	"name",
	"path_with_namespace",
	"archived",
	"last_activity_at",
	"web_url",
	"empty_repo",
	"visibility",
}

// Record maps a project onto the report columns. Unset fields become empty cells.
func Record(p domain.Project) []string {
	return []string{
		domain.StringOrEmpty(p.Name),
		domain.StringOrEmpty(p.PathWithNamespace),
		formatBool(p.Archived),
		domain.StringOrEmpty(p.LastActivityAt),
		domain.StringOrEmpty(p.WebURL),
		formatBool(p.EmptyRepo),
		domain.StringOrEmpty(p.Visibility),
	}
}

func formatBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

// Write writes the header and one row per project, in order, to w.
func Write(w io.Writer, projects []domain.Project) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, p := range projects {
		if err := cw.Write(Record(p)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	return nil
}

// WriteFile creates or truncates path and writes the report to it.
func WriteFile(path string, projects []domain.Project) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close report file: %w", closeErr)
		}
	}()

	return Write(f, projects)
}
