package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/gitlab-inventory/internal/domain"
)

// mockFetcher is a mock implementation of the gateway.Fetcher interface.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchGroup(ctx context.Context, path string) (*domain.Group, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Group), args.Error(1)
}

func (m *mockFetcher) FetchGroupProjects(ctx context.Context, groupID int64) ([]domain.Project, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Project), args.Error(1)
}

func strPtr(s string) *string { return &s }

func TestExporter_Export(t *testing.T) {
	groupErr := errors.New("group lookup failed")
	listErr := errors.New("listing failed")

	testCases := []struct {
		name          string
		group         *domain.Group
		groupErr      error
		projects      []domain.Project
		projectsErr   error
		expectList    bool
		expectedStage Stage
		expectedErr   error
		expectedRows  int
	}{
		{
			name:         "happy path - writes every project",
			group:        &domain.Group{ID: 10, FullPath: "batchnz/work"},
			projects:     []domain.Project{{Name: strPtr("b")}, {Name: strPtr("a")}},
			expectList:   true,
			expectedRows: 2,
		},
		{
			name:         "empty group writes header only",
			group:        &domain.Group{ID: 10, FullPath: "batchnz/work"},
			projects:     []domain.Project{},
			expectList:   true,
			expectedRows: 0,
		},
		{
			name:          "group resolution failure skips listing",
			groupErr:      groupErr,
			expectedStage: StageResolveGroup,
			expectedErr:   groupErr,
		},
		{
			name:          "listing failure leaves no report",
			group:         &domain.Group{ID: 10, FullPath: "batchnz/work"},
			projectsErr:   listErr,
			expectList:    true,
			expectedStage: StageListProjects,
			expectedErr:   listErr,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			ctx := context.Background()
			logger := logrus.New()
			logger.SetOutput(io.Discard)
			output := filepath.Join(t.TempDir(), "report.csv")

			fetcher := new(mockFetcher)
			fetcher.On("FetchGroup", mock.Anything, "batchnz/work").Return(tc.group, tc.groupErr)
			if tc.expectList {
				fetcher.On("FetchGroupProjects", mock.Anything, int64(10)).Return(tc.projects, tc.projectsErr)
			}

			exporter := NewExporter(fetcher, logger)
			exporter.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

			// --- Act ---
			result, err := exporter.Export(ctx, "batchnz/work", output)

			// --- Assert ---
			if tc.expectedErr != nil {
				assert.Nil(t, result)
				assert.ErrorIs(t, err, tc.expectedErr)
				var stageErr *StageError
				require.ErrorAs(t, err, &stageErr)
				assert.Equal(t, tc.expectedStage, stageErr.Stage)
				assert.NoFileExists(t, output)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expectedRows, result.Count)
				assert.Equal(t, tc.group, result.Group)
				assert.Equal(t, tc.expectedRows, result.Summary.Total)

				f, err := os.Open(output)
				require.NoError(t, err)
				defer f.Close()
				rows, err := csv.NewReader(f).ReadAll()
				require.NoError(t, err)
				assert.Len(t, rows, tc.expectedRows+1)
				for i, p := range tc.projects {
					assert.Equal(t, *p.Name, rows[i+1][0])
				}
			}

			fetcher.AssertExpectations(t)
			if !tc.expectList {
				fetcher.AssertNotCalled(t, "FetchGroupProjects", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestExporter_Export_ReportFailure(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	fetcher := new(mockFetcher)
	fetcher.On("FetchGroup", mock.Anything, "g").Return(&domain.Group{ID: 1}, nil)
	fetcher.On("FetchGroupProjects", mock.Anything, int64(1)).Return([]domain.Project{{}}, nil)

	output := filepath.Join(t.TempDir(), "no-such-dir", "report.csv")
	result, err := NewExporter(fetcher, logger).Export(context.Background(), "g", output)

	assert.Nil(t, result)
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageWriteReport, stageErr.Stage)
	assert.Equal(t, "write report", stageErr.Stage.String())
}
