package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestSummarize(t *testing.T) {
	now := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		projects []Project
		expected InventorySummary
	}{
		{
			name:     "empty list",
			projects: nil,
			expected: InventorySummary{ByVisibility: map[string]int{}},
		},
		{
			name: "counts flags and visibility, computes idle days",
			projects: []Project{
				{Archived: boolPtr(true), Visibility: strPtr("private"), LastActivityAt: strPtr("2024-03-30T00:00:00.000Z")},
				{EmptyRepo: boolPtr(true), Visibility: strPtr("public"), LastActivityAt: strPtr("2024-03-21T00:00:00Z")},
				{Archived: boolPtr(false), EmptyRepo: boolPtr(false), Visibility: strPtr("private"), LastActivityAt: strPtr("2024-03-01T00:00:00Z")},
			},
			expected: InventorySummary{
				Total:          3,
				Archived:       1,
				Empty:          1,
				ByVisibility:   map[string]int{"private": 2, "public": 1},
				MedianIdleDays: 10,
				MaxIdleDays:    30,
			},
		},
		{
			name: "unparseable and missing timestamps are skipped",
			projects: []Project{
				{LastActivityAt: strPtr("yesterday")},
				{},
				{LastActivityAt: strPtr("2024-03-29T00:00:00Z")},
			},
			expected: InventorySummary{
				Total:          3,
				ByVisibility:   map[string]int{},
				MedianIdleDays: 2,
				MaxIdleDays:    2,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Summarize(tc.projects, now))
		})
	}
}

func TestStringOrEmpty(t *testing.T) {
	assert.Equal(t, "", StringOrEmpty(nil))
	assert.Equal(t, "x", StringOrEmpty(strPtr("x")))
}
