// Package domain contains the core data structures and domain logic for the application.
package domain

// Group is a GitLab group resolved from its full path.
// Only the numeric ID is needed to list the group's projects.
type Group struct {
	ID       int64  `json:"id"`
	FullPath string `json:"full_path"`
}

// Project holds the subset of GitLab project metadata tracked by the inventory.
// Every field is a pointer so that a field missing from the API response (or sent as null)
// can be told apart from a zero value and rendered as an empty cell.
type Project struct {
	Name              *string `json:"name"`
	PathWithNamespace *string `json:"path_with_namespace"`
	Archived          *bool   `json:"archived"`
	LastActivityAt    *string `json:"last_activity_at"`
	WebURL            *string `json:"web_url"`
	EmptyRepo         *bool   `json:"empty_repo"`
	Visibility        *string `json:"visibility"`
}

// StringOrEmpty dereferences s, returning "" for nil.
func StringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
