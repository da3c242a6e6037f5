// Package metrics provides the Prometheus collectors of the listing guard service.
package metrics

// Outcome labels shared by the collectors.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusStale   = "stale"
	StatusSkipped = "skipped"
)

// Lifecycle outcome labels.
const (
	OutcomeValidation = "validation"
	OutcomeConflict   = "conflict"
	OutcomeForbidden  = "forbidden"
)

// Catalog operation labels.
const (
	OpListProjects     = "list_projects"
	OpGetProjectDetail = "get_project_detail"
)

// Cache names used as the "cache" label.
const (
	CacheProjectDetail = "project_detail"
	CacheMarkers       = "markers"
)
