package model

// Filter holds criteria for querying the feed. A zero BrandID means the
// cross-tenant view used by super-admin contexts.
type Filter struct {
	BrandID    string   `json:"brand_id,omitempty"`
	Workflow   Workflow `json:"workflow,omitempty"`
	Severity   Severity `json:"severity,omitempty"`
	UnreadOnly bool     `json:"unread_only,omitempty"`
}

// Matches reports whether the event satisfies the filter. Used both for
// query predicates and for deciding whether a realtime-pushed event belongs
// in the active view's buffer.
func (f Filter) Matches(e *FeedEvent) bool {
	if f.BrandID != "" && e.BrandID != f.BrandID {
		return false
	}
	if f.Workflow != "" && e.Workflow != f.Workflow {
		return false
	}
	if f.Severity != "" && e.Severity != f.Severity {
		return false
	}
	if f.UnreadOnly && e.Read {
		return false
	}
	return true
}
