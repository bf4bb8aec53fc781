package model

import (
	"time"
)

// Workflow identifies which business process produced an event.
type Workflow string

const (
	WorkflowCoreDiscovery       Workflow = "core_discovery"
	WorkflowNetworkExpansion    Workflow = "network_expansion"
	WorkflowCompetitiveResponse Workflow = "competitive_response"
	WorkflowVerification        Workflow = "verification"
	WorkflowGreenspace          Workflow = "greenspace"
	WorkflowSystem              Workflow = "system"
)

// String returns the string representation of the workflow.
func (w Workflow) String() string {
	return string(w)
}

// IsValid checks whether the workflow is a known value.
func (w Workflow) IsValid() bool {
	switch w {
	case WorkflowCoreDiscovery, WorkflowNetworkExpansion, WorkflowCompetitiveResponse,
		WorkflowVerification, WorkflowGreenspace, WorkflowSystem:
		return true
	}
	return false
}

// Workflows lists all known workflows in display order.
func Workflows() []Workflow {
	return []Workflow{
		WorkflowCoreDiscovery,
		WorkflowNetworkExpansion,
		WorkflowCompetitiveResponse,
		WorkflowVerification,
		WorkflowGreenspace,
		WorkflowSystem,
	}
}

// WorkflowMeta holds rendering metadata for a workflow. Pure data; the
// single source of truth shared by the client, the controller, and any
// presentation surface so labels never diverge from filter values.
type WorkflowMeta struct {
	Label string // short display name
	Icon  string // icon class for web surfaces
	Color string // ANSI 256 color used by the terminal renderer
}

var workflowMeta = map[Workflow]WorkflowMeta{
	WorkflowCoreDiscovery:       {Label: "Discovery", Icon: "icon-radar", Color: "74"},
	WorkflowNetworkExpansion:    {Label: "Network", Icon: "icon-graph", Color: "108"},
	WorkflowCompetitiveResponse: {Label: "Competitive", Icon: "icon-swords", Color: "173"},
	WorkflowVerification:        {Label: "Verification", Icon: "icon-check-badge", Color: "114"},
	WorkflowGreenspace:          {Label: "Greenspace", Icon: "icon-sprout", Color: "150"},
	WorkflowSystem:              {Label: "System", Icon: "icon-gear", Color: "245"},
}

// Meta returns rendering metadata for the workflow. Unknown workflows get a
// generic fallback so an out-of-enum value pushed by a newer server renders
// instead of crashing the feed.
func (w Workflow) Meta() WorkflowMeta {
	if m, ok := workflowMeta[w]; ok {
		return m
	}
	return WorkflowMeta{Label: string(w), Icon: "icon-dot", Color: "250"}
}

// Severity classifies urgency, independent of workflow.
type Severity string

const (
	SeverityActionRequired Severity = "action_required"
	SeverityWarning        Severity = "warning"
	SeveritySuccess        Severity = "success"
	SeverityInfo           Severity = "info"
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// IsValid checks whether the severity is a known value.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityActionRequired, SeverityWarning, SeveritySuccess, SeverityInfo:
		return true
	}
	return false
}

// Action is a user-triggerable operation tied to one event.
type Action string

const (
	ActionGenerateMemo  Action = "generate_memo"
	ActionDismiss       Action = "dismiss"
	ActionExcludePrompt Action = "exclude_prompt"
	ActionViewMemo      Action = "view_memo"
)

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// IsValid checks whether the action is a known value.
func (a Action) IsValid() bool {
	switch a {
	case ActionGenerateMemo, ActionDismiss, ActionExcludePrompt, ActionViewMemo:
		return true
	}
	return false
}

// FeedEvent is an immutable record of something that happened in a monitored
// workflow, with client-mutable read/resolution state.
type FeedEvent struct {
	ID          string   `json:"id"`
	BrandID     string   `json:"brand_id"`
	Workflow    Workflow `json:"workflow"`
	Severity    Severity `json:"severity"`
	EventType   string   `json:"event_type"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`

	// Data is the discriminated payload; exactly one variant is populated
	// for a given event_type.
	Data *Payload `json:"data,omitempty"`

	// Weak references for deep-linking; relation and lookup only.
	RelatedMemoID       string `json:"related_memo_id,omitempty"`
	RelatedQueryID      string `json:"related_query_id,omitempty"`
	RelatedCompetitorID string `json:"related_competitor_id,omitempty"`

	Read              bool       `json:"read"`
	ActionAvailable   []Action   `json:"action_available,omitempty"`
	ActionTaken       Action     `json:"action_taken,omitempty"`
	ActionTakenAt     *time.Time `json:"action_taken_at,omitempty"`
	ActionCostCredits int        `json:"action_cost_credits,omitempty"`

	// CreatedAt is the canonical ordering key for pagination and grouping;
	// ties are broken by ID.
	CreatedAt time.Time `json:"created_at"`
}

// Resolved reports whether an action has already been taken on the event.
// A resolved event must not re-offer its available actions.
func (e *FeedEvent) Resolved() bool {
	return e.ActionTaken != ""
}

// Actions returns the actions still offered to the user: the ordered
// available set, or nothing once the event is resolved.
func (e *FeedEvent) Actions() []Action {
	if e.Resolved() {
		return nil
	}
	return e.ActionAvailable
}

// Offers reports whether the given action is currently offered.
func (e *FeedEvent) Offers(a Action) bool {
	for _, av := range e.Actions() {
		if av == a {
			return true
		}
	}
	return false
}

// Clone returns a shallow copy of the event with its own ActionAvailable
// slice, so optimistic local mutation never aliases a list another holder
// still reads.
func (e *FeedEvent) Clone() *FeedEvent {
	c := *e
	if len(e.ActionAvailable) > 0 {
		c.ActionAvailable = append([]Action(nil), e.ActionAvailable...)
	}
	return &c
}
