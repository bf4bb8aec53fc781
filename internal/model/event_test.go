package model

import (
	"testing"
	"time"
)

func TestWorkflowIsValid(t *testing.T) {
	for _, w := range Workflows() {
		if !w.IsValid() {
			t.Errorf("Workflow(%q).IsValid() = false, want true", w)
		}
	}
	if Workflow("prompt_mining").IsValid() {
		t.Error("unknown workflow reported valid")
	}
}

func TestSeverityIsValid(t *testing.T) {
	for _, s := range []Severity{SeverityActionRequired, SeverityWarning, SeveritySuccess, SeverityInfo} {
		if !s.IsValid() {
			t.Errorf("Severity(%q).IsValid() = false, want true", s)
		}
	}
	if Severity("critical").IsValid() {
		t.Error("unknown severity reported valid")
	}
}

func TestWorkflowMetaFallback(t *testing.T) {
	m := Workflow("future_workflow").Meta()
	if m.Label != "future_workflow" {
		t.Errorf("fallback label = %q, want workflow value", m.Label)
	}
	if m.Color == "" || m.Icon == "" {
		t.Error("fallback meta missing color or icon")
	}
	if got := WorkflowVerification.Meta().Label; got != "Verification" {
		t.Errorf("verification label = %q", got)
	}
}

func TestResolvedSuppressesActions(t *testing.T) {
	e := &FeedEvent{
		ActionAvailable: []Action{ActionGenerateMemo, ActionDismiss},
	}
	if !e.Offers(ActionGenerateMemo) {
		t.Fatal("unresolved event should offer generate_memo")
	}

	now := time.Now()
	e.ActionTaken = ActionGenerateMemo
	e.ActionTakenAt = &now

	if e.Actions() != nil {
		t.Error("resolved event must not re-offer actions")
	}
	if e.Offers(ActionDismiss) {
		t.Error("resolved event still offers dismiss")
	}
}

func TestCloneDoesNotAliasActions(t *testing.T) {
	e := &FeedEvent{ID: "ev-1", ActionAvailable: []Action{ActionGenerateMemo}}
	c := e.Clone()
	c.ActionAvailable[0] = ActionDismiss
	if e.ActionAvailable[0] != ActionGenerateMemo {
		t.Error("Clone shares ActionAvailable backing array")
	}
}

func TestFilterMatches(t *testing.T) {
	e := &FeedEvent{
		BrandID:  "br-1",
		Workflow: WorkflowVerification,
		Severity: SeverityWarning,
		Read:     false,
	}

	for _, tc := range []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty matches all", Filter{}, true},
		{"brand match", Filter{BrandID: "br-1"}, true},
		{"brand mismatch", Filter{BrandID: "br-2"}, false},
		{"workflow match", Filter{Workflow: WorkflowVerification}, true},
		{"workflow mismatch", Filter{Workflow: WorkflowCompetitiveResponse}, false},
		{"severity mismatch", Filter{Severity: SeverityInfo}, false},
		{"unread only, unread event", Filter{UnreadOnly: true}, true},
	} {
		if got := tc.filter.Matches(e); got != tc.want {
			t.Errorf("%s: Matches = %v, want %v", tc.name, got, tc.want)
		}
	}

	read := *e
	read.Read = true
	if (Filter{UnreadOnly: true}).Matches(&read) {
		t.Error("unread_only filter matched a read event")
	}
}
