package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPayloadRoundTripKnownKind(t *testing.T) {
	p := &Payload{
		Kind:        PayloadCitationGap,
		CitationGap: &CitationGapData{Query: "best crm for startups", CitedDomains: []string{"rival.com"}},
	}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"kind":"citation_gap"`) {
		t.Fatalf("missing discriminator: %s", data)
	}

	var got Payload
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Kind != PayloadCitationGap || got.CitationGap == nil {
		t.Fatalf("wrong variant decoded: %+v", got)
	}
	if got.CitationGap.Query != "best crm for startups" {
		t.Errorf("query = %q", got.CitationGap.Query)
	}
	if got.PromptJourney != nil || got.ScanSummary != nil {
		t.Error("unrelated variants populated")
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestPayloadUnknownKindPreservedRaw(t *testing.T) {
	in := []byte(`{"kind":"sentiment_shift","sentiment_shift":{"delta":-0.4}}`)
	var p Payload
	if err := json.Unmarshal(in, &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Kind != "sentiment_shift" {
		t.Errorf("kind = %q", p.Kind)
	}
	if p.Raw == nil {
		t.Fatal("unknown kind not preserved in Raw")
	}
	if err := p.Validate(); err != nil {
		t.Errorf("unknown kind should validate: %v", err)
	}

	// Re-marshaling must emit the original object unchanged.
	out, err := json.Marshal(&p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != string(in) {
		t.Errorf("round trip changed raw payload: %s", out)
	}
}

func TestPayloadValidate(t *testing.T) {
	if err := (&Payload{Kind: PayloadScanSummary, ScanSummary: &ScanSummaryData{ScanID: "sc-1"}}).Validate(); err != nil {
		t.Errorf("valid payload rejected: %v", err)
	}
	if err := (&Payload{Kind: PayloadScanSummary}).Validate(); err == nil {
		t.Error("payload with no variant accepted")
	}
	if err := (&Payload{
		Kind:        PayloadScanSummary,
		ScanSummary: &ScanSummaryData{},
		Opportunity: &OpportunityData{},
	}).Validate(); err == nil {
		t.Error("payload with two variants accepted")
	}
	if err := (&Payload{Kind: PayloadOpportunity, ScanSummary: &ScanSummaryData{}}).Validate(); err == nil {
		t.Error("mismatched discriminator accepted")
	}
	if err := (&Payload{}).Validate(); err == nil {
		t.Error("empty kind accepted")
	}
}

func TestFeedEventJSONOmitsEmptyResolution(t *testing.T) {
	e := &FeedEvent{ID: "ev-1", BrandID: "br-1", Workflow: WorkflowSystem, Severity: SeverityInfo, Title: "scan finished"}
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{"action_taken", "action_taken_at", "data"} {
		if strings.Contains(string(data), `"`+field+`"`) {
			t.Errorf("unresolved event serialized %s: %s", field, data)
		}
	}
}
