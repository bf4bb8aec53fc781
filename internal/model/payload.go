package model

import (
	"encoding/json"
	"fmt"
)

// Payload is the discriminated event payload. On the wire it is a JSON
// object with a "kind" discriminator; in memory exactly one variant field
// is non-nil. Unknown kinds are preserved raw so a newer server cannot
// break an older consumer.
type Payload struct {
	Kind string

	PromptJourney     *PromptJourneyData
	CitationGap       *CitationGapData
	Verification      *VerificationData
	CompetitorContent *CompetitorContentData
	ScanSummary       *ScanSummaryData
	Opportunity       *OpportunityData

	// Raw holds the original object for kinds this build does not know.
	Raw json.RawMessage
}

// Payload kind discriminators.
const (
	PayloadPromptJourney     = "prompt_journey"
	PayloadCitationGap       = "citation_gap"
	PayloadVerification      = "verification"
	PayloadCompetitorContent = "competitor_content"
	PayloadScanSummary       = "scan_summary"
	PayloadOpportunity       = "opportunity"
)

// PromptJourneyData describes how a brand surfaced (or failed to surface)
// across the answer journey for one prompt.
type PromptJourneyData struct {
	Prompt       string   `json:"prompt"`
	Engine       string   `json:"engine"`
	Position     int      `json:"position"` // 0 = not mentioned
	CitedDomains []string `json:"cited_domains,omitempty"`
}

// CitationGapData describes a query where competitors are cited and the
// brand is not.
type CitationGapData struct {
	Query        string   `json:"query"`
	CitedDomains []string `json:"cited_domains,omitempty"`
	MissingFrom  []string `json:"missing_from,omitempty"` // engines lacking the brand
}

// VerificationData carries the outcome of a content verification pass.
type VerificationData struct {
	MemoID   string `json:"memo_id"`
	Verified bool   `json:"verified"`
	Engine   string `json:"engine,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// CompetitorContentData describes newly observed competitor content.
type CompetitorContentData struct {
	CompetitorID string `json:"competitor_id"`
	URL          string `json:"url"`
	Topic        string `json:"topic,omitempty"`
}

// ScanSummaryData summarizes one completed scan run.
type ScanSummaryData struct {
	ScanID        string `json:"scan_id"`
	PromptsRun    int    `json:"prompts_run"`
	MentionsFound int    `json:"mentions_found"`
	NewGaps       int    `json:"new_gaps"`
}

// OpportunityData describes an uncontested topic the brand could own.
type OpportunityData struct {
	Topic     string  `json:"topic"`
	Volume    int     `json:"volume,omitempty"`
	Score     float64 `json:"score,omitempty"`
	Suggested string  `json:"suggested,omitempty"` // suggested content angle
}

// payloadEnvelope is the wire shape: discriminator plus the variant inlined.
type payloadEnvelope struct {
	Kind              string                 `json:"kind"`
	PromptJourney     *PromptJourneyData     `json:"prompt_journey,omitempty"`
	CitationGap       *CitationGapData       `json:"citation_gap,omitempty"`
	Verification      *VerificationData      `json:"verification,omitempty"`
	CompetitorContent *CompetitorContentData `json:"competitor_content,omitempty"`
	ScanSummary       *ScanSummaryData       `json:"scan_summary,omitempty"`
	Opportunity       *OpportunityData       `json:"opportunity,omitempty"`
}

// MarshalJSON encodes the populated variant under its kind key.
func (p *Payload) MarshalJSON() ([]byte, error) {
	if p.Raw != nil {
		return p.Raw, nil
	}
	env := payloadEnvelope{
		Kind:              p.Kind,
		PromptJourney:     p.PromptJourney,
		CitationGap:       p.CitationGap,
		Verification:      p.Verification,
		CompetitorContent: p.CompetitorContent,
		ScanSummary:       p.ScanSummary,
		Opportunity:       p.Opportunity,
	}
	return json.Marshal(env)
}

// UnmarshalJSON decodes the variant selected by the kind discriminator.
// Unknown kinds are kept verbatim in Raw rather than rejected.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var env payloadEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decoding payload: %w", err)
	}
	p.Kind = env.Kind
	switch env.Kind {
	case PayloadPromptJourney:
		p.PromptJourney = env.PromptJourney
	case PayloadCitationGap:
		p.CitationGap = env.CitationGap
	case PayloadVerification:
		p.Verification = env.Verification
	case PayloadCompetitorContent:
		p.CompetitorContent = env.CompetitorContent
	case PayloadScanSummary:
		p.ScanSummary = env.ScanSummary
	case PayloadOpportunity:
		p.Opportunity = env.Opportunity
	default:
		p.Raw = append(json.RawMessage(nil), data...)
	}
	return nil
}

// variants returns the populated variant kinds.
func (p *Payload) variants() []string {
	var kinds []string
	if p.PromptJourney != nil {
		kinds = append(kinds, PayloadPromptJourney)
	}
	if p.CitationGap != nil {
		kinds = append(kinds, PayloadCitationGap)
	}
	if p.Verification != nil {
		kinds = append(kinds, PayloadVerification)
	}
	if p.CompetitorContent != nil {
		kinds = append(kinds, PayloadCompetitorContent)
	}
	if p.ScanSummary != nil {
		kinds = append(kinds, PayloadScanSummary)
	}
	if p.Opportunity != nil {
		kinds = append(kinds, PayloadOpportunity)
	}
	return kinds
}

// Validate checks that exactly one variant is populated and that it matches
// the discriminator. Unknown kinds pass; they are tolerated downstream.
func (p *Payload) Validate() error {
	if p.Raw != nil {
		return nil
	}
	if p.Kind == "" {
		return fmt.Errorf("payload kind is required")
	}
	kinds := p.variants()
	if len(kinds) != 1 {
		return fmt.Errorf("payload has %d variants populated, want exactly one", len(kinds))
	}
	if kinds[0] != p.Kind {
		return fmt.Errorf("payload kind %q does not match populated variant %q", p.Kind, kinds[0])
	}
	return nil
}
