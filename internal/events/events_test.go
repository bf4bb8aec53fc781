package events

import (
	"testing"
)

func TestSubjects(t *testing.T) {
	if got := CreatedSubject("br-abc"); got != "feed.br-abc.created" {
		t.Errorf("CreatedSubject = %q", got)
	}
	if got := UpdatedSubject("br-abc"); got != "feed.br-abc.updated" {
		t.Errorf("UpdatedSubject = %q", got)
	}
	if got := BrandSubject("br-abc"); got != "feed.br-abc.>" {
		t.Errorf("BrandSubject = %q", got)
	}
	if got := BrandSubject(""); got != SubjectAll {
		t.Errorf("BrandSubject(\"\") = %q, want %q", got, SubjectAll)
	}
}
