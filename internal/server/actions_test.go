package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sightlinehq/sightline/internal/client"
	"github.com/sightlinehq/sightline/internal/model"
)

// brokeLedger rejects every reservation.
type brokeLedger struct{}

func (brokeLedger) Reserve(context.Context, string, int) error {
	return ErrInsufficientCredits
}

func seedActionable(t *testing.T, fs *fakeStore, id string) {
	t.Helper()
	seedEvent(t, fs, &model.FeedEvent{
		ID:                id,
		BrandID:           "br-1",
		Workflow:          model.WorkflowCoreDiscovery,
		Severity:          model.SeverityActionRequired,
		Title:             "citation gap",
		ActionAvailable:   []model.Action{model.ActionGenerateMemo, model.ActionDismiss},
		ActionCostCredits: 5,
		CreatedAt:         time.Now().UTC(),
	})
}

func TestPerformActionGenerateMemo(t *testing.T) {
	_, fs, pub, ts := newTestServer(t)
	seedActionable(t, fs, "ev-1")

	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/feed/ev-1/actions",
		map[string]string{"action": "generate_memo"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var result client.ActionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(result.MemoID, "mm-") {
		t.Errorf("MemoID = %q, want mm- prefix", result.MemoID)
	}
	if result.Event.ActionTaken != model.ActionGenerateMemo {
		t.Errorf("ActionTaken = %q", result.Event.ActionTaken)
	}
	if !result.Event.Read {
		t.Error("resolved event not marked read")
	}
	if result.Event.RelatedMemoID != result.MemoID {
		t.Errorf("RelatedMemoID = %q, MemoID = %q", result.Event.RelatedMemoID, result.MemoID)
	}

	// Resolution goes out as an update so other views converge.
	published := pub.all()
	if len(published) != 1 || published[0].Envelope.Event != "updated" {
		t.Errorf("published = %+v, want one updated envelope", published)
	}
}

func TestPerformActionAlreadyResolved(t *testing.T) {
	_, fs, _, ts := newTestServer(t)
	seedActionable(t, fs, "ev-1")

	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/feed/ev-1/actions",
		map[string]string{"action": "dismiss"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first action: status = %d", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodPost, ts.URL+"/v1/feed/ev-1/actions",
		map[string]string{"action": "generate_memo"})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second action: status = %d, want 409", resp.StatusCode)
	}
}

func TestPerformActionNotOffered(t *testing.T) {
	_, fs, pub, ts := newTestServer(t)
	seedEvent(t, fs, &model.FeedEvent{
		ID: "ev-1", BrandID: "br-1", Workflow: model.WorkflowSystem,
		Severity: model.SeverityInfo, Title: "scan done",
		ActionAvailable: []model.Action{model.ActionDismiss},
		CreatedAt:       time.Now().UTC(),
	})

	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/feed/ev-1/actions",
		map[string]string{"action": "generate_memo"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if got := pub.all(); len(got) != 0 {
		t.Errorf("rejected action still published %d envelopes", len(got))
	}
}

func TestPerformActionUnknownAndMissing(t *testing.T) {
	_, fs, _, ts := newTestServer(t)
	seedActionable(t, fs, "ev-1")

	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/feed/ev-1/actions",
		map[string]string{"action": "explode"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown action: status = %d, want 400", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodPost, ts.URL+"/v1/feed/ev-nope/actions",
		map[string]string{"action": "dismiss"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing event: status = %d, want 404", resp.StatusCode)
	}
}

func TestPerformActionInsufficientCredits(t *testing.T) {
	srv, fs, _, ts := newTestServer(t)
	srv.SetCreditLedger(brokeLedger{})
	seedActionable(t, fs, "ev-1")

	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/feed/ev-1/actions",
		map[string]string{"action": "generate_memo"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}

	// Rejection leaves the event unresolved.
	e, err := fs.GetEvent(context.Background(), "ev-1")
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if e.Resolved() {
		t.Error("event resolved despite credit rejection")
	}
}

func TestCustomActionRunner(t *testing.T) {
	srv, fs, _, ts := newTestServer(t)
	srv.RegisterAction(model.ActionGenerateMemo, ActionRunnerFunc(
		func(context.Context, *model.FeedEvent) (string, error) {
			return "", errors.New("generation backend down")
		}))
	seedActionable(t, fs, "ev-1")

	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/feed/ev-1/actions",
		map[string]string{"action": "generate_memo"})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}

	// Failed runner must not resolve the event.
	e, _ := fs.GetEvent(context.Background(), "ev-1")
	if e.Resolved() {
		t.Error("event resolved despite runner failure")
	}
}

func TestViewMemoRequiresRelatedMemo(t *testing.T) {
	_, fs, _, ts := newTestServer(t)
	seedEvent(t, fs, &model.FeedEvent{
		ID: "ev-1", BrandID: "br-1", Workflow: model.WorkflowCoreDiscovery,
		Severity: model.SeverityInfo, Title: "memo ready",
		RelatedMemoID:   "mm-77",
		ActionAvailable: []model.Action{model.ActionViewMemo},
		CreatedAt:       time.Now().UTC(),
	})

	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/feed/ev-1/actions",
		map[string]string{"action": "view_memo"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var result client.ActionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.MemoID != "mm-77" {
		t.Errorf("MemoID = %q, want mm-77", result.MemoID)
	}
}
