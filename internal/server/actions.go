package server

import (
	"context"
	"errors"

	"github.com/sightlinehq/sightline/internal/idgen"
	"github.com/sightlinehq/sightline/internal/model"
)

// ErrInsufficientCredits is returned by a CreditLedger when the brand cannot
// cover an action's cost. Transport layers map this to 422.
var ErrInsufficientCredits = errors.New("insufficient credits")

// CreditLedger is consulted before a costed action runs. Reserve either
// deducts the credits or returns ErrInsufficientCredits.
type CreditLedger interface {
	Reserve(ctx context.Context, brandID string, credits int) error
}

// unlimitedLedger accepts every reservation. Used when no billing backend is
// wired in.
type unlimitedLedger struct{}

func (unlimitedLedger) Reserve(context.Context, string, int) error { return nil }

// ActionRunner performs the side effect behind one feed action. It returns
// the ID of the memo it produced, or "" when the action produces none.
type ActionRunner interface {
	Run(ctx context.Context, event *model.FeedEvent) (memoID string, err error)
}

// ActionRunnerFunc adapts a function to the ActionRunner interface.
type ActionRunnerFunc func(ctx context.Context, event *model.FeedEvent) (string, error)

func (f ActionRunnerFunc) Run(ctx context.Context, event *model.FeedEvent) (string, error) {
	return f(ctx, event)
}

// ActionRegistry maps actions to their runners.
type ActionRegistry struct {
	runners map[model.Action]ActionRunner
}

// Register installs or replaces the runner for an action.
func (r *ActionRegistry) Register(action model.Action, runner ActionRunner) {
	r.runners[action] = runner
}

func (r *ActionRegistry) runner(action model.Action) (ActionRunner, bool) {
	runner, ok := r.runners[action]
	return runner, ok
}

// RegisterAction installs a custom runner on the server's registry, e.g. one
// that calls a real content-generation backend.
func (s *FeedServer) RegisterAction(action model.Action, runner ActionRunner) {
	s.actions.Register(action, runner)
}

// defaultActionRegistry wires the built-in runners. generate_memo mints a memo
// ID and hands it back for deep-linking; the remaining actions resolve the
// event without producing anything.
func defaultActionRegistry() *ActionRegistry {
	r := &ActionRegistry{runners: make(map[model.Action]ActionRunner)}
	r.Register(model.ActionGenerateMemo, ActionRunnerFunc(runGenerateMemo))
	r.Register(model.ActionDismiss, ActionRunnerFunc(runNoop))
	r.Register(model.ActionExcludePrompt, ActionRunnerFunc(runNoop))
	r.Register(model.ActionViewMemo, ActionRunnerFunc(runViewMemo))
	return r
}

func runGenerateMemo(_ context.Context, _ *model.FeedEvent) (string, error) {
	return idgen.NewMemoID()
}

func runNoop(context.Context, *model.FeedEvent) (string, error) {
	return "", nil
}

// runViewMemo surfaces the memo the event already links to.
func runViewMemo(_ context.Context, event *model.FeedEvent) (string, error) {
	if event.RelatedMemoID == "" {
		return "", errors.New("event has no related memo")
	}
	return event.RelatedMemoID, nil
}
