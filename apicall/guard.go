package apicall

import "context"

// Guard blocks mutating operations while safe mode is active
type Guard struct {
	settings   Settings
	dispatcher *Dispatcher
}

// NewGuard creates a Guard for the given dispatcher
func NewGuard(settings Settings, dispatcher *Dispatcher) *Guard {
	return &Guard{settings: settings, dispatcher: dispatcher}
}

// Do runs op. When mutating is set and safe mode is active, op runs with the
// dispatcher in dry run so diagnostics are still recorded, the previous
// dry-run state is restored, and a *SafeModeError is returned with an empty
// Outcome. No request is sent in that case.
func (g *Guard) Do(ctx context.Context, mutating bool, op func(context.Context) (Outcome, error)) (Outcome, error) {
	if !mutating || !g.settings.SafeMode() {
		return op(ctx)
	}

	g.simulate(ctx, op)
	return Outcome{}, &SafeModeError{Dump: g.settings.RedactedDump(true)}
}

func (g *Guard) simulate(ctx context.Context, op func(context.Context) (Outcome, error)) {
	prior := g.dispatcher.DryRun()
	g.dispatcher.SetDryRun(true)
	defer g.dispatcher.SetDryRun(prior)

	// the outcome is always a dry run here
	_, _ = op(ctx)
}
