package resolve

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/zjrosen/laminar/internal/pubsub"
)

// Diagnostic is a non-fatal condition observed during resolution. The
// only kind today is a dangling reference: an extends target with no
// matching definition in the registry consulted for the lookup.
type Diagnostic struct {
	// RunID correlates diagnostics from one resolution pass.
	RunID uuid.UUID

	// Service is the service whose extends field could not be satisfied.
	Service string

	// Target is the parent service name that was not found.
	Target string

	// File is the referenced file for cross-file lookups, empty for
	// local ones.
	File string
}

func (d Diagnostic) String() string {
	if d.File != "" {
		return fmt.Sprintf("service %q extends %q which is not defined in %s; resolved against an empty parent", d.Service, d.Target, d.File)
	}
	return fmt.Sprintf("service %q extends %q which is not defined yet; resolved against an empty parent", d.Service, d.Target)
}

// Reporter collects diagnostics during a resolution pass and
// republishes them on a broker for embedders that want live warnings.
// Dangling references never abort a resolution, so the reporter is the
// only place they surface.
type Reporter struct {
	runID  uuid.UUID
	mu     sync.Mutex
	diags  []Diagnostic
	broker *pubsub.Broker[Diagnostic]
}

// NewReporter creates a reporter with a fresh run ID.
func NewReporter() *Reporter {
	return &Reporter{
		runID:  uuid.New(),
		broker: pubsub.NewBroker[Diagnostic](),
	}
}

// RunID returns the identifier stamped on every diagnostic.
func (r *Reporter) RunID() uuid.UUID {
	return r.runID
}

// DanglingReference records an extends target that was not found.
func (r *Reporter) DanglingReference(service, target, file string) {
	d := Diagnostic{RunID: r.runID, Service: service, Target: target, File: file}

	r.mu.Lock()
	r.diags = append(r.diags, d)
	r.mu.Unlock()

	r.broker.Publish(pubsub.DiagnosticEvent, d)
}

// Diagnostics returns a copy of everything recorded so far.
func (r *Reporter) Diagnostics() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Diagnostic, len(r.diags))
	copy(out, r.diags)
	return out
}

// Subscribe returns a channel of diagnostics as they are recorded.
// The channel closes when ctx is cancelled or the reporter is closed.
func (r *Reporter) Subscribe(ctx context.Context) <-chan pubsub.Event[Diagnostic] {
	return r.broker.Subscribe(ctx)
}

// Close shuts down the broker. Recorded diagnostics stay readable.
func (r *Reporter) Close() {
	r.broker.Close()
}
