package dispatcher

import (
	"context"
	"time"

	"github.com/nao1215/golddust/internal/model"
)

// Outcome classifies how a connection ended.
type Outcome string

const (
	// OutcomeRelayed means the tunnel was established and relayed until close.
	OutcomeRelayed Outcome = "relayed"

	// OutcomeRejected means the request could not be read or parsed.
	OutcomeRejected Outcome = "rejected"

	// OutcomeMethodNotAllowed means a non-CONNECT request got a 405.
	OutcomeMethodNotAllowed Outcome = "method_not_allowed"

	// OutcomeUpstreamFailed means the upstream dial failed.
	OutcomeUpstreamFailed Outcome = "upstream_failed"
)

// Event describes one finished connection.
type Event struct {
	Time    time.Time
	Peer    string
	Method  string
	Target  string
	Egress  model.EgressMode
	Outcome Outcome

	// Advisory is the backend the routing policy would have picked, or ""
	// when no Advisor is attached or it found no backend.
	Advisory string

	// Err is the error that ended the connection, if any.
	Err error
}

// EgressDecided reports whether the connection got far enough for Egress
// to be meaningful.
func (e Event) EgressDecided() bool {
	return e.Outcome == OutcomeRelayed || e.Outcome == OutcomeUpstreamFailed
}

// Recorder receives an Event for every finished connection.
// Record is called from the connection's goroutine and must be safe for
// concurrent use. Its error is logged and otherwise ignored.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// Advisor is the routing policy seen from the dispatcher.
type Advisor interface {
	Choose(target string) model.BackendChoice
}
