package report

import (
	"io"
	"time"

	"github.com/nao1215/golddust/internal/database"
	"github.com/nao1215/golddust/internal/dispatcher"
	"github.com/nao1215/golddust/internal/model"
)

// Writer renders reports in one output format.
type Writer interface {
	WriteStatus(report *StatusReport) (int, error)
	WriteRoute(report *RouteReport) (int, error)
	WriteHistory(report *HistoryReport) (int, error)
}

// StatusReport is the output of `golddust status`.
type StatusReport struct {
	GeneratedAt time.Time
	Egress      model.EgressMode
	FlagFile    string
	Backends    []model.BackendHealth
	Choice      model.BackendChoice

	// Tor is set when the Tor relay was probed.
	Tor *TorProbe
}

// TorProbe is the result of a SOCKS5 handshake against the Tor relay.
type TorProbe struct {
	Proxy  string
	Status string
	OK     bool
}

// RouteReport is the output of `golddust route`.
type RouteReport struct {
	GeneratedAt time.Time
	Target      string
	Choice      model.BackendChoice
}

// HistoryReport is the output of `golddust history`.
type HistoryReport struct {
	Decisions []database.Decision
	Events    []database.ConnectionEvent

	// Totals counts every recorded event by outcome, not only those in
	// Events. Nil when not queried.
	Totals map[dispatcher.Outcome]int
}

// baseWriter holds the output shared by all formats.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// decisionText summarises a choice in one line.
func decisionText(choice model.BackendChoice) string {
	if !choice.Found() {
		return choice.Message
	}
	return "use " + choice.Backend.Name + " (Oxen-first, Tor-fallback policy)"
}

const timeLayout = "2006-01-02 15:04:05 MST"
