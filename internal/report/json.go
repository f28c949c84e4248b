package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/golddust/internal/model"
)

// JSONWriter renders reports as JSON documents.
type JSONWriter struct {
	baseWriter

	indent bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint indents the output by two spaces.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
	}
}

// NewJSONWriter returns a JSONWriter writing to output.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ChoiceJSON is the JSON form of a model.BackendChoice.
type ChoiceJSON struct {
	Found   bool                   `json:"found"`
	Backend *model.BackendIdentity `json:"backend,omitempty"`
	Health  *model.BackendHealth   `json:"health,omitempty"`
	Message string                 `json:"message,omitempty"`
}

// NewChoiceJSON converts choice.
func NewChoiceJSON(choice model.BackendChoice) ChoiceJSON {
	if !choice.Found() {
		return ChoiceJSON{Message: choice.Message}
	}
	backend, health := choice.Backend, choice.Health
	return ChoiceJSON{Found: true, Backend: &backend, Health: &health}
}

// StatusJSON is the JSON form of a StatusReport.
type StatusJSON struct {
	GeneratedAt time.Time             `json:"generated_at"`
	Egress      string                `json:"egress"`
	TorEnabled  bool                  `json:"tor_enabled"`
	FlagFile    string                `json:"flag_file,omitempty"`
	Backends    []model.BackendHealth `json:"backends"`
	Choice      ChoiceJSON            `json:"choice"`
	Tor         *TorProbeJSON         `json:"tor,omitempty"`
}

// TorProbeJSON is the JSON form of a TorProbe.
type TorProbeJSON struct {
	Proxy  string `json:"proxy"`
	Status string `json:"status"`
	OK     bool   `json:"ok"`
}

// NewStatusJSON converts report.
func NewStatusJSON(report *StatusReport) StatusJSON {
	backends := report.Backends
	if backends == nil {
		backends = []model.BackendHealth{}
	}
	out := StatusJSON{
		GeneratedAt: report.GeneratedAt,
		Egress:      report.Egress.String(),
		TorEnabled:  report.Egress == model.EgressTor,
		FlagFile:    report.FlagFile,
		Backends:    backends,
		Choice:      NewChoiceJSON(report.Choice),
	}
	if report.Tor != nil {
		out.Tor = &TorProbeJSON{Proxy: report.Tor.Proxy, Status: report.Tor.Status, OK: report.Tor.OK}
	}
	return out
}

type routeJSON struct {
	GeneratedAt time.Time  `json:"generated_at"`
	Target      string     `json:"target"`
	Choice      ChoiceJSON `json:"choice"`
}

type decisionJSON struct {
	ID     int64      `json:"id"`
	Time   time.Time  `json:"time"`
	Target string     `json:"target"`
	Choice ChoiceJSON `json:"choice"`
}

type eventJSON struct {
	ID       int64     `json:"id"`
	Time     time.Time `json:"time"`
	Peer     string    `json:"peer"`
	Method   string    `json:"method,omitempty"`
	Target   string    `json:"target,omitempty"`
	Egress   string    `json:"egress,omitempty"`
	Outcome  string    `json:"outcome"`
	Advisory string    `json:"advisory,omitempty"`
	Error    string    `json:"error,omitempty"`
}

type historyJSON struct {
	Decisions []decisionJSON `json:"decisions,omitempty"`
	Events    []eventJSON    `json:"events,omitempty"`
	Totals    map[string]int `json:"totals,omitempty"`
}

// WriteStatus implements Writer.
func (w *JSONWriter) WriteStatus(report *StatusReport) (int, error) {
	return w.writeJSON(NewStatusJSON(report))
}

// WriteRoute implements Writer.
func (w *JSONWriter) WriteRoute(report *RouteReport) (int, error) {
	return w.writeJSON(routeJSON{
		GeneratedAt: report.GeneratedAt,
		Target:      report.Target,
		Choice:      NewChoiceJSON(report.Choice),
	})
}

// WriteHistory implements Writer.
func (w *JSONWriter) WriteHistory(report *HistoryReport) (int, error) {
	var out historyJSON
	for _, d := range report.Decisions {
		out.Decisions = append(out.Decisions, decisionJSON{
			ID: d.ID, Time: d.Time, Target: d.Target, Choice: NewChoiceJSON(d.Choice),
		})
	}
	for _, ev := range report.Events {
		out.Events = append(out.Events, eventJSON{
			ID: ev.ID, Time: ev.Time, Peer: ev.Peer, Method: ev.Method, Target: ev.Target,
			Egress: ev.Egress, Outcome: string(ev.Outcome), Advisory: ev.Advisory, Error: ev.Error,
		})
	}
	if report.Totals != nil {
		out.Totals = make(map[string]int, len(report.Totals))
		for outcome, n := range report.Totals {
			out.Totals[string(outcome)] = n
		}
	}
	return w.writeJSON(out)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}
