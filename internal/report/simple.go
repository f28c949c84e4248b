package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/golddust/internal/dispatcher"
)

// SimpleWriter renders aligned plain text.
type SimpleWriter struct {
	baseWriter

	// verbose adds timestamps and the failure-rate ceiling.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose adds detail to the output.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter returns a SimpleWriter writing to output.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteStatus implements Writer.
func (w *SimpleWriter) WriteStatus(report *StatusReport) (int, error) {
	var sb strings.Builder

	sb.WriteString("=== Gold Dust VPN backend status ===\n")
	if w.verbose && !report.GeneratedAt.IsZero() {
		fmt.Fprintf(&sb, "Generated: %s\n", report.GeneratedAt.Format(timeLayout))
	}
	if len(report.Backends) == 0 {
		sb.WriteString("(no backends enabled)\n")
	}
	for _, b := range report.Backends {
		fmt.Fprintf(&sb, "- %-12s [%s]  latency=%6.1f ms  failure_rate=%.3f  enabled=%t\n",
			b.Name, b.Kind, b.LatencyMS, b.FailureRate, b.Enabled)
	}

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Egress:   %s", report.Egress)
	if report.FlagFile != "" {
		fmt.Fprintf(&sb, " (flag file %s)", report.FlagFile)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Advisory: %s\n", decisionText(report.Choice))

	if report.Tor != nil {
		fmt.Fprintf(&sb, "Tor:      %s via %s\n", report.Tor.Status, report.Tor.Proxy)
	}

	return io.WriteString(w.output, sb.String())
}

// WriteRoute implements Writer.
func (w *SimpleWriter) WriteRoute(report *RouteReport) (int, error) {
	var sb strings.Builder

	sb.WriteString("=== Gold Dust VPN route decision ===\n")
	fmt.Fprintf(&sb, "Target:   %s\n", report.Target)
	if c := report.Choice; c.Found() {
		fmt.Fprintf(&sb, "Backend:  %s [%s]\n", c.Backend.Name, c.Backend.Kind)
		fmt.Fprintf(&sb, "Latency:  %.1f ms\n", c.Health.LatencyMS)
		fmt.Fprintf(&sb, "Failure:  %.3f\n", c.Health.FailureRate)
	}
	fmt.Fprintf(&sb, "Decision: %s\n", decisionText(report.Choice))
	if w.verbose && !report.GeneratedAt.IsZero() {
		fmt.Fprintf(&sb, "Time:     %s\n", report.GeneratedAt.Format(timeLayout))
	}

	return io.WriteString(w.output, sb.String())
}

// WriteHistory implements Writer.
func (w *SimpleWriter) WriteHistory(report *HistoryReport) (int, error) {
	var sb strings.Builder

	if report.Decisions != nil {
		sb.WriteString("=== Route decisions ===\n")
		if len(report.Decisions) == 0 {
			sb.WriteString("(none)\n")
		}
		for _, d := range report.Decisions {
			fmt.Fprintf(&sb, "%s  %-24s  %s\n", d.Time.Local().Format(timeLayout), d.Target, decisionText(d.Choice))
		}
	}

	if report.Events != nil {
		if report.Decisions != nil {
			sb.WriteString("\n")
		}
		sb.WriteString("=== Dispatcher connections ===\n")
		if len(report.Events) == 0 {
			sb.WriteString("(none)\n")
		}
		for _, ev := range report.Events {
			egress := ev.Egress
			if egress == "" {
				egress = "-"
			}
			fmt.Fprintf(&sb, "%s  %-21s  %-24s  %-6s  %s",
				ev.Time.Local().Format(timeLayout), ev.Peer, ev.Target, egress, ev.Outcome)
			if ev.Error != "" {
				fmt.Fprintf(&sb, "  (%s)", ev.Error)
			}
			sb.WriteString("\n")
		}
		if report.Totals != nil {
			fmt.Fprintf(&sb, "Totals:   relayed=%d upstream_failed=%d method_not_allowed=%d rejected=%d\n",
				report.Totals[dispatcher.OutcomeRelayed], report.Totals[dispatcher.OutcomeUpstreamFailed],
				report.Totals[dispatcher.OutcomeMethodNotAllowed], report.Totals[dispatcher.OutcomeRejected])
		}
	}

	return io.WriteString(w.output, sb.String())
}
