package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/golddust/internal/database"
	"github.com/nao1215/golddust/internal/dispatcher"
	"github.com/nao1215/golddust/internal/model"
)

// MarkdownWriter renders reports as GitHub-flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter returns a MarkdownWriter writing to output.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// WriteStatus implements Writer.
func (w *MarkdownWriter) WriteStatus(report *StatusReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Gold Dust Backend Status")
	md.PlainText("")
	if !report.GeneratedAt.IsZero() {
		md.PlainTextf("Generated: %s", report.GeneratedAt.Format(timeLayout))
		md.PlainText("")
	}

	rows := make([][]string, 0, len(report.Backends))
	for _, b := range report.Backends {
		rows = append(rows, healthRow(b))
	}
	md.Table(markdown.TableSet{
		Header: []string{"Backend", "Kind", "Latency (ms)", "Failure Rate", "Enabled"},
		Rows:   rows,
	})
	md.PlainText("")

	md.H2("Egress")
	md.PlainText("")
	egressRows := [][]string{{"Mode", report.Egress.String()}}
	if report.FlagFile != "" {
		egressRows = append(egressRows, []string{"Flag File", "`" + report.FlagFile + "`"})
	}
	if report.Tor != nil {
		egressRows = append(egressRows, []string{"Tor Relay", "`" + report.Tor.Proxy + "` " + report.Tor.Status})
	}
	md.Table(markdown.TableSet{Header: []string{"Property", "Value"}, Rows: egressRows})
	md.PlainText("")

	md.H2("Advisory Route")
	md.PlainText("")
	w.writeChoiceAlert(md, report.Choice)

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// WriteRoute implements Writer.
func (w *MarkdownWriter) WriteRoute(report *RouteReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Gold Dust Route Decision")
	md.PlainText("")

	rows := [][]string{{"Target", "`" + report.Target + "`"}}
	if c := report.Choice; c.Found() {
		rows = append(rows,
			[]string{"Backend", c.Backend.Name},
			[]string{"Kind", c.Backend.Kind.String()},
			[]string{"Latency", formatLatency(c.Health.LatencyMS) + " ms"},
			[]string{"Failure Rate", formatRate(c.Health.FailureRate)},
		)
	}
	if !report.GeneratedAt.IsZero() {
		rows = append(rows, []string{"Time", report.GeneratedAt.Format(timeLayout)})
	}
	md.Table(markdown.TableSet{Header: []string{"Property", "Value"}, Rows: rows})
	md.PlainText("")
	w.writeChoiceAlert(md, report.Choice)

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// WriteHistory implements Writer.
func (w *MarkdownWriter) WriteHistory(report *HistoryReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Gold Dust History")
	md.PlainText("")

	if report.Decisions != nil {
		w.writeDecisions(md, report.Decisions)
	}
	if report.Events != nil {
		w.writeEvents(md, report.Events, report.Totals)
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeDecisions(md *markdown.Markdown, decisions []database.Decision) {
	md.H2("Route Decisions")
	md.PlainText("")
	if len(decisions) == 0 {
		md.Note("No route decisions recorded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(decisions))
	for _, d := range decisions {
		backend := "-"
		if d.Choice.Found() {
			backend = d.Choice.Backend.Name
		}
		rows = append(rows, []string{d.Time.Format(timeLayout), "`" + d.Target + "`", backend})
	}
	md.Table(markdown.TableSet{Header: []string{"Time", "Target", "Backend"}, Rows: rows})
	md.PlainText("")
}

func (w *MarkdownWriter) writeEvents(md *markdown.Markdown, events []database.ConnectionEvent, totals map[dispatcher.Outcome]int) {
	md.H2("Dispatcher Connections")
	md.PlainText("")
	if len(events) == 0 {
		md.Note("No dispatcher connections recorded.")
		md.PlainText("")
		return
	}

	w.writeOutcomeChart(md, events, totals)

	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		egress := ev.Egress
		if egress == "" {
			egress = "-"
		}
		rows = append(rows, []string{
			ev.Time.Format(timeLayout), ev.Peer, "`" + ev.Target + "`", egress, string(ev.Outcome),
		})
	}
	md.Table(markdown.TableSet{Header: []string{"Time", "Peer", "Target", "Egress", "Outcome"}, Rows: rows})
	md.PlainText("")
}

// writeOutcomeChart draws a mermaid pie chart of connection outcomes.
// totals, when set, covers the whole history; otherwise only events are counted.
func (w *MarkdownWriter) writeOutcomeChart(md *markdown.Markdown, events []database.ConnectionEvent, totals map[dispatcher.Outcome]int) {
	counts := make(map[dispatcher.Outcome]uint64)
	title := "Connection Outcomes"
	if totals != nil {
		title = "Connection Outcomes (all recorded)"
		for outcome, n := range totals {
			counts[outcome] = uint64(max(n, 0))
		}
	} else {
		for _, ev := range events {
			counts[ev.Outcome]++
		}
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle(title),
		piechart.WithShowData(true),
	)
	for _, outcome := range []dispatcher.Outcome{
		dispatcher.OutcomeRelayed,
		dispatcher.OutcomeUpstreamFailed,
		dispatcher.OutcomeMethodNotAllowed,
		dispatcher.OutcomeRejected,
	} {
		if counts[outcome] > 0 {
			chart.LabelAndIntValue(string(outcome), counts[outcome])
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeChoiceAlert(md *markdown.Markdown, choice model.BackendChoice) {
	switch {
	case !choice.Found():
		md.Cautionf("%s", choice.Message)
	case choice.Backend.Kind == model.KindTor:
		md.Warningf("Using %s: no Oxen backend is under the failure-rate ceiling.", choice.Backend.Name)
	default:
		md.Tip("Using " + choice.Backend.Name + ".")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by golddust*")
}

func healthRow(h model.BackendHealth) []string {
	return []string{
		h.Name,
		h.Kind.String(),
		formatLatency(h.LatencyMS),
		formatRate(h.FailureRate),
		strconv.FormatBool(h.Enabled),
	}
}

func formatLatency(ms float64) string {
	return strconv.FormatFloat(ms, 'f', 1, 64)
}

func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', 3, 64)
}
