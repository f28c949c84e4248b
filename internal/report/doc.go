// Package report renders golddust's operator output.
//
// Three formats implement Writer:
//   - SimpleWriter: aligned plain text for the terminal
//   - JSONWriter: structured output for scripts and the dashboard API
//   - MarkdownWriter: tables and alerts for sharing, built with nao1215/markdown
//
// Three documents are rendered: backend status, a route decision and the
// history kept by package database.
package report
