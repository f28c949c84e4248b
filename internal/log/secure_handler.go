package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// Output formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// MaskValue replaces sensitive values.
const MaskValue = "***REDACTED***"

// sensitiveKeys are attribute keys whose values are always masked.
var sensitiveKeys = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"proxy_authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"password":            true,
	"passwd":              true,
	"secret":              true,
	"token":               true,
	"api_key":             true,
	"credential":          true,
	"credentials":         true,
	"control_password":    true,
	"cookie_auth":         true,
}

// sensitiveKeywords mask any key containing them.
var sensitiveKeywords = []string{"password", "passwd", "secret", "token", "credential"}

// sensitivePatterns mask a whole string value.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
	// Tor control port HashedControlPassword values.
	regexp.MustCompile(`^16:[0-9A-F]{58}$`),
}

// userinfoPattern matches scheme://user:password@ in URLs.
// Group 1 keeps scheme and user, group 2 is the password.
var userinfoPattern = regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9+.-]*://[^:/@\s]*):([^@/\s]*)@`)

// SecureHandler masks credentials in records before passing them on.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler wraps handler. A nil handler falls back to slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled implements slog.Handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle implements slog.Handler. The message itself is also scrubbed of URL
// passwords since callers sometimes format addresses into it.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, redactUserinfo(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs implements slog.Handler.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitized[i] = sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitized)}
}

// WithGroup implements slog.Handler.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

func sanitizeAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitized := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			sanitized[i] = sanitizeAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitized...)}
	}

	if isSensitiveKey(strings.ToLower(a.Key)) {
		return slog.String(a.Key, MaskValue)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if isSensitiveValue(s) {
			return slog.String(a.Key, MaskValue)
		}
		if redacted := redactUserinfo(s); redacted != s {
			return slog.String(a.Key, redacted)
		}
	case slog.KindAny:
		// Dial errors quote the proxy URL they failed on.
		if err, ok := a.Value.Any().(error); ok {
			msg := err.Error()
			if redacted := redactUserinfo(msg); redacted != msg {
				return slog.String(a.Key, redacted)
			}
		}
	}
	return a
}

func isSensitiveKey(key string) bool {
	if sensitiveKeys[key] {
		return true
	}
	for _, kw := range sensitiveKeywords {
		if strings.Contains(key, kw) {
			return true
		}
	}
	return false
}

func isSensitiveValue(value string) bool {
	for _, p := range sensitivePatterns {
		if p.MatchString(value) {
			return true
		}
	}
	return false
}

// redactUserinfo masks the password of every URL with userinfo in s.
func redactUserinfo(s string) string {
	if !strings.Contains(s, "@") {
		return s
	}
	return userinfoPattern.ReplaceAllString(s, "${1}:"+MaskValue+"@")
}

// LevelFor picks the log level. Long-running servers log at Info by default,
// one-shot commands at Warn; verbose lowers both to Debug.
func LevelFor(verbose, longRunning bool) slog.Level {
	switch {
	case verbose:
		return slog.LevelDebug
	case longRunning:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// New returns a secure logger writing format ("text" or "json") to w.
func New(w io.Writer, format string, level slog.Level) (*slog.Logger, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return NewSecureLogger(w, level), nil
	case FormatJSON:
		return NewSecureJSONLogger(w, level), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// NewSecureLogger returns a text logger that masks credentials.
func NewSecureLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// NewSecureJSONLogger returns a JSON logger that masks credentials.
func NewSecureJSONLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
}
