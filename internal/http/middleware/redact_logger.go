// Access logging with PII and credential scrubbing.
//
// RedactingLogger is the access logger for the API. Request and response
// bodies are never logged; query strings and headers are scrubbed before
// they reach a log line. Two things must never leak here: learner
// identifiers (topic requests reveal what a person is studying, and the
// feedback endpoint carries user ids) and provider credentials (YouTube and
// Gemini keys travel as query or header values on misconfigured clients).
//
// The middleware also attaches a request-scoped logger to the Gin context so
// handlers can emit enriched lines tied to the same request id; LoggerFrom
// retrieves it.
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures additional scrub behavior for RedactingLogger.
//
// MaskHeaders lists extra header names whose values are fully replaced with
// "[REDACTED]". Matching is case-insensitive and merged with the built-in
// set (Authorization, Cookie, Set-Cookie).
type RedactOptions struct {
	MaskHeaders []string
}

// Scrub patterns, compiled once. UUIDs must be redacted before phone
// numbers: the loose phone pattern would otherwise match digit runs inside
// a UUID.
var (
	redactUUIDRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	redactEmailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	redactPhoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
	// Credential-style query parameters (key=..., api_key=..., token=...).
	// Google API keys ride in a "key" parameter.
	redactKeyRE = regexp.MustCompile(`(?i)\b(key|api[_-]?key|apikey|token|access[_-]?token)=[^&\s]+`)
)

func redact(s string) string {
	if s == "" {
		return s
	}
	out := redactKeyRE.ReplaceAllString(s, "$1=[REDACTED:key]")
	out = redactUUIDRE.ReplaceAllString(out, "[REDACTED:id]")
	out = redactEmailRE.ReplaceAllString(out, "[REDACTED:email]")
	out = redactPhoneRE.ReplaceAllString(out, "[REDACTED:phone]")
	return out
}

// RedactingLogger returns the access-log middleware. It logs method, path,
// scrubbed query, scrubbed headers, status, response size, and latency, at
// a level chosen by status (info, warn for 4xx, error for 5xx).
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	maskHeaders := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			maskHeaders[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		safeQuery := redact(c.Request.URL.RawQuery)

		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = redact(strings.Join(vv, ", "))
		}

		// RequestID runs earlier and has already stamped the response header.
		reqID := c.Writer.Header().Get(requestIDHeader)
		if reqID == "" {
			reqID = c.GetHeader(requestIDHeader)
		}

		// Request-scoped logger for handlers, carrying the correlation id.
		scoped := log.With().
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &scoped)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		size := c.Writer.Size()

		ev := scoped.Info()
		switch {
		case status >= 500:
			ev = scoped.Error()
		case status >= 400:
			ev = scoped.Warn()
		}

		ev.
			Str("query", safeQuery).
			Int("status", status).
			Int("bytes", size).
			Dur("latency", latency).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}
