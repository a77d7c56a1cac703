package middleware

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const redacted = "[REDACTED]"

var (
	// Credentials and session material never reach the logs.
	defaultMaskHeaders = []string{"Authorization", "Cookie", "Set-Cookie"}
	// Account fields a client may mistakenly put in a query string.
	defaultMaskParams = []string{"password", "email_address", "username", "api_key", "token"}

	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
)

// RedactOptions adds names to the built-in mask lists. Matching is
// case-insensitive.
type RedactOptions struct {
	// MaskHeaders are request headers logged as "[REDACTED]".
	MaskHeaders []string
	// MaskParams are query parameters logged as "[REDACTED]".
	MaskParams []string
}

// RedactingLogger attaches a request-scoped logger (request_id, method, path,
// remote_ip) for LoggerFrom and writes one "http_request" line per request.
// Bodies are never logged. Masked headers and query parameters are replaced
// wholesale, and e-mail addresses elsewhere in the query or headers are
// scrubbed. Level follows the outcome: error for 5xx or gin errors, warn for
// 4xx, info otherwise.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	maskHeaders := lowerSet(defaultMaskHeaders, opts.MaskHeaders)
	maskParams := lowerSet(defaultMaskParams, opts.MaskParams)

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		l := log.With().
			Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Logger()
		c.Set(loggerKey, &l)

		query := truncate(redactQuery(c.Request.URL.RawQuery, maskParams), maxQueryLogLength)
		headers := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				headers[k] = redacted
				continue
			}
			headers[k] = emailRE.ReplaceAllString(strings.Join(vv, ", "), "[REDACTED:email]")
		}

		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case len(c.Errors) > 0 || status >= 500:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		}
		if uid := c.GetString(userIDKey); uid != "" {
			ev = ev.Str("user_id", uid)
		}
		if len(c.Params) > 0 {
			params := make(map[string]string, len(c.Params))
			for _, p := range c.Params {
				params[p.Key] = p.Value
			}
			ev = ev.Interface("params", params)
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.
			Str("query", query).
			Int("status", status).
			Int64("bytes_in", c.Request.ContentLength).
			Int("bytes_out", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}

// redactQuery rewrites raw with masked parameters replaced and e-mail
// addresses scrubbed. Keys are sorted; values are left unescaped for
// readability. An unparsable query is only e-mail scrubbed.
func redactQuery(raw string, mask map[string]struct{}) string {
	if raw == "" {
		return ""
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return emailRE.ReplaceAllString(raw, "[REDACTED:email]")
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		_, masked := mask[strings.ToLower(k)]
		for _, v := range values[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(k)
			b.WriteByte('=')
			if masked {
				b.WriteString(redacted)
			} else {
				b.WriteString(emailRE.ReplaceAllString(v, "[REDACTED:email]"))
			}
		}
	}
	return b.String()
}

func lowerSet(lists ...[]string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, list := range lists {
		for _, s := range list {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				set[s] = struct{}{}
			}
		}
	}
	return set
}
