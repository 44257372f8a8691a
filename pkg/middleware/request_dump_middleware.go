package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
)

const maxDumpBody = 4 << 10

// RequestDumpMiddleware logs method, URL, headers and body of every request
// at DEBUG. Credentials are masked and multipart bodies are not read.
func RequestDumpMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !slog.Default().Enabled(c.Request.Context(), slog.LevelDebug) {
			c.Next()
			return
		}

		var body string
		if c.Request.Body != nil && !strings.HasPrefix(c.ContentType(), "multipart/") {
			bodyBytes, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			body = string(bodyBytes)
			if len(body) > maxDumpBody {
				body = body[:maxDumpBody] + "...(truncated)"
			}
		}

		headers := make(map[string]string, len(c.Request.Header))
		for k, v := range c.Request.Header {
			if strings.EqualFold(k, "Authorization") || strings.EqualFold(k, "Cookie") {
				headers[k] = "***"
				continue
			}
			headers[k] = strings.Join(v, ", ")
		}

		slog.DebugContext(c.Request.Context(), "request dump",
			"method", c.Request.Method,
			"url", c.Request.URL.String(),
			"headers", headers,
			"body", maskPassword(body),
		)

		c.Next()
	}
}

// maskPassword hides the value of a "password" member in a JSON body.
func maskPassword(body string) string {
	i := strings.Index(body, `"password"`)
	if i < 0 {
		return body
	}
	rest := body[i+len(`"password"`):]
	start := strings.Index(rest, `"`)
	if start < 0 {
		return body
	}
	end := strings.Index(rest[start+1:], `"`)
	if end < 0 {
		return body
	}
	return body[:i] + `"password"` + rest[:start+1] + "***" + rest[start+1+end:]
}
