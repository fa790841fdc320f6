package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/askdb/pkg/logging"
)

const maxLoggedArgument = 200

var sensitiveArgumentKeys = []string{"password", "secret", "token", "key", "credential"}

// MCPRequestLogger logs JSON-RPC traffic on the MCP endpoint: the method and
// tool name on the way in, and the error code or success on the way out.
// Tool arguments are redacted and truncated. A nil logger disables logging.
func MCPRequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logger == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				logger.Error("Failed to read MCP request body", zap.Error(err))
				http.Error(w, "failed to read request body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			var req jsonRPCRequest
			if len(body) > 0 {
				if err := json.Unmarshal(body, &req); err != nil {
					logger.Debug("MCP request is not a JSON-RPC object", zap.Error(err))
				}
			}

			logger.Debug("MCP request",
				zap.String("method", req.Method),
				zap.String("tool", req.Params.Name),
				zap.Any("arguments", sanitizeArguments(req.Params.Arguments)),
			)

			recorder := &mcpResponseRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(recorder, r)
			elapsed := time.Since(start)

			var resp jsonRPCResponse
			if err := json.Unmarshal(recorder.body.Bytes(), &resp); err != nil {
				// Event streams and empty notification replies land here.
				return
			}

			if resp.Error != nil {
				logger.Info("MCP response error",
					zap.String("method", req.Method),
					zap.String("tool", req.Params.Name),
					zap.Int("error_code", resp.Error.Code),
					zap.String("error_message", resp.Error.Message),
					zap.Duration("duration", elapsed),
				)
				return
			}
			logger.Debug("MCP response success",
				zap.String("method", req.Method),
				zap.String("tool", req.Params.Name),
				zap.Duration("duration", elapsed),
			)
		})
	}
}

type jsonRPCRequest struct {
	Method string `json:"method"`
	Params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"params"`
}

type jsonRPCResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *jsonRPCError   `json:"error"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type mcpResponseRecorder struct {
	http.ResponseWriter
	body bytes.Buffer
}

func (r *mcpResponseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *mcpResponseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// sanitizeArguments redacts credential-like keys and truncates long strings.
func sanitizeArguments(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}

	out := make(map[string]any, len(args))
	for k, v := range args {
		if isSensitiveKey(k) {
			out[k] = "[REDACTED]"
			continue
		}
		if s, ok := v.(string); ok {
			out[k] = logging.TruncateString(s, maxLoggedArgument)
			continue
		}
		out[k] = v
	}
	return out
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, keyword := range sensitiveArgumentKeys {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
