package handlers

import (
	"net/http"
	"regexp"

	"go.uber.org/zap"
)

var (
	projectIDPattern  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,127}$`)
	responseIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)
)

// ParseProjectID extracts the catalog project id from the path parameter pid.
// On failure an error response has already been written.
func ParseProjectID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (string, bool) {
	return parsePathID(w, r, "pid", projectIDPattern, "invalid_project_id", "Invalid project ID format", logger)
}

// ParseResponseID extracts a cached response id from the path parameter rid.
func ParseResponseID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (string, bool) {
	return parsePathID(w, r, "rid", responseIDPattern, "invalid_response_id", "Invalid response ID format", logger)
}

func parsePathID(w http.ResponseWriter, r *http.Request, param string, pattern *regexp.Regexp, errorCode, errorMessage string, logger *zap.Logger) (string, bool) {
	id := r.PathValue(param)
	if !pattern.MatchString(id) {
		if err := ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return "", false
	}
	return id, true
}
