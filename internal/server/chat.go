package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"mindhaven/internal/telemetry"
)

// ChatRequest is the body the chat relay expects.
type ChatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// ChatResponse is the body a healthy upstream returns.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// handleChat forwards the request body to the chat service and relays its
// answer. Upstream failures keep their status; transport failures are 500.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil || !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	request, err := http.NewRequestWithContext(r.Context(), http.MethodPost, s.chatURL, bytes.NewReader(body))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "chat proxy error", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := s.httpClient.Do(request)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "chat proxy error", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer response.Body.Close()
	telemetry.Annotate(r.Context(), attribute.Int("mindhaven.chat.upstream_status", response.StatusCode))

	upstream, err := io.ReadAll(io.LimitReader(response.Body, maxBodyBytes))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "chat proxy error", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	validJSON := len(bytes.TrimSpace(upstream)) > 0 && json.Valid(upstream)

	if response.StatusCode < 200 || response.StatusCode > 299 {
		if validJSON {
			writeRawJSON(w, response.StatusCode, upstream)
			return
		}
		writeError(w, response.StatusCode, "Upstream error")
		return
	}
	if !validJSON {
		writeError(w, http.StatusBadGateway, "Upstream error")
		return
	}
	writeRawJSON(w, http.StatusOK, upstream)
}
