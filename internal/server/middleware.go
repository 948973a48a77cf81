package server

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"mindhaven/internal/platform/requestctx"
	"mindhaven/internal/telemetry"
)

var bearerScheme = regexp.MustCompile(`(?i)^Bearer$`)

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// RequireBearer rejects requests without a valid Authorization header and
// stores the token's user id in the request context.
func RequireBearer(verifier TokenVerifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeMessage(w, http.StatusUnauthorized, "No token provided")
			return
		}

		parts := strings.Split(header, " ")
		if len(parts) != 2 {
			writeMessage(w, http.StatusUnauthorized, "Token error")
			return
		}
		if !bearerScheme.MatchString(parts[0]) {
			writeMessage(w, http.StatusUnauthorized, "Malformed token")
			return
		}

		userID, err := verifier.Verify(parts[1])
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(requestctx.WithUserID(r.Context(), userID)))
	})
}

// allowCORS answers preflight requests and allows any origin.
func allowCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("Access-Control-Allow-Origin", "*")
		headers.Set("Access-Control-Allow-Methods", "GET,HEAD,PUT,PATCH,POST,DELETE")
		headers.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// logRequests writes one structured line per request.
func logRequests(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &telemetry.StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		level := slog.LevelInfo
		if recorder.Status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.LogAttrs(r.Context(), level, "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", recorder.Status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

// recoverPanics converts handler panics into a 500 response.
func recoverPanics(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				logger.Error("handler panic", "path", r.URL.Path, "panic", recovered)
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
