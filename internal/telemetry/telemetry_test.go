package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestSetupNoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := Setup(context.Background(), "mindhaven-test", "", true)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupNoopWhenDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), "mindhaven-test", "http://192.0.2.1:4318", false)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupCreatesProvider(t *testing.T) {
	shutdown, err := Setup(context.Background(), "mindhaven-test", "http://192.0.2.1:4318", true)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestMiddlewareRecordsServerSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	handler := Middleware(provider, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Annotate(r.Context(), attribute.String("mindhaven.route", "chat"))
		w.WriteHeader(http.StatusBadGateway)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/chat", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "POST /api/chat", span.Name())
	assert.Equal(t, trace.SpanKindServer, span.SpanKind())
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Contains(t, span.Attributes(), attribute.String("mindhaven.route", "chat"))
	assert.Contains(t, span.Attributes(), attribute.Int("http.response.status_code", http.StatusBadGateway))
}
