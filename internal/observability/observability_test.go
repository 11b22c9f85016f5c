package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"collegeconnect/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestRecordVote(t *testing.T) {
	before := testutil.ToFloat64(VotesTotal.WithLabelValues("post", "up", VoteApplied))
	RecordVote("post", "up", VoteApplied)
	RecordVote("post", "up", VoteApplied)
	after := testutil.ToFloat64(VotesTotal.WithLabelValues("post", "up", VoteApplied))
	assert.Equal(t, before+2, after)
}

func TestRecordJoinRequestAndNotification(t *testing.T) {
	before := testutil.ToFloat64(JoinRequestsTotal.WithLabelValues("team", "accepted"))
	RecordJoinRequest("team", "accepted")
	assert.Equal(t, before+1, testutil.ToFloat64(JoinRequestsTotal.WithLabelValues("team", "accepted")))

	nb := testutil.ToFloat64(NotificationsCreated.WithLabelValues("post_upvote"))
	RecordNotification("post_upvote")
	assert.Equal(t, nb+1, testutil.ToFloat64(NotificationsCreated.WithLabelValues("post_upvote")))
}

func TestDatabaseMetrics_TrackQuery(t *testing.T) {
	m := NewDatabaseMetrics("post_votes")
	done := m.TrackQuery("upsert")
	done()
	assert.GreaterOrEqual(t, testutil.CollectAndCount(DatabaseQueryLatency), 1)
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "collegeconnect-test"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestTraceServiceCall_RecordsError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	layer := NewTraceLayer(tp.Tracer("test"))

	_, span := layer.TraceServiceCall(context.Background(), "engagement", "Upvote", attribute.Int("post.id", 3))
	EndSpan(span, errors.New("boom"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "engagement.Upvote", spans[0].Name())
	assert.Len(t, spans[0].Events(), 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestEndSpan_ClientErrorKeepsStatus(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	layer := NewTraceLayer(tp.Tracer("test"))

	_, span := layer.TraceServiceCall(context.Background(), "membership", "SendJoinRequest")
	EndSpan(span, models.NewConflictError("request already pending"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Len(t, spans[0].Events(), 1)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestInitTracing_UnknownExporter(t *testing.T) {
	_, err := InitTracing(TracingConfig{ServiceName: "x", Enabled: true, Exporter: "zipkin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown exporter")
}

func TestOTLPOptions(t *testing.T) {
	tests := []struct {
		endpoint string
		want     int
		wantErr  bool
	}{
		{"localhost:4318", 2, false},
		{"http://collector:4318", 2, false},
		{"https://otel.example.com", 1, false},
		{"https://otel.example.com/custom/v1/traces", 2, false},
		{"grpc://collector:4317", 0, true},
		{"  ", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			opts, err := otlpOptions(tt.endpoint)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, opts, tt.want)
		})
	}
}

func TestNewSampler(t *testing.T) {
	assert.Contains(t, newSampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, newSampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, newSampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := GlobalLogger
	SetLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { GlobalLogger = prev })
	return &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func TestRepoLogger_Levels(t *testing.T) {
	buf := captureLogs(t)
	l := NewRepoLogger("posts")
	ctx := context.Background()

	l.LogCreate(ctx, map[string]interface{}{"post_id": 4})
	l.LogError(ctx, models.NewValidationError("title is required"), "create")
	l.LogError(ctx, errors.New("connection reset"), "update")
	l.LogError(ctx, nil, "noop")

	recs := decodeLines(t, buf)
	require.Len(t, recs, 3)
	assert.Equal(t, "DEBUG", recs[0]["level"])
	assert.Equal(t, "posts create", recs[0]["msg"])
	assert.Equal(t, float64(4), recs[0]["post_id"])
	assert.Equal(t, "WARN", recs[1]["level"])
	assert.Equal(t, "ERROR", recs[2]["level"])
	assert.Equal(t, "update", recs[2]["op"])
}

func TestLogging_Disabled(t *testing.T) {
	buf := captureLogs(t)
	prev := Config
	Config = LoggingConfig{}
	t.Cleanup(func() { Config = prev })

	NewRepoLogger("teams").LogUpdate(context.Background(), nil)
	NewWSLogger("notifications").LogConnect(context.Background(), 1)
	assert.Empty(t, buf.String())
}

func TestWSLogger_TagsHub(t *testing.T) {
	buf := captureLogs(t)
	NewWSLogger("notifications").LogDisconnect(context.Background(), 12, "closed")

	recs := decodeLines(t, buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "notifications", recs[0]["hub"])
	assert.Equal(t, float64(12), recs[0]["user_id"])
	assert.Equal(t, "closed", recs[0]["reason"])
}
