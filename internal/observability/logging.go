// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"

	"collegeconnect/internal/models"
)

// Logger wraps slog.Logger for the repository and websocket streams.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the logger repository and websocket events go to.
var GlobalLogger = &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stdout, nil))}

// SetLogger routes repository and websocket logs through l, typically the
// request-aware logger built by the middleware package.
func SetLogger(l *slog.Logger) {
	if l != nil {
		GlobalLogger = &Logger{Logger: l}
	}
}

// LoggingConfig toggles the automated log streams.
type LoggingConfig struct {
	EnableRepoLogging bool
	EnableWSLogging   bool
}

// Config holds the current logging configuration.
var Config = LoggingConfig{
	EnableRepoLogging: true,
	EnableWSLogging:   true,
}

func withFields(attrs []any, fields map[string]interface{}) []any {
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

// RepoLogger records writes against one table. Writes are logged at debug;
// failures are logged at warn when they are the caller's fault and at
// error otherwise.
type RepoLogger struct {
	table string
}

// NewRepoLogger creates a RepoLogger for table.
func NewRepoLogger(table string) *RepoLogger {
	return &RepoLogger{table: table}
}

func (l *RepoLogger) write(ctx context.Context, op string, fields map[string]interface{}) {
	if !Config.EnableRepoLogging {
		return
	}
	GlobalLogger.DebugContext(ctx, l.table+" "+op, withFields([]any{
		slog.String("table", l.table),
		slog.String("op", op),
	}, fields)...)
}

// LogCreate records an insert.
func (l *RepoLogger) LogCreate(ctx context.Context, fields map[string]interface{}) {
	l.write(ctx, "create", fields)
}

// LogUpdate records an update.
func (l *RepoLogger) LogUpdate(ctx context.Context, fields map[string]interface{}) {
	l.write(ctx, "update", fields)
}

// LogDelete records a delete or soft delete.
func (l *RepoLogger) LogDelete(ctx context.Context, fields map[string]interface{}) {
	l.write(ctx, "delete", fields)
}

// LogError records a failed write.
func (l *RepoLogger) LogError(ctx context.Context, err error, op string) {
	if !Config.EnableRepoLogging || err == nil {
		return
	}
	level := slog.LevelError
	if models.HTTPStatus(err) < 500 {
		level = slog.LevelWarn
	}
	GlobalLogger.Log(ctx, level, l.table+" "+op+" failed",
		slog.String("table", l.table),
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
}

// WSLogger records realtime connection events for one hub.
type WSLogger struct {
	hub string
}

// NewWSLogger creates a WSLogger for hub.
func NewWSLogger(hub string) *WSLogger {
	return &WSLogger{hub: hub}
}

func (l *WSLogger) log(ctx context.Context, level slog.Level, msg string, attrs ...any) {
	if !Config.EnableWSLogging {
		return
	}
	GlobalLogger.Log(ctx, level, msg, append([]any{slog.String("hub", l.hub)}, attrs...)...)
}

// LogConnect records a subscriber joining.
func (l *WSLogger) LogConnect(ctx context.Context, userID uint) {
	l.log(ctx, slog.LevelInfo, "stream subscriber connected", slog.Uint64("user_id", uint64(userID)))
}

// LogDisconnect records a subscriber leaving.
func (l *WSLogger) LogDisconnect(ctx context.Context, userID uint, reason string) {
	l.log(ctx, slog.LevelInfo, "stream subscriber disconnected",
		slog.Uint64("user_id", uint64(userID)),
		slog.String("reason", reason),
	)
}

// LogError records a failure on a subscriber connection.
func (l *WSLogger) LogError(ctx context.Context, userID uint, err error, stage string) {
	l.log(ctx, slog.LevelWarn, "stream error",
		slog.Uint64("user_id", uint64(userID)),
		slog.String("stage", stage),
		slog.String("error", err.Error()),
	)
}

// LogLifecycle records hub-level events such as shutdown.
func (l *WSLogger) LogLifecycle(ctx context.Context, event string, fields map[string]interface{}) {
	l.log(ctx, slog.LevelInfo, "stream "+event, withFields(nil, fields)...)
}
