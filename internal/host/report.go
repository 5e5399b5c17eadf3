package host

import (
	"context"

	"github.com/GriffinCanCode/dicthub/internal/domain/model"
	"go.uber.org/zap"
)

// Reporter receives analytics events when the user allows it.
type Reporter interface {
	ReportQuery(ctx context.Context, q model.Query)
	ReportResult(ctx context.Context, res model.TranslationResult, pluginVersion string)
}

// Notification is a user-facing message about updates.
type Notification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

// Notifier delivers notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// LogReporter writes analytics events to the log.
type LogReporter struct {
	Logger *zap.Logger
}

func (r LogReporter) ReportQuery(_ context.Context, q model.Query) {
	r.logger().Info("Query",
		zap.String("query_id", q.ID),
		zap.String("langs", q.From.Code()+"_"+q.To.Code()))
}

func (r LogReporter) ReportResult(_ context.Context, res model.TranslationResult, pluginVersion string) {
	fields := []zap.Field{
		zap.String("plugin_id", res.PluginID),
		zap.String("plugin_version", pluginVersion),
		zap.String("langs", res.Query.From.Code()+"_"+res.Query.To.Code()),
		zap.Bool("success", res.Success),
	}
	if !res.Success {
		fields = append(fields, zap.String("text", res.Query.Text))
	}
	r.logger().Info("Translation result", fields...)
}

func (r LogReporter) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// LogNotifier writes notifications to the log.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) Notify(_ context.Context, note Notification) {
	if n.Logger == nil {
		return
	}
	n.Logger.Info(note.Title, zap.String("message", note.Message), zap.String("url", note.URL))
}
