package audit

import (
	"context"
	"log/slog"
)

// LogSink writes events as structured log lines tagged log_type=audit.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Write(ctx context.Context, e Event) error {
	s.logger.InfoContext(ctx, string(e.Action),
		"log_type", "audit",
		"account_id", e.AccountID,
		"client_id", e.ClientID,
		"interaction_id", e.InteractionID,
		"grant_id", e.GrantID,
		"reason", e.Reason,
		"request_id", e.RequestID,
		"client_ip", e.ClientIP,
		"browser", e.Browser,
		"os", e.OS,
	)
	return nil
}
