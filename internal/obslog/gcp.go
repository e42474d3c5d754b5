package obslog

import (
	"context"
	"fmt"

	"cloud.google.com/go/logging"
	"go.uber.org/zap/zapcore"
)

// gcpCore ships log entries to Cloud Logging, grounded in the teacher's
// Cloud Run deployment (scripts/diagnose_logs.go queries
// resource.type="cloud_run_revision" logs written by this service).
type gcpCore struct {
	zapcore.LevelEnabler
	encoder zapcore.Encoder
	logger  *logging.Logger
	fields  []zapcore.Field
}

// NewGCPSink builds a zapcore.Core that tees entries to the named Cloud
// Logging log within projectID. Callers pass it to Configure.
func NewGCPSink(ctx context.Context, projectID, logID string, minLevel zapcore.LevelEnabler) (zapcore.Core, func() error, error) {
	client, err := logging.NewClient(ctx, fmt.Sprintf("projects/%s", projectID))
	if err != nil {
		return nil, nil, fmt.Errorf("obslog: creating Cloud Logging client: %w", err)
	}
	lg := client.Logger(logID)

	core := &gcpCore{
		LevelEnabler: minLevel,
		encoder:      zapcore.NewJSONEncoder(zapcore.EncoderConfig{MessageKey: "msg"}),
		logger:       lg,
	}
	return core, client.Close, nil
}

func (c *gcpCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field{}, c.fields...), fields...)
	return &clone
}

func (c *gcpCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *gcpCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.encoder.EncodeEntry(ent, append(c.fields, fields...))
	if err != nil {
		return err
	}
	defer buf.Free()

	c.logger.Log(logging.Entry{
		Timestamp: ent.Time,
		Severity:  zapLevelToSeverity(ent.Level),
		Payload:   buf.String(),
	})
	return nil
}

func (c *gcpCore) Sync() error {
	return c.logger.Flush()
}

func zapLevelToSeverity(lvl zapcore.Level) logging.Severity {
	switch lvl {
	case zapcore.DebugLevel:
		return logging.Debug
	case zapcore.InfoLevel:
		return logging.Info
	case zapcore.WarnLevel:
		return logging.Warning
	case zapcore.ErrorLevel:
		return logging.Error
	case zapcore.DPanicLevel, zapcore.PanicLevel:
		return logging.Critical
	case zapcore.FatalLevel:
		return logging.Emergency
	default:
		return logging.Default
	}
}
