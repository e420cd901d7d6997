package logger

import (
	"errors"
	"os"

	"github.com/rollbar/rollbar-go"
	"go.uber.org/zap/zapcore"
)

// rollbarCore 把 Error 及以上级别的日志上报到 Rollbar
type rollbarCore struct {
	client *rollbar.Client
	fields []zapcore.Field
}

func NewRollbarCore(token, environment string) zapcore.Core {
	if environment == "" {
		environment = "development"
	}
	host, _ := os.Hostname()
	return &rollbarCore{
		client: rollbar.New(token, environment, "", host, ""),
	}
}

func (c *rollbarCore) Enabled(level zapcore.Level) bool {
	return level >= zapcore.ErrorLevel
}

func (c *rollbarCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &rollbarCore{client: c.client, fields: merged}
}

func (c *rollbarCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return ce.AddCore(entry, c)
	}
	return ce
}

func (c *rollbarCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	level := rollbar.ERR
	if entry.Level >= zapcore.DPanicLevel {
		level = rollbar.CRIT
	}

	extras := enc.Fields
	extras["caller"] = entry.Caller.TrimmedPath()
	if msg, ok := extras["error"].(string); ok {
		c.client.ErrorWithExtras(level, errors.New(entry.Message+": "+msg), extras)
		return nil
	}
	c.client.MessageWithExtras(level, entry.Message, extras)
	return nil
}

func (c *rollbarCore) Sync() error {
	c.client.Wait()
	return nil
}
