// Package observability provides the shared CLI logger.
package observability

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CLILogger is the process-wide logger for command output and diagnostics.
// It writes human-readable console lines to stderr so stdout stays clean
// for JSONL records.
var CLILogger = newCLILogger(zapcore.InfoLevel)

var cliLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

func newCLILogger(level zapcore.Level) *zap.Logger {
	cliLevel.SetLevel(level)

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		cliLevel,
	)
	return zap.New(core)
}

// SetLevel adjusts the CLI log level ("debug", "info", "warn", "error").
func SetLevel(level string) error {
	var l zapcore.Level
	if err := l.Set(level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cliLevel.SetLevel(l)
	return nil
}
