package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	*zap.Logger
}

// New builds a repository-scoped logger at the given level ("debug", "info",
// "warn", "error"). Callers thread the result through the repository, object
// store and ancestry cache constructors; the plain-file ref store and the
// index take no logger. There is no package-level default.
func New(level string) (*Logger, error) {
	if level == "" {
		level = "info"
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = ""

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{logger}, nil
}

// Nop returns a logger that discards everything, for callers (tests,
// library embedders) that don't want log output.
func Nop() *Logger {
	return &Logger{zap.NewNop()}
}
