package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"portal-exporter/internal/application/port/output"
)

var _ output.LoggerPort = (*LoggerAdapter)(nil)

type Config struct {
	Dir     string
	Name    string
	Level   zapcore.Level
	Console bool
}

func DefaultConfig(name string) Config {
	return Config{
		Dir:     "log",
		Name:    name,
		Level:   zapcore.InfoLevel,
		Console: true,
	}
}

type LoggerAdapter struct {
	sugar *zap.SugaredLogger
	file  *os.File
}

// NewLoggerAdapter writes JSON lines to <Dir>/<timestamp>_<Name>.log and,
// optionally, human-readable lines to stderr.
func NewLoggerAdapter(cfg Config) (*LoggerAdapter, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.log", time.Now().Format("2006-01-02_15-04-05"), sanitize(cfg.Name))
	file, err := os.Create(filepath.Join(cfg.Dir, filename))
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.MessageKey = "message"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), cfg.Level),
	}
	if cfg.Console {
		consoleCfg := encCfg
		consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), cfg.Level))
	}

	return &LoggerAdapter{
		sugar: zap.New(zapcore.NewTee(cores...)).Sugar(),
		file:  file,
	}, nil
}

// NewFromZap wraps an existing logger; used by tests with zaptest/observer.
func NewFromZap(l *zap.Logger) *LoggerAdapter {
	return &LoggerAdapter{sugar: l.Sugar()}
}

// Nop discards everything.
func Nop() *LoggerAdapter {
	return &LoggerAdapter{sugar: zap.NewNop().Sugar()}
}

func (l *LoggerAdapter) Debug(msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

func (l *LoggerAdapter) Info(msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

func (l *LoggerAdapter) Warn(msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

func (l *LoggerAdapter) Error(msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}

func (l *LoggerAdapter) WithField(key string, value any) output.LoggerPort {
	return &LoggerAdapter{sugar: l.sugar.With(key, value), file: l.file}
}

func (l *LoggerAdapter) WithFields(fields map[string]any) output.LoggerPort {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &LoggerAdapter{sugar: l.sugar.With(args...), file: l.file}
}

func (l *LoggerAdapter) Close() error {
	_ = l.sugar.Sync()
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, s)
	s = strings.Trim(s, "_")
	if s == "" {
		return "run"
	}
	if len(s) > 60 {
		s = s[:60]
	}
	return s
}
