package logging

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Component tags log lines with the part of the system that wrote them.
type Component string

const (
	ComponentAgent       Component = "AGENT"
	ComponentCoordinator Component = "COORDINATOR"
	ComponentStore       Component = "STORE"
	ComponentGateway     Component = "GATEWAY"
	ComponentRelay       Component = "RELAY"
	ComponentCLI         Component = "CLI"
)

// Config selects level, encoding and destination.
type Config struct {
	Level      string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format     string `yaml:"format" validate:"omitempty,oneof=console json"`
	OutputFile string `yaml:"output_file"`
}

// New builds a logger from cfg. Empty fields mean info level, console
// encoding and stdout.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "json":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		encoder = consoleEncoder()
	}

	sink := zapcore.AddSync(os.Stdout)
	if cfg.OutputFile != "" {
		file, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", cfg.OutputFile, err)
		}
		sink = zapcore.AddSync(file)
	}

	core := zapcore.NewCore(encoder, sink, level)
	return zap.New(core, zap.AddCaller()), nil
}

// For returns a child logger tagged with component. A nil parent yields a
// no-op logger.
func For(parent *zap.Logger, component Component) *zap.Logger {
	if parent == nil {
		return zap.NewNop()
	}
	return parent.With(zap.String("component", string(component)))
}

func consoleEncoder() zapcore.Encoder {
	config := zap.NewDevelopmentEncoderConfig()

	config.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("15:04:05"))
	}

	// Single letter level: D, I, W, E
	config.EncodeLevel = func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		switch level {
		case zapcore.DebugLevel:
			enc.AppendString("D")
		case zapcore.InfoLevel:
			enc.AppendString("I")
		case zapcore.WarnLevel:
			enc.AppendString("W")
		case zapcore.ErrorLevel:
			enc.AppendString("E")
		default:
			enc.AppendString(level.CapitalString())
		}
	}

	config.EncodeCaller = func(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		file := caller.File
		if idx := strings.LastIndex(file, "/"); idx >= 0 {
			file = file[idx+1:]
		}
		enc.AppendString(strings.TrimSuffix(file, ".go"))
	}

	return zapcore.NewConsoleEncoder(config)
}
