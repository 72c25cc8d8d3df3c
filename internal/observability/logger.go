package observability

import (
	"os"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger writes JSON to stdout, or colored console output in development.
func NewLogger(serviceName string, level zapcore.Level, development bool) *zap.Logger {
	return zap.New(consoleCore(level, development),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("service.name", serviceName)),
	)
}

// WithOTelBridge tees every entry to the global OpenTelemetry logger
// provider. Call it after SetupLogging.
func WithOTelBridge(logger *zap.Logger, scope string) *zap.Logger {
	otelCore := otelzap.NewCore(scope, otelzap.WithLoggerProvider(global.GetLoggerProvider()))
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, otelCore)
	}))
}

func consoleCore(level zapcore.Level, development bool) zapcore.Core {
	if development {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), level)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.Lock(os.Stdout), level)
}
