// Package telemetry provides the structured logger every other package in
// this module pulls from, instead of writing to stderr directly. Verbose
// output is gated behind REGPRESSURE_DEBUG so a normal run of cmd/pressuretrace
// stays quiet.
package telemetry

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// debugEnvVar gates Debug-level logging, the same on/off convention the
// teacher's LSP logger used for SOLA_LSP_DEBUG.
const debugEnvVar = "REGPRESSURE_DEBUG"

// New returns a process-wide logger. When REGPRESSURE_DEBUG is unset, the
// logger writes through an Info-level console core on stderr: Debug calls
// are dropped, while Info/Warn/Error still reach stderr so a silent run
// still reports real problems.
func New() *zap.Logger {
	if !debugEnabled() {
		return zap.NewNop().WithOptions(zap.WrapCore(func(zapcore.Core) zapcore.Core {
			return zapcore.NewCore(
				zapcore.NewConsoleEncoder(productionEncoderConfig()),
				zapcore.Lock(os.Stderr),
				zapcore.InfoLevel,
			)
		}))
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig = productionEncoderConfig()
	logger, err := cfg.Build()
	if err != nil {
		// zap.NewDevelopmentConfig().Build() only fails on a malformed
		// sink URL, which this fixed config never produces.
		panic(err)
	}
	return logger
}

func productionEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func debugEnabled() bool {
	switch os.Getenv(debugEnvVar) {
	case "1", "true", "on":
		return true
	default:
		return false
	}
}
