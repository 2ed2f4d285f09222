package experiments

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a logger which writes to w.
//
// Verbose loggers print human-readable debug lines.
// Otherwise, info and above is logged as JSON with
// RFC3339 timestamps.
func NewLogger(w io.Writer, verbose bool) *zap.Logger {
	var encoder zapcore.Encoder
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		config := zap.NewProductionEncoderConfig()
		config.EncodeTime = zapcore.RFC3339TimeEncoder
		encoder = zapcore.NewJSONEncoder(config)
	}
	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core)
}
