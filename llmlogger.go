package studycompanion

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LLMLogger records every exchange with the model to a dedicated transcript
// file, separate from the application log. A nil *LLMLogger discards
// everything.
type LLMLogger struct {
	log *zap.Logger
}

// NewLLMLogger opens a rotating transcript at cfg.LLMFile.
func NewLLMLogger(cfg LogConfig) *LLMLogger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(rotatingFile(cfg.LLMFile, cfg)),
		zap.DebugLevel,
	)
	return &LLMLogger{log: zap.New(core)}
}

// newLLMLoggerWith wraps an existing core; used by tests.
func newLLMLoggerWith(l *zap.Logger) *LLMLogger {
	return &LLMLogger{log: l}
}

// LogLLMRequest logs the prompt sent for one generation.
func (ll *LLMLogger) LogLLMRequest(requestID, module, prompt string) {
	if ll == nil {
		return
	}
	ll.log.Info("llm request",
		zap.String("request_id", requestID),
		zap.String("module", module),
		zap.String("prompt", prompt),
	)
}

// LogLLMResponse logs the raw text returned for one generation.
func (ll *LLMLogger) LogLLMResponse(requestID, module, response string, elapsed time.Duration) {
	if ll == nil {
		return
	}
	ll.log.Info("llm response",
		zap.String("request_id", requestID),
		zap.String("module", module),
		zap.Duration("elapsed", elapsed),
		zap.Int("length", len(response)),
		zap.String("response", response),
	)
}

// LogExtractionResult logs whether the response could be turned into a record.
func (ll *LLMLogger) LogExtractionResult(requestID, module string, err error) {
	if ll == nil {
		return
	}
	if err != nil {
		ll.log.Warn("extraction failed",
			zap.String("request_id", requestID),
			zap.String("module", module),
			zap.Error(err),
		)
		return
	}
	ll.log.Info("extraction succeeded",
		zap.String("request_id", requestID),
		zap.String("module", module),
	)
}

// Close flushes buffered entries.
func (ll *LLMLogger) Close() error {
	if ll == nil {
		return nil
	}
	return ll.log.Sync()
}
