package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Log 전역 로거 인스턴스
	Log *zap.Logger
	// Sugar 편의 메서드가 포함된 로거
	Sugar *zap.SugaredLogger
)

// Options controls encoder and level. Zero value gives an info-level console logger.
type Options struct {
	// JSON switches to the json encoder (production)
	JSON  bool
	Level string
}

// Init 로거 초기화
func Init(opts Options) error {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(opts.Level))); err != nil {
			return err
		}
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if opts.JSON {
		encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)

	Log = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	Sugar = Log.Sugar()

	return nil
}

// GetLogger 이름이 지정된 로거 반환
func GetLogger(name string) *zap.SugaredLogger {
	if Log == nil {
		_ = Init(Options{})
	}
	return Log.Named(name).Sugar()
}

// Sync 로거 버퍼 플러시
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
