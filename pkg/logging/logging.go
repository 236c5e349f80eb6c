package logging

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger takes a logging config and returns a new zap logger that writes
// to the log file pointed to by the config, teed to stdout unless console
// output is disabled.
func NewLogger(config *Config) (*zap.Logger, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logging config: %w", err)
	}

	encoder, level, err := constructEncoderAndLevel(config)
	if err != nil {
		return nil, fmt.Errorf("constructing log encoder and level: %w", err)
	}

	logFile := zapcore.AddSync(&config.Logger)
	logCore := zapcore.NewCore(encoder, logFile, level)

	var core zapcore.Core
	if config.DisableConsoleOutput {
		core = logCore
	} else {
		console := zapcore.Lock(os.Stdout)
		consoleCore := zapcore.NewCore(encoder, console, level)
		core = zapcore.NewTee(logCore, consoleCore)
	}

	// Skip one caller frame so the log lines point at the call site, not
	// at the wrapper methods in this package.
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)), nil
}

func constructEncoderAndLevel(config *Config) (zapcore.Encoder, zapcore.Level, error) {
	zapLevel, err := config.Level.toZapCoreLevel()
	if err != nil {
		return nil, zapLevel, err
	}
	if config.Debug {
		zapLevel = zapcore.DebugLevel
	}

	encoderConfig := getZapEncoderConfig(config)
	if config.Debug {
		return zapcore.NewConsoleEncoder(encoderConfig), zapLevel, nil
	}

	return zapcore.NewJSONEncoder(encoderConfig), zapLevel, nil
}

func getZapEncoderConfig(config *Config) zapcore.EncoderConfig {
	encoderConfig := zap.NewProductionEncoderConfig()
	if config.Debug {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	if config.EncodeTimeAsRFC3339Nano {
		encoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	}

	return encoderConfig
}

// NewTestLogger returns a logger suitable for unit tests.
func NewTestLogger() Interface {
	return ForLogrus(logrus.NewEntry(logrus.New()))
}
