package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where log output goes and how files are rotated.
type Config struct {
	Level      string `json:"level" yaml:"level"`             // "debug", "info", "warn", "error"
	Output     string `json:"output" yaml:"output"`           // "console", "file", "both"
	File       string `json:"file" yaml:"file"`               // log file path when output includes "file"
	MaxSize    int    `json:"max_size" yaml:"max_size"`       // MB per file before rotation
	MaxBackups int    `json:"max_backups" yaml:"max_backups"` // rotated files to keep
	MaxAge     int    `json:"max_age" yaml:"max_age"`         // days to keep rotated files
	Compress   bool   `json:"compress" yaml:"compress"`
}

var sugar *zap.SugaredLogger

// Init builds the global sugared logger from cfg. Safe to call once at
// startup; callers that log before Init get a development fallback.
func Init(cfg Config) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level.SetLevel(zap.InfoLevel)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encCfg)

	var cores []zapcore.Core

	output := strings.ToLower(cfg.Output)
	if output == "file" || output == "both" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), level))
	}
	if output == "console" || output == "both" || len(cores) == 0 {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level))
	}

	sugar = zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Sugar()
}

// S returns the global sugared logger.
func S() *zap.SugaredLogger {
	if sugar == nil {
		l, _ := zap.NewDevelopment()
		return l.Sugar()
	}
	return sugar
}
