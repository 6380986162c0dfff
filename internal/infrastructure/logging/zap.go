package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm/logger"
)

// New builds the service logger: JSON in production, console otherwise.
func New(service, env, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if strings.EqualFold(env, "production") {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	fields := []zap.Field{zap.String("service", service)}
	if env != "" {
		fields = append(fields, zap.String("env", env))
	}
	return log.With(fields...), nil
}

// GormLevel maps the service log level onto gorm's logger.
func GormLevel(level string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logger.Info
	case "error":
		return logger.Error
	case "silent", "off":
		return logger.Silent
	default:
		return logger.Warn
	}
}
