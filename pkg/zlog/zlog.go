package zlog

import (
	"os"
	"path/filepath"
	"sync"

	"PricePilot/internal/config"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.Logger
	once   sync.Once
)

// getLogger 初始化全局日志器（控制台 + 滚动文件双输出）
func getLogger() *zap.Logger {
	once.Do(func() {
		logPath := config.GetConfig().LogConfig.LogPath
		if logPath == "" {
			logPath = "logs"
		}

		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(logPath, "app.log"),
			MaxSize:    20, // MB
			MaxBackups: 14,
			MaxAge:     30, // days
			Compress:   true,
		})

		core := zapcore.NewTee(
			zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(os.Stdout), zapcore.DebugLevel),
			zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), fileWriter, zapcore.InfoLevel),
		)

		logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	})
	return logger
}

func Debug(msg string, fields ...zap.Field) {
	getLogger().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	getLogger().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	getLogger().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	getLogger().Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	getLogger().Fatal(msg, fields...)
}
