package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"tts-synth/internal/cli"
	"tts-synth/internal/config"
	"tts-synth/internal/tts"

	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

// run отделен от main, чтобы deferred Sync выполнялся до os.Exit
func run() int {
	appCfg := config.LoadApp()
	level := appCfg.GetLogLevel()

	// Недоступный LOG_FILE не должен менять код завершения: аргументы еще не проверены
	logger := initLogger(&appCfg, level)
	defer logger.Sync()

	// Прерывание по Ctrl+C отменяет загрузку модели и синтез
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(filepath.Base(os.Args[0]), config.Load, tts.Load, logger, level, os.Stdout)
	return app.Run(ctx, os.Args[1:])
}

// initLogger строит логгер и при ошибке откатывается на логирование только в stderr
func initLogger(appCfg *config.AppConfig, level zap.AtomicLevel) *zap.Logger {
	logger, err := buildLogger(appCfg, level, appCfg.LogFile)
	if err == nil {
		return logger
	}

	fallback, fallbackErr := buildLogger(appCfg, level, "")
	if fallbackErr != nil {
		fmt.Fprintf(os.Stderr, "Ошибка инициализации логгера: %v\n", fallbackErr)
		return zap.NewNop()
	}
	fallback.Warn("файл логов недоступен, пишем только в stderr",
		zap.String("log_file", appCfg.LogFile),
		zap.Error(err))
	return fallback
}

// buildLogger пишет логи в stderr, stdout остается для подсказки по использованию
func buildLogger(appCfg *config.AppConfig, level zap.AtomicLevel, logFile string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if appCfg.IsDevelopment() {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = level
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	if logFile != "" {
		// Создаем директорию для логов если её нет
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			return nil, fmt.Errorf("ошибка создания директории логов: %w", err)
		}
		cfg.OutputPaths = append(cfg.OutputPaths, logFile)
		cfg.ErrorOutputPaths = append(cfg.ErrorOutputPaths, logFile)
	}

	return cfg.Build()
}
