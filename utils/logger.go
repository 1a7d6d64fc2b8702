package utils

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// SetupLogger настраивает структурированное логирование с slog по секции
// logging конфига. Возвращает открытый лог-файл (nil при выводе в stdout).
func SetupLogger() (*os.File, error) {
	level := strings.ToLower(viper.GetString("logging.level"))
	format := strings.ToLower(viper.GetString("logging.format"))
	output := strings.ToLower(viper.GetString("logging.output"))
	logFile := viper.GetString("logging.file")

	if logFile == "" {
		logFile = "./logs/caserv.log"
	}

	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn", "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var writer io.Writer = os.Stdout
	var file *os.File

	if output == "file" || output == "both" {
		logDir := filepath.Dir(logFile)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("не удалось создать директорию для логов: %v", err)
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("не удалось открыть лог файл %s: %v", logFile, err)
		}
		file = f
		if output == "both" {
			writer = io.MultiWriter(os.Stdout, f)
		} else {
			writer = f
		}
	}

	handlerOpts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(writer, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(writer, handlerOpts)
	}

	slog.SetDefault(slog.New(handler))

	// Стандартный log тоже направляем в slog-овый writer
	if output != "" && output != "stdout" {
		log.SetOutput(writer)
	}
	log.SetFlags(0)

	slog.Info("Логирование настроено",
		"level", level,
		"format", format,
		"output", output)

	return file, nil
}
