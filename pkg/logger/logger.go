// pkg/logger/logger.go
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Уровни логирования
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
	LevelFatal = "FATAL"
)

// Logger - обёртка над zerolog с printf-интерфейсом
type Logger struct {
	logFile   *os.File
	zl        zerolog.Logger
	logLevel  string
	debugMode bool
}

// NewLogger создаёт логгер: консоль + файл (если logPath не пустой)
func NewLogger(logPath string, logLevel string, debug bool) (*Logger, error) {
	console := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    !debug,
	}

	var (
		out  io.Writer = console
		file *os.File
	)
	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, err
		}
		file = f
		out = zerolog.MultiLevelWriter(console, f)
	}

	l := NewWithWriter(out, logLevel, debug)
	l.logFile = file
	return l, nil
}

// NewWithWriter создаёт логгер поверх произвольного writer (удобно в тестах)
func NewWithWriter(w io.Writer, logLevel string, debug bool) *Logger {
	level := strings.ToUpper(logLevel)
	return &Logger{
		zl:        zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger(),
		logLevel:  level,
		debugMode: debug,
	}
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	case LevelFatal:
		return zerolog.FatalLevel
	default:
		// Неизвестный уровень - логируем всё
		return zerolog.DebugLevel
	}
}

// Zerolog возвращает нижележащий zerolog.Logger для структурных полей
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zl
}

func (l *Logger) Debug(format string, v ...interface{}) {
	l.zl.Debug().Msgf(format, v...)
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.zl.Info().Msgf(format, v...)
}

func (l *Logger) Warn(format string, v ...interface{}) {
	l.zl.Warn().Msgf(format, v...)
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.zl.Error().Msgf(format, v...)
}

func (l *Logger) Fatal(format string, v ...interface{}) {
	l.zl.Fatal().Msgf(format, v...)
}

// Status печатает сводку ключ-значение одним событием
func (l *Logger) Status(title string, stats map[string]string) {
	ev := l.zl.Info()
	for k, v := range stats {
		ev = ev.Str(k, v)
	}
	ev.Msg("📊 " + title)
}

// LevelFlip логирует смену стороны уровня после пересечения ценой
func (l *Logger) LevelFlip(symbol string, price float64, nowResistance bool, currentPrice float64) {
	from, to := "resistance", "support"
	icon := "📉"
	if nowResistance {
		from, to = "support", "resistance"
		icon = "📈"
	}
	l.zl.Info().
		Str("symbol", symbol).
		Float64("level", price).
		Float64("price", currentPrice).
		Msg(fmt.Sprintf("%s Уровень %.5f: %s → %s", icon, price, from, to))
}

func (l *Logger) Close() {
	if l.logFile != nil {
		l.logFile.Close()
	}
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
