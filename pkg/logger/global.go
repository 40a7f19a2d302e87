// pkg/logger/global.go
package logger

import (
	"io"
	"sync"
)

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
)

// InitGlobal инициализирует глобальный логгер
func InitGlobal(logPath, logLevel string, debug bool) error {
	l, err := NewLogger(logPath, logLevel, debug)
	if err != nil {
		return err
	}
	SetGlobal(l)
	return nil
}

// SetGlobal подменяет глобальный логгер (nil - отключить вывод)
func SetGlobal(l *Logger) {
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

// SetOutput направляет глобальный логгер в writer
func SetOutput(w io.Writer, logLevel string) {
	SetGlobal(NewWithWriter(w, logLevel, false))
}

func GetLogger() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// Глобальные методы для удобства
func Debug(format string, v ...interface{}) {
	if l := GetLogger(); l != nil {
		l.Debug(format, v...)
	}
}

func Info(format string, v ...interface{}) {
	if l := GetLogger(); l != nil {
		l.Info(format, v...)
	}
}

func Warn(format string, v ...interface{}) {
	if l := GetLogger(); l != nil {
		l.Warn(format, v...)
	}
}

func Error(format string, v ...interface{}) {
	if l := GetLogger(); l != nil {
		l.Error(format, v...)
	}
}

func LevelFlip(symbol string, price float64, nowResistance bool, currentPrice float64) {
	if l := GetLogger(); l != nil {
		l.LevelFlip(symbol, price, nowResistance, currentPrice)
	}
}
