package logger

import (
	"strings"

	"github.com/pkg/errors"
)

type Level int

const (
	LevelOff Level = iota
	LevelFatal
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

var levelMap = map[string]Level{
	"OFF":   LevelOff,
	"FATAL": LevelFatal,
	"ERROR": LevelError,
	"WARN":  LevelWarn,
	"INFO":  LevelInfo,
	"DEBUG": LevelDebug,
	"TRACE": LevelTrace,
}

var levelNames = [...]string{"OFF", "FATAL", "ERROR", "WARN", "INFO", "DEBUG", "TRACE"}

func (l Level) String() string {
	if l < LevelOff || l > LevelTrace {
		return "INVALID"
	}
	return levelNames[l]
}

func ParseLevel(s string) (Level, error) {
	level, ok := levelMap[strings.ToUpper(s)]
	if !ok {
		return -1, errors.Errorf("invalid level: %s", s)
	}
	return level, nil
}
