package bridge

import (
	"strconv"

	"go.uber.org/zap/zapcore"
)

// Level is a log channel severity. Lower is more severe.
type Level int

const (
	LevelError   Level = 0
	LevelWarning Level = 1
	LevelInfo    Level = 2
	LevelDebug   Level = 3
)

var levelNames = [...]string{
	LevelError:   "ERROR",
	LevelWarning: "WARNING",
	LevelInfo:    "INFO",
	LevelDebug:   "DEBUG",
}

func (l Level) String() string {
	if l.Valid() {
		return levelNames[l]
	}
	return "LEVEL(" + strconv.Itoa(int(l)) + ")"
}

func (l Level) Valid() bool {
	return l >= LevelError && l <= LevelDebug
}

// Normalize maps out-of-range levels to LevelInfo.
func (l Level) Normalize() Level {
	if l.Valid() {
		return l
	}
	return LevelInfo
}

// ZapLevel maps l onto the zap severity scale.
func (l Level) ZapLevel() zapcore.Level {
	switch l.Normalize() {
	case LevelError:
		return zapcore.ErrorLevel
	case LevelWarning:
		return zapcore.WarnLevel
	case LevelDebug:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// FromZap maps a zap severity back onto a Level.
func FromZap(l zapcore.Level) Level {
	switch {
	case l >= zapcore.ErrorLevel:
		return LevelError
	case l == zapcore.WarnLevel:
		return LevelWarning
	case l == zapcore.InfoLevel:
		return LevelInfo
	default:
		return LevelDebug
	}
}
