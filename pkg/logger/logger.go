package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Logger is the leveled key/value logger used across the service.
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
}

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

var levelNames = map[level]string{
	levelDebug: "DEBUG",
	levelInfo:  "INFO",
	levelWarn:  "WARN",
	levelError: "ERROR",
}

type stdLogger struct {
	out *log.Logger
	err *log.Logger
	min level
}

// New creates a logger that writes at or above the given level
// ("debug", "info", "warn", "error"). Unknown levels default to info.
func New(levelName string) Logger {
	min := levelInfo

	switch strings.ToLower(levelName) {
	case "debug":
		min = levelDebug
	case "warn":
		min = levelWarn
	case "error":
		min = levelError
	}

	return &stdLogger{
		out: log.New(os.Stdout, "", log.Ldate|log.Ltime),
		err: log.New(os.Stderr, "", log.Ldate|log.Ltime),
		min: min,
	}
}

func (l *stdLogger) Debug(msg string, keyvals ...interface{}) { l.log(levelDebug, msg, keyvals...) }
func (l *stdLogger) Info(msg string, keyvals ...interface{})  { l.log(levelInfo, msg, keyvals...) }
func (l *stdLogger) Warn(msg string, keyvals ...interface{})  { l.log(levelWarn, msg, keyvals...) }
func (l *stdLogger) Error(msg string, keyvals ...interface{}) { l.log(levelError, msg, keyvals...) }

func (l *stdLogger) log(lv level, msg string, keyvals ...interface{}) {
	if lv < l.min {
		return
	}

	line := levelNames[lv] + ": " + msg + formatKeyvals(keyvals...)

	if lv >= levelError {
		l.err.Println(line)
		return
	}
	l.out.Println(line)
}

func formatKeyvals(keyvals ...interface{}) string {
	if len(keyvals) == 0 {
		return ""
	}

	var b strings.Builder

	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprintf("%v", keyvals[i])
		value := "missing"

		if i+1 < len(keyvals) {
			value = fmt.Sprintf("%v", keyvals[i+1])
		}

		b.WriteString(" " + key + "=" + value)
	}

	return b.String()
}
