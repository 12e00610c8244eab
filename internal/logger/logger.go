package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

var (
	levelNames = map[Level]string{
		DEBUG: "DEBUG",
		INFO:  "INFO",
		WARN:  "WARN",
		ERROR: "ERROR",
		FATAL: "FATAL",
	}

	levelColors = map[Level]string{
		DEBUG: "\033[36m", // Cyan
		INFO:  "\033[32m", // Green
		WARN:  "\033[33m", // Yellow
		ERROR: "\033[31m", // Red
		FATAL: "\033[35m", // Magenta
	}

	reset = "\033[0m"

	exit = os.Exit
)

// Logger writes one line per entry, tagged with the service and optional component.
// Loggers derived with With share the parent's writer and lock.
type Logger struct {
	level     Level
	out       io.Writer
	mu        *sync.Mutex
	service   string
	component string
	useColors bool
	showTime  bool
}

// ParseLevel maps a LOG_LEVEL value to a Level, falling back to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

func New(service string) *Logger {
	l := NewWithWriter(service, os.Stdout, ParseLevel(os.Getenv("LOG_LEVEL")))
	l.useColors = os.Getenv("LOG_COLORS") != "false"
	l.showTime = true
	return l
}

// NewWithWriter builds an uncoloured logger without timestamps, mainly for tests.
func NewWithWriter(service string, out io.Writer, level Level) *Logger {
	return &Logger{
		level:   level,
		out:     out,
		mu:      &sync.Mutex{},
		service: service,
	}
}

func (l *Logger) With(component string) *Logger {
	child := *l
	if child.component != "" {
		component = child.component + "." + component
	}
	child.component = component
	return &child
}

func (l *Logger) Enabled(level Level) bool {
	return level >= l.level
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}

	var buf strings.Builder

	if l.showTime {
		buf.WriteString(time.Now().Format("15:04:05"))
		buf.WriteString(" ")
	}

	if l.useColors {
		buf.WriteString(levelColors[level])
	}
	buf.WriteString(fmt.Sprintf("%-5s", levelNames[level]))
	if l.useColors {
		buf.WriteString(reset)
	}
	buf.WriteString(" ")

	if tag := l.tag(); tag != "" {
		if l.useColors {
			buf.WriteString("\033[90m") // Gray
		}
		buf.WriteString("[")
		buf.WriteString(tag)
		buf.WriteString("]")
		if l.useColors {
			buf.WriteString(reset)
		}
		buf.WriteString(" ")
	}

	buf.WriteString(fmt.Sprintf(format, args...))

	l.mu.Lock()
	fmt.Fprintln(l.out, buf.String())
	l.mu.Unlock()

	if level == FATAL {
		exit(1)
	}
}

func (l *Logger) tag() string {
	switch {
	case l.service != "" && l.component != "":
		return l.service + "/" + l.component
	case l.component != "":
		return l.component
	default:
		return l.service
	}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

func (l *Logger) Fatal(format string, args ...interface{}) {
	l.log(FATAL, format, args...)
}

// SetStdLog redirects the standard log package (used by net/http and grpc internals).
func (l *Logger) SetStdLog() {
	log.SetOutput(&stdLogWriter{logger: l})
	log.SetFlags(0)
}

type stdLogWriter struct {
	logger *Logger
}

func (w *stdLogWriter) Write(p []byte) (n int, err error) {
	msg := strings.TrimSpace(string(p))
	w.logger.Info("%s", msg)
	return len(p), nil
}
