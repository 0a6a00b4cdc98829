package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level represents the logging level.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

var levelColors = map[Level]string{
	DEBUG: "\033[36m", // Cyan
	INFO:  "\033[32m", // Green
	WARN:  "\033[33m", // Yellow
	ERROR: "\033[31m", // Red
}

const colorReset = "\033[0m"

// Logger writes leveled diagnostics. Reports go to stdout, so the default
// destination is stderr.
type Logger struct {
	mu          sync.Mutex
	level       Level
	out         *log.Logger
	colorEnable bool
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Init initializes the default logger with the specified level.
// Calls after the first one are no-ops; use SetLevel to change the level.
func Init(levelStr string) {
	once.Do(func() {
		defaultLogger = &Logger{
			level:       ParseLevel(levelStr),
			out:         log.New(os.Stderr, "", log.LstdFlags),
			colorEnable: true,
		}
	})
}

func std() *Logger {
	if defaultLogger == nil {
		Init("info")
	}
	return defaultLogger
}

// SetLevel sets the logging level for the default logger.
func SetLevel(levelStr string) {
	l := std()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = ParseLevel(levelStr)
}

// SetOutput sets the output destination for the default logger.
func SetOutput(w io.Writer) {
	l := std()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.SetOutput(w)
}

// SetColorEnable enables or disables color output.
func SetColorEnable(enable bool) {
	l := std()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.colorEnable = enable
}

// ParseLevel converts a string to a Level. Unknown strings map to INFO.
func ParseLevel(levelStr string) Level {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// String returns the upper-case name of the level.
func (lv Level) String() string {
	if name, ok := levelNames[lv]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(lv))
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	message := fmt.Sprintf(format, args...)
	if l.colorEnable {
		l.out.Printf("%s[%s]%s %s", levelColors[level], level, colorReset, message)
		return
	}
	l.out.Printf("[%s] %s", level, message)
}

// Debug logs a debug message.
func Debug(format string, args ...interface{}) {
	std().log(DEBUG, format, args...)
}

// Info logs an info message.
func Info(format string, args ...interface{}) {
	std().log(INFO, format, args...)
}

// Warn logs a warning message.
func Warn(format string, args ...interface{}) {
	std().log(WARN, format, args...)
}

// Error logs an error message.
func Error(format string, args ...interface{}) {
	std().log(ERROR, format, args...)
}
