package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"

	"github.com/fatih/color"
	"gopkg.in/natefinch/lumberjack.v2"
)

const queueSize = 1000

type Options struct {
	Debug bool
	// File is the rotated log file. Empty disables file output.
	File string
}

type level int

const (
	levelInfo level = iota
	levelWarn
	levelError
	levelFatal
	levelDebug
)

var (
	consoleLoggers map[level]*log.Logger
	fileLoggers    map[level]*log.Logger
	fileOutput     *lumberjack.Logger

	debugMode atomic.Bool

	// mu guards the queue lifecycle; senders hold it for reading.
	mu       sync.RWMutex
	logQueue chan logEntry
	running  bool
	wg       sync.WaitGroup
)

type logEntry struct {
	level   level
	message string
}

func init() {
	consoleLoggers = newConsoleLoggers(log.Ldate | log.Ltime)
}

// Init starts the asynchronous writer. Messages logged before Init, or after
// Close, are written synchronously to the console.
func Init(opts Options) {
	mu.Lock()
	defer mu.Unlock()
	if running {
		return
	}

	debugMode.Store(opts.Debug)
	initializeLoggers(opts.File)

	logQueue = make(chan logEntry, queueSize)
	running = true
	wg.Add(1)
	go processLogQueue(logQueue)
}

func initializeLoggers(logFile string) {
	logFlags := log.Ldate | log.Ltime
	if debugMode.Load() {
		logFlags |= log.Lmicroseconds
	}

	consoleLoggers = newConsoleLoggers(logFlags)

	fileLoggers = nil
	fileOutput = nil
	if logFile == "" {
		return
	}

	// File logger: plain text, no colors
	fileOutput = &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	fileLoggers = map[level]*log.Logger{
		levelInfo:  log.New(fileOutput, "INFO:  ", logFlags),
		levelWarn:  log.New(fileOutput, "WARN:  ", logFlags),
		levelError: log.New(fileOutput, "ERROR: ", logFlags),
		levelFatal: log.New(fileOutput, "FATAL: ", logFlags),
		levelDebug: log.New(fileOutput, "DEBUG: ", logFlags),
	}
}

func newConsoleLoggers(logFlags int) map[level]*log.Logger {
	prefix := func(c color.Attribute, label string) string {
		return color.New(c).Sprint(label)
	}
	return map[level]*log.Logger{
		levelInfo:  log.New(os.Stdout, prefix(color.FgGreen, "INFO:  "), logFlags),
		levelWarn:  log.New(os.Stdout, prefix(color.FgYellow, "WARN:  "), logFlags),
		levelError: log.New(os.Stderr, prefix(color.FgRed, "ERROR: "), logFlags),
		levelFatal: log.New(os.Stderr, prefix(color.FgRed, "FATAL: "), logFlags),
		levelDebug: log.New(os.Stdout, prefix(color.FgBlue, "DEBUG: "), logFlags),
	}
}

func processLogQueue(queue <-chan logEntry) {
	defer wg.Done()
	for entry := range queue {
		write(entry)
	}
}

func write(entry logEntry) {
	if entry.level == levelDebug && !debugMode.Load() {
		return
	}
	if l, ok := consoleLoggers[entry.level]; ok {
		l.Println(entry.message)
	}
	if l, ok := fileLoggers[entry.level]; ok {
		l.Println(entry.message)
	}
}

func emit(lvl level, message string) {
	mu.RLock()
	defer mu.RUnlock()
	if running {
		logQueue <- logEntry{level: lvl, message: message}
		return
	}
	write(logEntry{level: lvl, message: message})
}

func Info(message string) {
	emit(levelInfo, message)
}

func Warn(message string) {
	emit(levelWarn, message)
}

func Error(message string) {
	emit(levelError, message)
}

// Fatal drains pending messages, logs message and exits with status 1.
func Fatal(message string) {
	shutdown(&logEntry{level: levelFatal, message: message})
	os.Exit(1)
}

func Debug(message string) {
	if debugMode.Load() {
		emit(levelDebug, message)
	}
}

func Infof(format string, v ...interface{}) {
	emit(levelInfo, fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...interface{}) {
	emit(levelWarn, fmt.Sprintf(format, v...))
}

func Errorf(format string, v ...interface{}) {
	emit(levelError, fmt.Sprintf(format, v...))
}

func Fatalf(format string, v ...interface{}) {
	Fatal(fmt.Sprintf(format, v...))
}

func Debugf(format string, v ...interface{}) {
	if debugMode.Load() {
		emit(levelDebug, fmt.Sprintf(format, v...))
	}
}

func StructuredInfo(fields map[string]interface{}) {
	jsonLog, _ := json.Marshal(fields)
	Info(string(jsonLog))
}

type requestIDKey struct{}

// WithRequestID attaches a request id that InfoWithContext prefixes to messages.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func InfoWithContext(ctx context.Context, message string) {
	if requestID, ok := ctx.Value(requestIDKey{}).(string); ok && requestID != "" {
		Infof("[RequestID: %s] %s", requestID, message)
		return
	}
	Info(message)
}

func SetDebugMode(debug bool) {
	debugMode.Store(debug)
}

func IsDebug() bool {
	return debugMode.Load()
}

// Close stops the writer goroutine after draining the queue and releases the
// log file. It is safe to call more than once.
func Close() {
	shutdown(nil)
}

func shutdown(final *logEntry) {
	mu.Lock()
	wasRunning := running
	if running {
		running = false
		close(logQueue)
	}
	mu.Unlock()

	if wasRunning {
		wg.Wait()
	}

	mu.Lock()
	defer mu.Unlock()
	if final != nil {
		write(*final)
	}
	if fileOutput != nil {
		_ = fileOutput.Close()
		fileOutput = nil
	}
	fileLoggers = nil
}

// SetOutput redirects console output; used by tests to keep output quiet.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	for _, l := range consoleLoggers {
		l.SetOutput(w)
	}
}
