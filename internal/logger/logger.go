package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorPurple = "\033[35m"
)

// Log levels
const (
	LevelError = iota
	LevelWarning
	LevelInfo
	LevelDebug
)

const flags = log.Ldate | log.Ltime | log.Lshortfile

var (
	Info    *log.Logger
	Debug   *log.Logger
	Warning *log.Logger
	Error   *log.Logger

	// Control overall logging level
	LogLevel = LevelInfo

	useColors = true

	// last writers passed to Initialize, reused when colors are toggled
	outputs [4]io.Writer
)

// Initialize sets up the loggers with the specified output.
// Nil writers default to stdout, and stderr for errors.
func Initialize(infoHandle, debugHandle, warningHandle, errorHandle io.Writer) {
	if infoHandle == nil {
		infoHandle = os.Stdout
	}
	if debugHandle == nil {
		debugHandle = os.Stdout
	}
	if warningHandle == nil {
		warningHandle = os.Stdout
	}
	if errorHandle == nil {
		errorHandle = os.Stderr
	}
	outputs = [4]io.Writer{infoHandle, debugHandle, warningHandle, errorHandle}

	Info = log.New(infoHandle, prefix("INFO", colorBlue), flags)
	Debug = log.New(debugHandle, prefix("DEBUG", colorPurple), flags)
	Warning = log.New(warningHandle, prefix("WARNING", colorYellow), flags)
	Error = log.New(errorHandle, prefix("ERROR", colorRed), flags)
}

// SetOutput sends every level to w
func SetOutput(w io.Writer) {
	Initialize(w, w, w, w)
}

func prefix(label, color string) string {
	if useColors {
		return color + label + ": " + colorReset
	}
	return label + ": "
}

// EnableColors enables colored output
func EnableColors() {
	useColors = true
	Initialize(outputs[0], outputs[1], outputs[2], outputs[3])
}

// DisableColors disables colored output
func DisableColors() {
	useColors = false
	Initialize(outputs[0], outputs[1], outputs[2], outputs[3])
}

// SetLevel sets the logging level
func SetLevel(level int) {
	if level >= LevelError && level <= LevelDebug {
		LogLevel = level
	}
}

// ParseLevel maps a level name such as "debug" or "warn" to its constant
func ParseLevel(name string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "error":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarning, nil
	case "", "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", name)
}

func Infof(format string, v ...interface{}) {
	if LogLevel >= LevelInfo {
		Info.Output(2, fmt.Sprintf(format, v...))
	}
}

func Debugf(format string, v ...interface{}) {
	if LogLevel >= LevelDebug {
		Debug.Output(2, fmt.Sprintf(format, v...))
	}
}

func Warningf(format string, v ...interface{}) {
	if LogLevel >= LevelWarning {
		Warning.Output(2, fmt.Sprintf(format, v...))
	}
}

func Errorf(format string, v ...interface{}) {
	if LogLevel >= LevelError {
		Error.Output(2, fmt.Sprintf(format, v...))
	}
}

func init() {
	Initialize(nil, nil, nil, nil)
}
