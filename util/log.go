package util

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mattn/go-isatty"
)

// Level is a logging verbosity level, gating Debug output behind --verbose.
type Level int

const (
	LevelInfo Level = iota
	LevelDebug
)

var (
	stdout    = os.Stdout
	colorTerm = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	logger    = log.New(stdout, "", 0)
	level     = LevelInfo
)

// SetVerbose switches LevelDebug output on or off. Called once at CLI
// startup from the --verbose flag.
func SetVerbose(verbose bool) {
	if verbose {
		level = LevelDebug
	} else {
		level = LevelInfo
	}
}

// SetOutput redirects log output, for tests.
func SetOutput(w io.Writer) {
	logger = log.New(w, "", 0)
}

const (
	colorYellow = "\x1b[33m"
	colorRed    = "\x1b[31m"
	colorReset  = "\x1b[0m"
)

func colorize(code, msg string) string {
	if !colorTerm {
		return msg
	}
	return code + msg + colorReset
}

// Info logs an always-visible informational message.
func Info(format string, args ...interface{}) {
	logger.Printf(format, args...)
}

// Debug logs a message only when verbose mode is enabled.
func Debug(format string, args ...interface{}) {
	if level < LevelDebug {
		return
	}
	logger.Printf(format, args...)
}

// Warn logs an operator-visible warning, e.g. the accept-any-cert mode
// notice printed at startup.
func Warn(format string, args ...interface{}) {
	logger.Print(colorize(colorYellow, fmt.Sprintf("warning: "+format, args...)))
}

// Error logs a failure about to be surfaced as a non-zero exit.
func Error(format string, args ...interface{}) {
	logger.Print(colorize(colorRed, fmt.Sprintf("error: "+format, args...)))
}
