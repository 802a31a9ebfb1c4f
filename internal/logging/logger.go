// Package logging collects diagnostics from the compiler stages and prints
// them to the terminal.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/hassan/ccompiler/internal/diag"
)

// Enumeration of the log levels
const (
	LevelSilent  = iota // no output at all
	LevelError          // errors and the closing message
	LevelWarning        // errors, warnings and the closing message
	LevelVerbose        // everything, including the stage summary (default)
)

// ParseLevel maps a level name to its value. Unknown names fall back to
// verbose.
func ParseLevel(name string) int {
	switch name {
	case "silent":
		return LevelSilent
	case "error":
		return LevelError
	case "warning":
		return LevelWarning
	default:
		return LevelVerbose
	}
}

type report struct {
	file string
	d    diag.Diagnostic
}

// Logger stores and prints the output of a compilation. It is safe for
// concurrent use by several builds.
type Logger struct {
	level      int
	out        io.Writer
	errorCount int

	// warnings are held back and printed by Finish
	warnings []report

	// m synchronizes printing so messages from concurrent builds don't
	// interleave
	m *sync.Mutex
}

// New creates a logger writing to out at the named level. A nil out means
// standard output.
func New(out io.Writer, level string) *Logger {
	if out == nil {
		out = os.Stdout
	}
	return &Logger{
		level: ParseLevel(level),
		out:   out,
		m:     &sync.Mutex{},
	}
}

// Report logs one diagnostic produced while compiling file. Errors are
// printed immediately, warnings when Finish is called.
func (l *Logger) Report(file string, d diag.Diagnostic) {
	l.m.Lock()
	defer l.m.Unlock()

	if d.IsError() {
		l.errorCount++
		if l.level > LevelSilent {
			l.displayDiagnostic(file, d)
		}
	} else {
		l.warnings = append(l.warnings, report{file, d})
	}
}

// ReportAll logs every diagnostic in ds.
func (l *Logger) ReportAll(file string, ds diag.List) {
	for _, d := range ds {
		l.Report(file, d)
	}
}

// ErrorCount returns the number of errors reported so far.
func (l *Logger) ErrorCount() int {
	l.m.Lock()
	defer l.m.Unlock()
	return l.errorCount
}

// WarningCount returns the number of warnings reported so far.
func (l *Logger) WarningCount() int {
	l.m.Lock()
	defer l.m.Unlock()
	return len(l.warnings)
}

// ShouldProceed reports whether no errors have been logged.
func (l *Logger) ShouldProceed() bool {
	return l.ErrorCount() == 0
}

// Error logs a Go error that is not tied to a source position, such as a
// missing input file.
func (l *Logger) Error(tag string, err error) {
	l.m.Lock()
	defer l.m.Unlock()

	l.errorCount++
	if l.level > LevelSilent {
		l.displayError(tag, err)
	}
}

// Info prints an informational message at verbose level.
func (l *Logger) Info(tag, msg string) {
	l.m.Lock()
	defer l.m.Unlock()

	if l.level == LevelVerbose {
		l.displayInfo(tag, msg)
	}
}

// Header prints the compiler version and target.
func (l *Logger) Header(version, target string) {
	l.m.Lock()
	defer l.m.Unlock()

	if l.level == LevelVerbose {
		l.displayHeader(version, target)
	}
}

// Stage prints the outcome of one pipeline stage. detail is appended after
// the stage name, e.g. a token count.
func (l *Logger) Stage(name string, ok bool, detail string) {
	l.m.Lock()
	defer l.m.Unlock()

	if l.level == LevelVerbose {
		l.displayStage(name, ok, detail)
	}
}

// Table prints rows under a header line at verbose level.
func (l *Logger) Table(header []string, rows [][]string) {
	l.m.Lock()
	defer l.m.Unlock()

	if l.level == LevelVerbose {
		l.displayTable(header, rows)
	}
}

// Finish prints the held back warnings and the closing message. It returns
// true if no errors were reported.
func (l *Logger) Finish() bool {
	l.m.Lock()
	defer l.m.Unlock()

	if l.level >= LevelWarning {
		for _, w := range l.warnings {
			l.displayDiagnostic(w.file, w.d)
		}
	}
	if l.level > LevelSilent {
		l.displayFinished(l.errorCount == 0, l.errorCount, len(l.warnings))
	}
	return l.errorCount == 0
}
