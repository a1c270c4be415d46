// Package ui holds the terminal presentation shared by the spinoff and
// safecompose commands: leveled log lines, the run summary and the change tree.
package ui

import (
	"fmt"
	"io"
	"log"
)

// Logger writes timestamped, leveled lines. A nil *Logger discards everything,
// so components can take one optionally.
type Logger struct {
	l *log.Logger
}

func NewLogger(w io.Writer) *Logger {
	return &Logger{l: log.New(w, "", log.Ltime)}
}

// Discard returns a logger that writes nowhere.
func Discard() *Logger {
	return NewLogger(io.Discard)
}

func (l *Logger) Infof(format string, args ...any) {
	l.print(infoTag.Render("INFO"), format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.print(warnTag.Render("WARN"), format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.print(errorTag.Render("ERROR"), format, args...)
}

// Stepf reports a completed step.
func (l *Logger) Stepf(format string, args ...any) {
	l.print(stepTag.Render("✓"), format, args...)
}

// Stagef marks the start of a lifecycle stage.
func (l *Logger) Stagef(format string, args ...any) {
	if l == nil {
		return
	}
	l.l.Print(stageStyle.Render("=== " + fmt.Sprintf(format, args...) + " ==="))
}

func (l *Logger) print(tag, format string, args ...any) {
	if l == nil {
		return
	}
	l.l.Print(tag + " " + fmt.Sprintf(format, args...))
}
