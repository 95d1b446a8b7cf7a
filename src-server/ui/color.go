// Package ui holds the terminal colours shared by the prompt and the report.
package ui

import (
	"github.com/fatih/color"
)

var (
	Success = color.New(color.FgGreen).SprintFunc()
	Error   = color.New(color.FgRed).SprintFunc()
	Warning = color.New(color.FgYellow).SprintFunc()
	Info    = color.New(color.FgCyan).SprintFunc()
	Bold    = color.New(color.Bold).SprintFunc()
	Dim     = color.New(color.Faint).SprintFunc()
	Header  = color.New(color.FgCyan, color.Bold).SprintFunc()
)

const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
	SymbolSkipped = "-"
)

func StatusSuccess(msg string) string {
	return status(Success(SymbolSuccess), msg)
}

func StatusError(msg string) string {
	return status(Error(SymbolError), msg)
}

func StatusWarning(msg string) string {
	return status(Warning(SymbolWarning), msg)
}

func StatusSkipped(msg string) string {
	return status(Dim(SymbolSkipped), msg)
}

func status(symbol, msg string) string {
	if msg == "" {
		return symbol
	}
	return symbol + " " + msg
}

// DisableColors is used for --no-color and when output is piped.
func DisableColors() {
	color.NoColor = true
}
