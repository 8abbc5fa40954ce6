package rp

import (
	"log"
	"time"

	"github.com/fatih/color"
)

type Logger interface {
	LogMessage(msg string)
	LogStageStart(name string, in any)
	LogStageComplete(success bool, elapsed time.Duration, name string, out any)
	LogStageError(e *StageError)
}

// DefaultLogger prints one colored line per completed stage through the standard logger.
type DefaultLogger struct{}

func (l DefaultLogger) LogMessage(msg string) {
	log.Print(msg)
}

func (l DefaultLogger) LogStageStart(name string, in any) {
	// Ignore
}

func (l DefaultLogger) LogStageComplete(success bool, elapsed time.Duration, name string, out any) {

	// Column 1: Success or failure
	lbl := color.New(color.FgWhite).Add(color.BgGreen).Sprintf(" OK  ")
	if !success {
		lbl = color.New(color.FgWhite).Add(color.BgRed).Sprintf(" ERR ")
	}

	// Column 2: Time elapsed
	tclr := color.New(color.FgWhite, color.Faint)
	if elapsed > time.Millisecond {
		tclr = color.New(color.FgWhite).Add(color.BgCyan)
	}
	took := tclr.Sprintf("%13v", elapsed)

	// Column 3: Stage name
	log.Print("|" + lbl + "| " + took + " | " + name)
}

func (l DefaultLogger) LogStageError(e *StageError) {
	if obj, ok := e.Obj.(H); ok {
		log.Printf("Error %d: %v", e.Code, obj["error"])
		return
	}
	log.Printf("Error %d", e.Code)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) LogMessage(string) {}
func (NopLogger) LogStageStart(string, any) {}
func (NopLogger) LogStageComplete(bool, time.Duration, string, any) {}
func (NopLogger) LogStageError(*StageError) {}
