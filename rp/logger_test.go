package rp

import (
	"bytes"
	"log"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	prev, noColor := log.Writer(), color.NoColor
	log.SetOutput(&buf)
	color.NoColor = true
	defer func() {
		log.SetOutput(prev)
		color.NoColor = noColor
	}()

	lgr := DefaultLogger{}
	lgr.LogStageComplete(true, 2*time.Microsecond, "  => Wishlists.FindByID =>", nil)
	lgr.LogStageComplete(false, 3*time.Millisecond, "  => Wishlists.Delete", nil)
	lgr.LogStageError(&StageError{Code: ISR, Obj: H{"error": "connection refused"}})
	lgr.LogStageError(&StageError{Code: NF})

	out := buf.String()
	assert.Contains(t, out, "| OK  |")
	assert.Contains(t, out, "Wishlists.FindByID")
	assert.Contains(t, out, "| ERR |")
	assert.Contains(t, out, "Error 500: connection refused")
	assert.Contains(t, out, "Error 404")
}
