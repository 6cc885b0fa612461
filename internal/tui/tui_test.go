package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatSize(512))
	assert.Equal(t, "1.0 KiB", FormatSize(1024))
	assert.Equal(t, "9.6 MiB", FormatSize(10066330))
	assert.Equal(t, "unknown size", FormatSize(-1))
}

func TestProgressBar(t *testing.T) {
	var out bytes.Buffer
	p := NewProgressBar(&out, "Downloading")

	p.Finish()
	assert.Empty(t, out.String())

	p.Update(512, 1024)
	p.Update(1024, 1024)
	p.Finish()

	assert.Contains(t, out.String(), "Downloading")
	assert.Contains(t, out.String(), "100%")
}
