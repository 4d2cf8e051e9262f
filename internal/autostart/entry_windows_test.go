//go:build windows

package autostart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartupCmdQuotesArgs(t *testing.T) {
	got := startupCmd([]string{`C:\Program Files\clipdeck\clipdeck.exe`, "serve"})
	assert.Equal(t, "@echo off\r\nstart \"\" /b \"C:\\Program Files\\clipdeck\\clipdeck.exe\" \"serve\"\r\n", got)
}
