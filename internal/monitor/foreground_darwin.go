//go:build darwin

package monitor

import (
	"os/exec"
	"strings"
)

// ForegroundApp returns the name of the frontmost application.
func ForegroundApp() string {
	out, err := exec.Command("osascript", "-e",
		`tell application "System Events" to get name of first application process whose frontmost is true`).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
