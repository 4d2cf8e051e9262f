//go:build linux

package monitor

import (
	"os"
	"os/exec"
	"strings"
)

// ForegroundApp returns the process name of the focused X11 window via
// xdotool. It returns "" under Wayland or when xdotool is missing.
func ForegroundApp() string {
	out, err := exec.Command("xdotool", "getactivewindow", "getwindowpid").Output()
	if err != nil {
		return ""
	}
	pid := strings.TrimSpace(string(out))
	if pid == "" {
		return ""
	}
	comm, err := os.ReadFile("/proc/" + pid + "/comm")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(comm))
}
