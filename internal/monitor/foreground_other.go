//go:build !linux && !darwin && !windows

package monitor

// ForegroundApp is unsupported on this platform.
func ForegroundApp() string { return "" }
