//go:build !windows

package autostart

import (
	"runtime"

	goautostart "github.com/emersion/go-autostart"
)

func platformItem(argv []string) (Item, error) {
	name := "clipdeck"
	if runtime.GOOS == "darwin" {
		// LaunchAgents are keyed by a reverse-DNS label.
		name = "dev.clipdeck.daemon"
	}
	return &goautostart.App{
		Name:        name,
		DisplayName: "clipdeck clipboard history",
		Exec:        argv,
	}, nil
}
