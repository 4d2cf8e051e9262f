//go:build windows

package autostart

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// go-autostart builds its Windows shortcut through cgo, so the Startup folder
// gets a plain .cmd launcher instead.
func platformItem(argv []string) (Item, error) {
	appData := os.Getenv("APPDATA")
	if appData == "" {
		return nil, errors.New("APPDATA not set")
	}
	return FileEntry{
		Path:   filepath.Join(appData, "Microsoft", "Windows", "Start Menu", "Programs", "Startup", "clipdeck.cmd"),
		Render: startupCmd,
		Argv:   argv,
	}, nil
}

func startupCmd(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = `"` + a + `"`
	}
	return "@echo off\r\nstart \"\" /b " + strings.Join(quoted, " ") + "\r\n"
}
