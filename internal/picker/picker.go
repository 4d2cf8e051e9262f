// Package picker opens the platform's native file dialog.
package picker

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ncruces/zenity"

	"github.com/jakebf/clipdeck/internal/service"
)

// Title is shown in the dialog's title bar.
const Title = "Select an application to ignore"

// Picker shows a file dialog and returns the chosen path.
type Picker struct {
	dialog func(ctx context.Context) (string, error)
}

// New returns a picker backed by the native dialog of the current platform.
func New() *Picker {
	return &Picker{dialog: nativeDialog}
}

// NewCommand returns a picker that runs argv instead. The command prints the
// chosen path on stdout and exits 1 when dismissed.
func NewCommand(argv []string) *Picker {
	return &Picker{dialog: func(ctx context.Context) (string, error) { return run(ctx, argv) }}
}

// Pick shows the dialog and returns the chosen absolute path. A dismissed
// dialog returns service.ErrCancelled.
func (p *Picker) Pick(ctx context.Context) (string, error) {
	path, err := p.dialog(ctx)
	if errors.Is(err, zenity.ErrCanceled) {
		return "", service.ErrCancelled
	}
	if err != nil {
		return "", err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return "", service.ErrCancelled
	}
	return path, nil
}

func nativeDialog(ctx context.Context) (string, error) {
	path, err := zenity.SelectFile(zenity.Title(Title), zenity.Context(ctx))
	if err != nil && !errors.Is(err, zenity.ErrCanceled) {
		return "", fmt.Errorf("file dialog: %w", err)
	}
	return path, err
}

func run(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", errors.New("empty picker command")
	}
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return "", zenity.ErrCanceled
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", argv[0], err)
	}
	return string(out), nil
}
