package surface

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jakebf/clipdeck/internal/service"
)

// CommitResult describes a completed commit.
type CommitResult struct {
	Saved service.Settings
	// ShortcutErr is the registration failure, if any. It never prevents
	// the record from being saved.
	ShortcutErr error
}

// Commit re-registers the draft's hotkey and then persists the draft.
//
// Registration is best effort: a failure is logged and returned in the
// result, and the save is issued regardless. Registration is skipped when
// the draft has no hotkey. Neither request is retried.
func Commit(ctx context.Context, svc service.Service, d Draft) (CommitResult, error) {
	var res CommitResult
	s := d.Settings
	if s.Hotkey != "" {
		if err := svc.RegisterGlobalShortcut(ctx, s.Hotkey); err != nil {
			slog.Warn("global shortcut not registered", "hotkey", s.Hotkey, "err", err)
			res.ShortcutErr = err
		}
	}
	if err := svc.SaveSettings(ctx, s); err != nil {
		slog.Error("save settings", "err", err)
		return res, fmt.Errorf("save settings: %w", err)
	}
	res.Saved = s
	return res, nil
}
