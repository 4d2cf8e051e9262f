package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jakebf/clipdeck/internal/autostart"
	"github.com/jakebf/clipdeck/internal/daemon"
	"github.com/jakebf/clipdeck/internal/history"
	"github.com/jakebf/clipdeck/internal/hotkey"
	"github.com/jakebf/clipdeck/internal/lock"
	"github.com/jakebf/clipdeck/internal/logging"
	"github.com/jakebf/clipdeck/internal/monitor"
	"github.com/jakebf/clipdeck/internal/picker"
	"github.com/jakebf/clipdeck/internal/rpc"
	"github.com/jakebf/clipdeck/internal/settings"
	"github.com/jakebf/clipdeck/internal/shortcut"
)

func newServeCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the clipboard history daemon",
		Long: `Runs the background daemon that records the clipboard, stores settings
and history, and answers the clipdeck UIs over a local socket.

Only one daemon runs per data directory.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runServe(v) },
	}

	addCommonFlags(cmd)
	addServeFlags(cmd)
	return cmd
}

func runServe(v *viper.Viper) error {
	o := readOptions(v)
	logging.Setup(logging.ParseFormat(o.LogFormat), logging.ParseLevel(o.LogLevel))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	l, err := lock.Acquire(filepath.Join(o.DataDir, "clipdeck.lock"))
	if err != nil {
		if errors.Is(err, lock.ErrHeld) {
			return fmt.Errorf("%w; stop it first or use another --data-dir", err)
		}
		return err
	}
	defer l.Release()

	store, err := settings.Open(filepath.Join(o.DataDir, settings.FileName))
	if err != nil {
		return err
	}
	db, err := history.Open(filepath.Join(o.DataDir, history.FileName))
	if err != nil {
		return err
	}
	defer db.Close()

	var d *daemon.Daemon
	binder, err := shortcut.NewSystemBinder(ctx, func(c hotkey.Combo) { d.ShortcutPressed(c) })
	if err != nil {
		slog.Warn("global shortcut will be recorded but not bound", "err", err)
		binder = nil
	}
	shortcuts := shortcut.NewRegistry(binder, o.Reserved)
	defer shortcuts.Release()

	mon := monitor.New(nil)
	if o.PollInterval > 0 {
		mon.Interval = o.PollInterval
	}

	hub := rpc.NewHub()
	opts := daemon.Options{
		Settings:       store,
		History:        db,
		Shortcuts:      shortcuts,
		Notifier:       hub,
		WriteClipboard: clipboard.WriteAll,
		Monitor:        mon,
	}
	if len(o.Picker) > 0 {
		opts.Picker = picker.NewCommand(o.Picker)
	} else {
		opts.Picker = picker.New()
	}
	if exe, err := os.Executable(); err == nil {
		if am, err := autostart.New([]string{exe, "serve"}); err == nil {
			opts.Autostart = am
		} else {
			slog.Warn("start at login unavailable", "err", err)
		}
	}

	d = daemon.New(opts)
	d.Start(ctx)

	ln, err := rpc.Listen(o.Socket)
	if err != nil {
		return err
	}
	srv := rpc.NewServer(d, hub)

	go func() {
		if err := d.Run(ctx); err != nil {
			slog.Error("daemon stopped", "err", err)
			cancel()
		}
	}()

	slog.Info("clipdeck daemon started",
		"version", getVersion(),
		"socket", o.Socket,
		"data_dir", o.DataDir,
		"hotkey", shortcuts.Current(),
	)
	if err := srv.Serve(ctx, ln); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	os.Remove(o.Socket)
	slog.Info("clipdeck daemon stopped")
	return nil
}
