// clipdeck: clipboard history in the terminal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jakebf/clipdeck/internal/logging"
	"github.com/jakebf/clipdeck/internal/rpc"
	"github.com/jakebf/clipdeck/internal/service"
)

var version = ""

func getVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	root := newRootCmd()
	root.AddCommand(
		newServeCmd(),
		newSettingsCmd(),
		newCopyCmd(),
		newListCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "clipdeck",
		Short: "Clipboard history in the terminal",
		Long: `clipdeck keeps a searchable history of everything you copy.

Run "clipdeck serve" once (or enable "Start at login" in settings) to start
the background daemon, then run "clipdeck" to browse, pin and paste clips.

Config file search order (first found wins):
  /etc/clipdeck/clipdeck.toml
  $XDG_CONFIG_HOME/clipdeck/clipdeck.toml
  path supplied via --config

All flags can be set via CLIPDECK_<FLAG> env vars, a clipdeck.env file next
to the config file, or config-file keys.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PreRunE:      func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:         func(cmd *cobra.Command, _ []string) error { return runHistoryUI(cmd, v) },
	}

	cmd.Flags().Bool("demo", false, "launch with demo data (no daemon needed)")
	addCommonFlags(cmd)
	return cmd
}

func newSettingsCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "settings",
		Short:   "Open the settings window",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runSettingsUI(v) },
	}

	cmd.Flags().Bool("demo", false, "edit demo settings (no daemon needed)")
	addCommonFlags(cmd)
	return cmd
}

// setupUILogging points slog at the log file so nothing is written over the
// terminal UI. The returned func closes the file.
func setupUILogging(o options) func() {
	if o.LogFile == "" {
		logging.Discard()
		return func() {}
	}
	f, err := logging.SetupFile(o.LogFile, logging.ParseLevel(o.LogLevel))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		logging.Discard()
		return func() {}
	}
	return func() { f.Close() }
}

// settingsArgv is the command line the history UI runs to open settings.
func settingsArgv(cmd *cobra.Command, o options) []string {
	exe, err := os.Executable()
	if err != nil {
		slog.Warn("cannot locate executable; settings disabled", "err", err)
		return nil
	}
	argv := []string{exe, "settings", "--socket", o.Socket, "--log-file", o.LogFile}
	if o.LogLevel != "" {
		argv = append(argv, "--log-level", o.LogLevel)
	}
	if c, _ := cmd.Flags().GetString("config"); c != "" {
		argv = append(argv, "--config", c)
	}
	if o.Demo {
		argv = append(argv, "--demo")
	}
	return argv
}

func runHistoryUI(cmd *cobra.Command, v *viper.Viper) error {
	o := readOptions(v)
	closeLog := setupUILogging(o)
	defer closeLog()

	var (
		svc    service.Backend
		events eventStream
	)
	if o.Demo {
		svc = newMemService(demoClips())
	} else {
		client := rpc.Dial(o.Socket)
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		err := client.Ping(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("%w\nStart the daemon with: clipdeck serve (or try clipdeck --demo)", err)
		}
		sub, err := client.Subscribe(context.Background())
		if err != nil {
			slog.Warn("live refresh disabled", "err", err)
		} else {
			defer sub.Close()
			events = sub
		}
		svc = client
	}

	m := newModel(svc, events, settingsArgv(cmd, o))
	m.demo = o.Demo
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("history ui: %w", err)
	}
	return nil
}

func runSettingsUI(v *viper.Viper) error {
	o := readOptions(v)
	closeLog := setupUILogging(o)
	defer closeLog()

	var svc service.Service
	if o.Demo {
		svc = newMemService(demoClips())
	} else {
		svc = rpc.Dial(o.Socket)
	}

	p := tea.NewProgram(newSettingsModel(svc), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("settings ui: %w", err)
	}
	if sm, ok := final.(settingsModel); ok && sm.result != nil && sm.result.ShortcutErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: settings saved, but the shortcut was not registered: %v\n", sm.result.ShortcutErr)
	}
	return nil
}
