package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jakebf/clipdeck/internal/monitor"
	"github.com/jakebf/clipdeck/internal/rpc"
	"github.com/jakebf/clipdeck/internal/shortcut"
)

// ─── Config ──────────────────────────────────────────────────────────────────

// options is the resolved command-line configuration shared by all
// subcommands. The user's Settings record is not part of it: that lives in
// the daemon's settings.toml.
type options struct {
	Socket       string
	DataDir      string
	LogFormat    string
	LogLevel     string
	LogFile      string
	PollInterval time.Duration
	Reserved     []string
	Picker       []string // empty: native dialog
	Demo         bool
}

func configDirs() []string {
	dirs := []string{"/etc/clipdeck"}
	if runtime.GOOS == "windows" {
		dirs = nil
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return append(dirs, filepath.Join(dir, "clipdeck"))
	}
	if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(dir, "clipdeck"))
	}
	return dirs
}

// findConfigFile returns the first clipdeck.toml found in dirs. Viper's own
// name search would also match clipdeck.env, so only the .toml is looked up.
func findConfigFile(dirs []string) string {
	for _, dir := range dirs {
		path := filepath.Join(dir, "clipdeck.toml")
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// loadEnvFiles loads clipdeck.env from the config directories. Variables
// already set in the environment win.
func loadEnvFiles(dirs []string) error {
	for _, dir := range dirs {
		path := filepath.Join(dir, "clipdeck.env")
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("env file %s: %w", path, err)
		}
	}
	return nil
}

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and CLIPDECK_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → CLIPDECK_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	dirs := configDirs()
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
		dirs = []string{filepath.Dir(configFlag)}
	} else if path := findConfigFile(dirs); path != "" {
		v.SetConfigFile(path)
	}

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	if err := loadEnvFiles(dirs); err != nil {
		return err
	}
	v.SetEnvPrefix("CLIPDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// addCommonFlags adds the flags every subcommand understands.
func addCommonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("socket", rpc.SocketPath(), "daemon socket path")
	f.String("data-dir", defaultDataDir(), "directory holding settings.toml and the history database")
	f.String("log-format", "auto", "log format: auto|text|json")
	f.String("log-level", "", "log level: debug|info|warn|error (default: info)")
	f.String("log-file", defaultLogFile(), "log file for the terminal UIs")
	addConfigFlag(cmd)
}

// addServeFlags adds the daemon-only flags.
func addServeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Duration("poll-interval", monitor.DefaultInterval, "how often the system clipboard is read")
	f.StringSlice("reserved-hotkeys", shortcut.DefaultReserved, "combinations that can never be registered")
	f.String("picker", "", "file dialog command printing the chosen path (default: native dialog)")
}

func readOptions(v *viper.Viper) options {
	o := options{
		Socket:       expandHome(v.GetString("socket")),
		DataDir:      expandHome(v.GetString("data-dir")),
		LogFormat:    v.GetString("log-format"),
		LogLevel:     v.GetString("log-level"),
		LogFile:      expandHome(v.GetString("log-file")),
		PollInterval: v.GetDuration("poll-interval"),
		Reserved:     v.GetStringSlice("reserved-hotkeys"),
		Picker:       splitShellWords(v.GetString("picker")),
		Demo:         v.GetBool("demo"),
	}
	if o.Socket == "" {
		o.Socket = rpc.SocketPath()
	}
	if o.DataDir == "" {
		o.DataDir = defaultDataDir()
	}
	return o
}

func defaultDataDir() string {
	if runtime.GOOS == "linux" {
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return filepath.Join(dir, "clipdeck")
		}
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".local", "share", "clipdeck")
		}
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "clipdeck")
	}
	return ""
}

func defaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "clipdeck", "clipdeck.log")
}

// expandHome expands a leading "~/" to the user's home directory.
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// contractHome replaces the user's home directory prefix with "~/" for display.
func contractHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if rel, ok := strings.CutPrefix(path, home+string(filepath.Separator)); ok {
		return "~/" + rel
	}
	return path
}

// splitShellWords splits a command string into words, honoring single and
// double quotes.
func splitShellWords(s string) []string {
	var words []string
	var cur strings.Builder
	inSingle := false
	inDouble := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'' && !inDouble:
			inSingle = !inSingle
		case c == '"' && !inSingle:
			inDouble = !inDouble
		case c == '\\' && inDouble && i+1 < len(s):
			i++
			cur.WriteByte(s[i])
		case (c == ' ' || c == '\t') && !inSingle && !inDouble:
			if cur.Len() > 0 {
				words = append(words, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	return words
}
