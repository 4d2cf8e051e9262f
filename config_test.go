package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	tests := []struct {
		in, want string
	}{
		{"~/foo", filepath.Join(home, "foo")},
		{"~/.local/share/clipdeck", filepath.Join(home, ".local/share/clipdeck")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"~", "~"}, // no slash after ~, not expanded
	}
	for _, tt := range tests {
		got := expandHome(tt.in)
		if got != tt.want {
			t.Errorf("expandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContractHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	if got := contractHome(filepath.Join(home, "clips", "db")); got != "~/"+filepath.Join("clips", "db") {
		t.Errorf("contractHome = %q", got)
	}
	if got := contractHome("/elsewhere"); got != "/elsewhere" {
		t.Errorf("contractHome(/elsewhere) = %q", got)
	}
}

func TestSplitShellWords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"zenity", []string{"zenity"}},
		{"zenity --file-selection", []string{"zenity", "--file-selection"}},
		{`bash -c "echo hello"`, []string{"bash", "-c", "echo hello"}},
		{`kdialog '--getopenfilename' '/opt/my apps'`, []string{"kdialog", "--getopenfilename", "/opt/my apps"}},
		{`cmd "arg with spaces" plain`, []string{"cmd", "arg with spaces", "plain"}},
		{`  spaced  `, []string{"spaced"}},
		{"", nil},
		{`a "b \"c\" d" e`, []string{"a", `b "c" d`, "e"}}, // escaped quotes inside double quotes
	}
	for _, tt := range tests {
		got := splitShellWords(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("splitShellWords(%q) = %v (len %d), want %v (len %d)", tt.in, got, len(got), tt.want, len(tt.want))
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitShellWords(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

// testCmd builds a command carrying the serve flag set and binds it.
func testCmd(t *testing.T, args ...string) *viper.Viper {
	t.Helper()
	v := viper.New()
	cmd := &cobra.Command{Use: "test"}
	addCommonFlags(cmd)
	addServeFlags(cmd)
	cmd.Flags().Bool("demo", false, "")
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if err := bindViper(cmd, v); err != nil {
		t.Fatalf("bindViper: %v", err)
	}
	return v
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// isolateConfig points config discovery at an empty temp dir.
func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("CLIPDECK_SOCKET", "")
	return filepath.Join(dir, "clipdeck")
}

// unsetAfter removes variables that godotenv loaded into the process.
func unsetAfter(t *testing.T, keys ...string) {
	t.Helper()
	t.Cleanup(func() {
		for _, k := range keys {
			os.Unsetenv(k)
		}
	})
}

func TestBindViperDefaults(t *testing.T) {
	isolateConfig(t)
	o := readOptions(testCmd(t))

	if o.LogFormat != "auto" {
		t.Errorf("log format = %q", o.LogFormat)
	}
	if o.Socket == "" || o.DataDir == "" {
		t.Errorf("socket %q, data dir %q should default", o.Socket, o.DataDir)
	}
	if len(o.Reserved) == 0 {
		t.Error("reserved hotkeys should default")
	}
	if o.Picker != nil {
		t.Errorf("picker = %v, want platform default", o.Picker)
	}
	if o.Demo {
		t.Error("demo should default off")
	}
}

func TestBindViperPrecedence(t *testing.T) {
	dir := isolateConfig(t)
	writeFile(t, filepath.Join(dir, "clipdeck.toml"), `
log-level = "debug"
log-format = "text"
data-dir = "/from/config"
poll-interval = "2s"
picker = "zenity --file-selection --title 'Pick an app'"
`)
	t.Setenv("CLIPDECK_LOG_FORMAT", "json")

	o := readOptions(testCmd(t, "--data-dir", "/from/flag"))

	if o.LogLevel != "debug" {
		t.Errorf("log level = %q, want config value", o.LogLevel)
	}
	if o.LogFormat != "json" {
		t.Errorf("log format = %q, want env over config", o.LogFormat)
	}
	if o.DataDir != "/from/flag" {
		t.Errorf("data dir = %q, want flag over config", o.DataDir)
	}
	if o.PollInterval != 2*time.Second {
		t.Errorf("poll interval = %s", o.PollInterval)
	}
	want := []string{"zenity", "--file-selection", "--title", "Pick an app"}
	if len(o.Picker) != len(want) {
		t.Fatalf("picker = %q, want %q", o.Picker, want)
	}
	for i := range want {
		if o.Picker[i] != want[i] {
			t.Errorf("picker[%d] = %q, want %q", i, o.Picker[i], want[i])
		}
	}
}

func TestBindViperEnvFile(t *testing.T) {
	dir := isolateConfig(t)
	writeFile(t, filepath.Join(dir, "clipdeck.env"), "CLIPDECK_LOG_LEVEL=warn\nCLIPDECK_DATA_DIR=/from/envfile\n")
	t.Setenv("CLIPDECK_DATA_DIR", "/from/env")
	unsetAfter(t, "CLIPDECK_LOG_LEVEL")

	o := readOptions(testCmd(t))

	if o.LogLevel != "warn" {
		t.Errorf("log level = %q, want value from clipdeck.env", o.LogLevel)
	}
	if o.DataDir != "/from/env" {
		t.Errorf("data dir = %q; the real environment wins over clipdeck.env", o.DataDir)
	}
}

func TestFindConfigFile(t *testing.T) {
	envOnly := t.TempDir()
	writeFile(t, filepath.Join(envOnly, "clipdeck.env"), "CLIPDECK_LOG_LEVEL=warn\n")
	both := t.TempDir()
	writeFile(t, filepath.Join(both, "clipdeck.env"), "CLIPDECK_LOG_LEVEL=warn\n")
	writeFile(t, filepath.Join(both, "clipdeck.toml"), "log-level = \"debug\"\n")

	if got := findConfigFile([]string{envOnly}); got != "" {
		t.Errorf("findConfigFile(env only) = %q, want none", got)
	}
	if got := findConfigFile([]string{envOnly, both}); got != filepath.Join(both, "clipdeck.toml") {
		t.Errorf("findConfigFile = %q", got)
	}
	if got := findConfigFile(nil); got != "" {
		t.Errorf("findConfigFile(nil) = %q", got)
	}
}

func TestBindViperExplicitConfig(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	writeFile(t, path, "socket = \"~/clipdeck.sock\"\nreserved-hotkeys = [\"Ctrl+Q\"]\n")
	writeFile(t, filepath.Join(dir, "clipdeck.env"), "CLIPDECK_LOG_FILE=/tmp/custom.log\n")
	unsetAfter(t, "CLIPDECK_LOG_FILE")

	o := readOptions(testCmd(t, "--config", path))

	home, err := os.UserHomeDir()
	if err == nil && o.Socket != filepath.Join(home, "clipdeck.sock") {
		t.Errorf("socket = %q, want ~ expanded", o.Socket)
	}
	if len(o.Reserved) != 1 || o.Reserved[0] != "Ctrl+Q" {
		t.Errorf("reserved = %v", o.Reserved)
	}
	if o.LogFile != "/tmp/custom.log" {
		t.Errorf("log file = %q, want clipdeck.env next to --config", o.LogFile)
	}
}

func TestBindViperBadConfig(t *testing.T) {
	dir := isolateConfig(t)
	writeFile(t, filepath.Join(dir, "clipdeck.toml"), "log-level = [unterminated\n")

	cmd := &cobra.Command{Use: "test"}
	addCommonFlags(cmd)
	if err := bindViper(cmd, viper.New()); err == nil {
		t.Fatal("expected an error for malformed config")
	}
}
