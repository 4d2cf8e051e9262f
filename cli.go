package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jakebf/clipdeck/internal/rpc"
	"github.com/jakebf/clipdeck/internal/service"
)

func newCopyCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "copy [text...]",
		Short: "Store text as a clip (like pbcopy)",
		Long: `Stores the arguments, or stdin when there are none, as the newest clip.

The text is recorded in the history only; the system clipboard is not
touched. Text from a source on the ignored list is rejected.`,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, args []string) error { return runCopy(v, args, os.Stdin) },
	}

	cmd.Flags().String("source", "clipdeck-cli", "source application recorded with the clip")
	addCommonFlags(cmd)
	return cmd
}

func runCopy(v *viper.Viper, args []string, stdin io.Reader) error {
	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	client := rpc.Dial(readOptions(v).Socket)
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	if _, err := client.AddClip(ctx, text, v.GetString("source")); err != nil {
		if errors.Is(err, service.ErrIgnoredSource) {
			return fmt.Errorf("%q is an ignored application", v.GetString("source"))
		}
		return fmt.Errorf("copy: %w", err)
	}
	return nil
}

func newListCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "Print clips from the history",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runList(v, os.Stdout) },
	}

	f := cmd.Flags()
	f.String("search", "", "only clips containing this text")
	f.Bool("pinned", false, "only pinned clips")
	f.Int("limit", 20, "maximum number of clips (0 = all)")
	f.Bool("json", false, "output raw JSON")
	addCommonFlags(cmd)
	return cmd
}

func runList(v *viper.Viper, out io.Writer) error {
	client := rpc.Dial(readOptions(v).Socket)
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	clips, err := client.GetClips(ctx, service.ClipQuery{
		Search:     v.GetString("search"),
		PinnedOnly: v.GetBool("pinned"),
		Limit:      v.GetInt("limit"),
	})
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}

	if v.GetBool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(clips)
	}
	printClips(out, clips, time.Now())
	return nil
}

func printClips(out io.Writer, clips []service.Clip, now time.Time) {
	if len(clips) == 0 {
		fmt.Fprintln(out, "No clips.")
		return
	}
	tw := tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "\tAGE\tSOURCE\tTEXT\n")
	for _, c := range clips {
		marker := ""
		if c.Pinned {
			marker = "★"
		}
		source := c.SourceApp
		if source == "" {
			source = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			marker, age(c.CreatedAt, now), source, truncateForWidth(oneLine(c.Preview), 60))
	}
	_ = tw.Flush()
}

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "status",
		Short:   "Show daemon status",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runStatus(v, os.Stdout) },
	}

	cmd.Flags().Bool("json", false, "output raw JSON")
	addCommonFlags(cmd)
	return cmd
}

type statusReport struct {
	Socket      string   `json:"socket"`
	DataDir     string   `json:"data_dir"`
	Clips       int      `json:"clips"`
	Hotkey      string   `json:"hotkey"`
	Theme       string   `json:"theme"`
	MaxItems    int      `json:"max_items"`
	AutoDelete  string   `json:"auto_delete"`
	Startup     bool     `json:"start_at_login"`
	IgnoredApps []string `json:"ignored_apps"`
}

func collectStatus(ctx context.Context, svc service.Service, o options) (statusReport, error) {
	r := statusReport{Socket: o.Socket, DataDir: o.DataDir}
	s, err := svc.GetSettings(ctx)
	if err != nil {
		return r, err
	}
	r.Hotkey = s.Hotkey
	r.Theme = s.Theme
	r.MaxItems = s.MaxItems
	r.AutoDelete = service.AutoDeleteLabel(s.AutoDeleteDays)
	r.Startup = s.StartupWithWindows
	if r.Clips, err = svc.GetClipboardHistorySize(ctx); err != nil {
		return r, err
	}
	if r.IgnoredApps, err = svc.GetIgnoredApps(ctx); err != nil {
		return r, err
	}
	return r, nil
}

func runStatus(v *viper.Viper, out io.Writer) error {
	o := readOptions(v)
	client := rpc.Dial(o.Socket)
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	r, err := collectStatus(ctx, client, o)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	if v.GetBool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	printStatus(out, r)
	return nil
}

func printStatus(out io.Writer, r statusReport) {
	hotkey := r.Hotkey
	if hotkey == "" {
		hotkey = "none"
	}
	startup := "off"
	if r.Startup {
		startup = "on"
	}
	ignored := "none"
	if len(r.IgnoredApps) > 0 {
		ignored = strings.Join(r.IgnoredApps, ", ")
	}

	w := tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Socket:\t%s\n", contractHome(r.Socket))
	fmt.Fprintf(w, "Data:\t%s\n", contractHome(r.DataDir))
	fmt.Fprintf(w, "Clips:\t%d (max %d, auto-delete %s)\n", r.Clips, r.MaxItems, strings.ToLower(r.AutoDelete))
	fmt.Fprintf(w, "Shortcut:\t%s\n", hotkey)
	fmt.Fprintf(w, "Theme:\t%s\n", r.Theme)
	fmt.Fprintf(w, "Start at login:\t%s\n", startup)
	fmt.Fprintf(w, "Ignored apps:\t%s\n", ignored)
	_ = w.Flush()
}
