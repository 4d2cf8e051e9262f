package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/jakebf/clipdeck/internal/service"
)

// Client implements service.Backend against a running daemon.
type Client struct {
	baseURL string
	http    *http.Client
	dialer  *websocket.Dialer
}

var _ service.Backend = (*Client)(nil)

// NewClient talks to the daemon at baseURL ("http://host:port") using hc.
// A nil hc uses http.DefaultClient.
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		dialer:  websocket.DefaultDialer,
	}
}

// Dial returns a client for the daemon listening on the Unix socket at path.
func Dial(path string) *Client {
	dial := func(ctx context.Context, _, _ string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "unix", path)
	}
	c := NewClient("http://clipdeck", &http.Client{
		Transport: &http.Transport{DialContext: dial},
	})
	c.dialer = &websocket.Dialer{NetDialContext: dial}
	return c
}

// Ping reports whether the daemon answers.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon not reachable: %w", err)
	}
	resp.Body.Close()
	return nil
}

// invoke calls command with args and decodes the result into out (if non-nil).
func (c *Client) invoke(ctx context.Context, command string, args, out any) error {
	var body bytes.Buffer
	if args != nil {
		if err := json.NewEncoder(&body).Encode(args); err != nil {
			return fmt.Errorf("%s: encode: %w", command, err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/invoke/"+command, &body)
	if err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *ErrorBody      `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%s: decode response (HTTP %d): %w", command, resp.StatusCode, err)
	}
	if envelope.Error != nil {
		return envelope.Error.decodeError()
	}
	if out != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("%s: decode result: %w", command, err)
		}
	}
	return nil
}

func (c *Client) GetSettings(ctx context.Context) (service.Settings, error) {
	var s service.Settings
	err := c.invoke(ctx, CmdGetSettings, nil, &s)
	return s, err
}

func (c *Client) SaveSettings(ctx context.Context, s service.Settings) error {
	return c.invoke(ctx, CmdSaveSettings, settingsArgs{Settings: s}, nil)
}

func (c *Client) RegisterGlobalShortcut(ctx context.Context, hotkey string) error {
	return c.invoke(ctx, CmdRegisterShortcut, hotkeyArgs{Hotkey: hotkey}, nil)
}

func (c *Client) GetClipboardHistorySize(ctx context.Context) (int, error) {
	var n int
	err := c.invoke(ctx, CmdHistorySize, nil, &n)
	return n, err
}

func (c *Client) ClearClipboardHistory(ctx context.Context) error {
	return c.invoke(ctx, CmdClearHistory, nil, nil)
}

func (c *Client) ClearAllClips(ctx context.Context) error {
	return c.invoke(ctx, CmdClearAllClips, nil, nil)
}

func (c *Client) RemoveDuplicateClips(ctx context.Context) (int, error) {
	var n int
	err := c.invoke(ctx, CmdRemoveDuplicates, nil, &n)
	return n, err
}

func (c *Client) GetIgnoredApps(ctx context.Context) ([]string, error) {
	var apps []string
	err := c.invoke(ctx, CmdGetIgnoredApps, nil, &apps)
	return apps, err
}

func (c *Client) AddIgnoredApp(ctx context.Context, name string) error {
	return c.invoke(ctx, CmdAddIgnoredApp, nameArgs{Name: name}, nil)
}

func (c *Client) RemoveIgnoredApp(ctx context.Context, name string) error {
	return c.invoke(ctx, CmdRemoveIgnoredApp, nameArgs{Name: name}, nil)
}

func (c *Client) PickFile(ctx context.Context) (string, error) {
	var path string
	err := c.invoke(ctx, CmdPickFile, nil, &path)
	return path, err
}

func (c *Client) GetClips(ctx context.Context, q service.ClipQuery) ([]service.Clip, error) {
	var clips []service.Clip
	err := c.invoke(ctx, CmdGetClips, queryArgs{Query: q}, &clips)
	return clips, err
}

func (c *Client) AddClip(ctx context.Context, text, source string) (service.Clip, error) {
	var clip service.Clip
	err := c.invoke(ctx, CmdAddClip, addClipArgs{Text: text, Source: source}, &clip)
	return clip, err
}

func (c *Client) PasteClip(ctx context.Context, id string) error {
	return c.invoke(ctx, CmdPasteClip, idArgs{ID: id}, nil)
}

func (c *Client) PinClip(ctx context.Context, id string, pinned bool) error {
	return c.invoke(ctx, CmdPinClip, pinArgs{ID: id, Pinned: pinned}, nil)
}

func (c *Client) DeleteClip(ctx context.Context, id string) error {
	return c.invoke(ctx, CmdDeleteClip, idArgs{ID: id}, nil)
}

// Subscription is an open event stream.
type Subscription struct {
	conn *websocket.Conn
}

// Subscribe opens the daemon's event stream.
func (c *Client) Subscribe(ctx context.Context) (*Subscription, error) {
	url := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/events"
	conn, resp, err := c.dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return &Subscription{conn: conn}, nil
}

// Next blocks until the next event arrives or the stream closes.
func (s *Subscription) Next() (service.Event, error) {
	var ev service.Event
	if err := s.conn.ReadJSON(&ev); err != nil {
		return service.Event{}, err
	}
	return ev, nil
}

// Close ends the stream.
func (s *Subscription) Close() error { return s.conn.Close() }
