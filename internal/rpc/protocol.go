// Package rpc carries the service contract between the surfaces and the
// daemon: JSON request/response over HTTP on a Unix socket, plus a websocket
// event stream.
package rpc

import (
	"errors"

	"github.com/jakebf/clipdeck/internal/service"
)

// Command names, one per contract operation.
const (
	CmdGetSettings      = "get_settings"
	CmdSaveSettings     = "save_settings"
	CmdRegisterShortcut = "register_global_shortcut"
	CmdHistorySize      = "get_clipboard_history_size"
	CmdClearHistory     = "clear_clipboard_history"
	CmdClearAllClips    = "clear_all_clips"
	CmdRemoveDuplicates = "remove_duplicate_clips"
	CmdGetIgnoredApps   = "get_ignored_apps"
	CmdAddIgnoredApp    = "add_ignored_app"
	CmdRemoveIgnoredApp = "remove_ignored_app"
	CmdPickFile         = "pick_file"
	CmdGetClips         = "get_clips"
	CmdAddClip          = "add_clip"
	CmdPasteClip        = "paste_clip"
	CmdPinClip          = "pin_clip"
	CmdDeleteClip       = "delete_clip"
)

// Error codes carried in Response.Error.
const (
	CodeShortcut  = "shortcut"
	CodeCancelled = "cancelled"
	CodeIgnored   = "ignored"
	CodeNotFound  = "not_found"
	CodeInvalid   = "invalid"
	CodeInternal  = "internal"
)

// Argument payloads.
type (
	settingsArgs struct {
		Settings service.Settings `json:"settings"`
	}
	hotkeyArgs struct {
		Hotkey string `json:"hotkey"`
	}
	nameArgs struct {
		Name string `json:"name"`
	}
	idArgs struct {
		ID string `json:"id"`
	}
	pinArgs struct {
		ID     string `json:"id"`
		Pinned bool   `json:"pinned"`
	}
	queryArgs struct {
		Query service.ClipQuery `json:"query"`
	}
	addClipArgs struct {
		Text   string `json:"text"`
		Source string `json:"source,omitempty"`
	}
)

// Response is the envelope for every invoke reply.
type Response struct {
	Result any        `json:"result,omitempty"`
	Error  *ErrorBody `json:"error,omitempty"`
}

// ErrorBody is a transported error.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hotkey  string `json:"hotkey,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// encodeError maps err to its wire form.
func encodeError(err error) *ErrorBody {
	body := &ErrorBody{Code: CodeInternal, Message: err.Error()}
	var se *service.ShortcutError
	switch {
	case errors.As(err, &se):
		body.Code = CodeShortcut
		body.Hotkey = se.Hotkey
		body.Reason = se.Reason
	case errors.Is(err, service.ErrCancelled):
		body.Code = CodeCancelled
	case errors.Is(err, service.ErrIgnoredSource):
		body.Code = CodeIgnored
	case errors.Is(err, service.ErrNotFound):
		body.Code = CodeNotFound
	case errors.Is(err, service.ErrInvalidSettings):
		body.Code = CodeInvalid
	}
	return body
}

// RemoteError is a daemon-side failure with no local sentinel.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

// Unwrap exposes the matching sentinel so errors.Is works across the wire.
func (e *RemoteError) Unwrap() error {
	switch e.Code {
	case CodeCancelled:
		return service.ErrCancelled
	case CodeIgnored:
		return service.ErrIgnoredSource
	case CodeNotFound:
		return service.ErrNotFound
	case CodeInvalid:
		return service.ErrInvalidSettings
	}
	return nil
}

// decodeError rebuilds a typed error from its wire form.
func (b *ErrorBody) decodeError() error {
	if b.Code == CodeShortcut {
		return &service.ShortcutError{Hotkey: b.Hotkey, Reason: b.Reason}
	}
	return &RemoteError{Code: b.Code, Message: b.Message}
}
