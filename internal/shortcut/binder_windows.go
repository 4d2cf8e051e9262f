//go:build windows

package shortcut

import (
	"context"
	"fmt"
	"runtime"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/jakebf/clipdeck/internal/hotkey"
)

var (
	user32           = windows.NewLazySystemDLL("user32.dll")
	registerHotKey   = user32.NewProc("RegisterHotKey")
	unregisterHotKey = user32.NewProc("UnregisterHotKey")
	peekMessage      = user32.NewProc("PeekMessageW")
)

const (
	wmHotkey     = 0x0312
	pmRemove     = 0x0001
	pollInterval = 20 * time.Millisecond
)

type msg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      struct{ x, y int32 }
}

type bindRequest struct {
	combo hotkey.Combo
	bind  bool
	done  chan error
}

// systemBinder grabs combinations with RegisterHotKey. Hotkeys registered
// without a window belong to the calling thread, so one locked thread owns
// every binding and drains WM_HOTKEY from its queue.
type systemBinder struct {
	ctx     context.Context
	onPress func(hotkey.Combo)
	reqs    chan bindRequest
}

// NewSystemBinder starts the hotkey thread. onPress runs on its own goroutine
// for every activation. The thread releases all bindings when ctx is done.
func NewSystemBinder(ctx context.Context, onPress func(hotkey.Combo)) (Binder, error) {
	if err := registerHotKey.Find(); err != nil {
		return nil, fmt.Errorf("RegisterHotKey: %w", err)
	}
	b := &systemBinder{ctx: ctx, onPress: onPress, reqs: make(chan bindRequest)}
	go b.loop()
	return b, nil
}

func (b *systemBinder) Bind(c hotkey.Combo) error { return b.send(c, true) }

func (b *systemBinder) Unbind(c hotkey.Combo) { b.send(c, false) }

func (b *systemBinder) send(c hotkey.Combo, bind bool) error {
	req := bindRequest{combo: c, bind: bind, done: make(chan error, 1)}
	select {
	case b.reqs <- req:
		return <-req.done
	case <-b.ctx.Done():
		return b.ctx.Err()
	}
}

func (b *systemBinder) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ids := make(map[hotkey.Combo]uintptr)
	next := uintptr(1)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var m msg
	for {
		select {
		case <-b.ctx.Done():
			for _, id := range ids {
				unregisterHotKey.Call(0, id)
			}
			return
		case req := <-b.reqs:
			if !req.bind {
				if id, ok := ids[req.combo]; ok {
					unregisterHotKey.Call(0, id)
					delete(ids, req.combo)
				}
				req.done <- nil
				continue
			}
			vk, ok := virtualKey(req.combo.Key)
			if !ok {
				req.done <- fmt.Errorf("no virtual key for %q", req.combo.Key)
				continue
			}
			r, _, err := registerHotKey.Call(0, next, winModifiers(req.combo.Mods), vk)
			if r == 0 {
				req.done <- fmt.Errorf("already bound elsewhere: %w", err)
				continue
			}
			ids[req.combo] = next
			next++
			req.done <- nil
		case <-ticker.C:
			for {
				r, _, _ := peekMessage.Call(uintptr(unsafe.Pointer(&m)), 0, wmHotkey, wmHotkey, pmRemove)
				if r == 0 {
					break
				}
				for c, id := range ids {
					if id == m.wParam {
						go b.onPress(c)
					}
				}
			}
		}
	}
}
