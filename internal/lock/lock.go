// Package lock guarantees a single running daemon per user.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

// ErrHeld is returned when another process owns the lock.
var ErrHeld = errors.New("another clipdeck daemon is running")

// File is an acquired lock. The lock is released when the process exits or
// Release is called.
type File struct {
	fl      *flock.Flock
	pidPath string
}

// Acquire takes an exclusive, non-blocking lock on path and records the
// current pid next to it in path+".pid".
func Acquire(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("lock dir: %w", err)
	}
	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	pidPath := path + ".pid"
	if !locked {
		if pid := readPID(pidPath); pid > 0 {
			return nil, fmt.Errorf("%w (pid %d)", ErrHeld, pid)
		}
		return nil, ErrHeld
	}
	os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o600)
	return &File{fl: fl, pidPath: pidPath}, nil
}

// Release unlocks and closes the lock file.
func (l *File) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	os.Remove(l.pidPath)
	err := l.fl.Unlock()
	l.fl = nil
	return err
}

func readPID(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, _ := strconv.Atoi(strings.TrimSpace(string(data)))
	return pid
}
