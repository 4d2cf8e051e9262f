package main

import (
	"github.com/jakebf/clipdeck/internal/service"
	"github.com/jakebf/clipdeck/internal/surface"
)

// ─── Primary surface ─────────────────────────────────────────────────────────

type clipsLoadedMsg struct {
	clips []service.Clip
}

type clipContentMsg struct {
	id      string
	content string
}

type settingsLoadedMsg struct {
	settings service.Settings
}

// daemonEventMsg carries one event from the daemon's stream.
type daemonEventMsg struct {
	event service.Event
}

type pastedMsg struct {
	clip service.Clip
}

// clipChangedMsg follows a pin or delete; the list is reloaded.
type clipChangedMsg struct {
	message string
}

type settingsClosedMsg struct{}

// ─── Settings surface ────────────────────────────────────────────────────────

type draftLoadedMsg struct {
	settings service.Settings
}

type historySizeMsg struct {
	size int
}

type ignoredAppsMsg struct {
	apps []string
}

type appAddedMsg struct {
	name string
}

type appRemovedMsg struct {
	name string
}

type filePickedMsg struct {
	name string
}

type committedMsg struct {
	result surface.CommitResult
}

type commitFailedMsg struct {
	err error
}

// maintenanceDoneMsg reports a finished maintenance action.
type maintenanceDoneMsg struct {
	message string
}

// ─── Shared ──────────────────────────────────────────────────────────────────

type statusClearMsg struct {
	id int
}

type errMsg struct {
	err error
}

func (e errMsg) Error() string { return e.err.Error() }
