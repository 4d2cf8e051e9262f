package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestCheckForUpdateSkipsDev(t *testing.T) {
	rel, err := checkForUpdate("dev")
	if err != nil || rel != nil {
		t.Fatalf("checkForUpdate(dev) = %v, %v; want nil, nil", rel, err)
	}
}

func TestIsNewerVersion(t *testing.T) {
	tests := []struct {
		current string
		latest  string
		newer   bool
	}{
		{current: "v0.1.0", latest: "v0.2.0", newer: true},
		{current: "0.1.0", latest: "v0.1.0", newer: false},
		{current: "v1.0.0-beta.1", latest: "v1.0.0", newer: true},
		{current: "v1.0.0-beta.2", latest: "v1.0.0-beta.10", newer: true},
		{current: "v1.0.0-rc.1", latest: "v1.0.0-beta.1", newer: false},
		{current: "v1.2.3", latest: "v1.2.3+build.7", newer: false},
		{current: "v1.2.3", latest: "not-a-version", newer: false},
		{current: "v1.2", latest: "v1.3.0", newer: false},
	}
	for _, tc := range tests {
		if got := isNewerVersion(tc.current, tc.latest); got != tc.newer {
			t.Fatalf("isNewerVersion(%q, %q) = %v, want %v", tc.current, tc.latest, got, tc.newer)
		}
	}
}

func TestCheckForUpdateUsesFreshCache(t *testing.T) {
	statePath := setupUpdateStatePath(t)
	fixedNow := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	restore := overrideUpdateGlobals(t, fixedNow)
	defer restore()

	st := updateState{
		CheckedAt:     fixedNow.Add(-1 * time.Hour),
		LatestVersion: "v0.2.0",
		ReleaseURL:    "https://github.com/jakebf/clipdeck/releases/tag/v0.2.0",
	}
	if err := saveUpdateState(statePath, st); err != nil {
		t.Fatalf("saveUpdateState: %v", err)
	}

	var calls int
	fetchLatestReleaseF = func(owner, repo string) (*releaseInfo, error) {
		calls++
		return &releaseInfo{TagName: "v9.9.9", HTMLURL: "https://example.invalid"}, nil
	}

	rel, err := checkForUpdate("v0.1.0")
	if err != nil {
		t.Fatalf("checkForUpdate: %v", err)
	}
	if rel == nil || rel.TagName != "v0.2.0" {
		t.Fatalf("cached release = %+v, want v0.2.0", rel)
	}
	if calls != 0 {
		t.Fatalf("expected 0 API calls when cache is fresh, got %d", calls)
	}
}

func TestCheckForUpdateFetchSuccessWritesCache(t *testing.T) {
	statePath := setupUpdateStatePath(t)
	fixedNow := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	restore := overrideUpdateGlobals(t, fixedNow)
	defer restore()

	var calls int
	fetchLatestReleaseF = func(owner, repo string) (*releaseInfo, error) {
		calls++
		if owner != updateRepoOwner || repo != updateRepoName {
			t.Errorf("fetch(%q, %q)", owner, repo)
		}
		return &releaseInfo{
			TagName: "v0.3.0",
			HTMLURL: "https://github.com/jakebf/clipdeck/releases/tag/v0.3.0",
		}, nil
	}

	rel, err := checkForUpdate("v0.1.0")
	if err != nil {
		t.Fatalf("checkForUpdate: %v", err)
	}
	if rel == nil || rel.TagName != "v0.3.0" {
		t.Fatalf("release = %+v, want v0.3.0", rel)
	}
	if calls != 1 {
		t.Fatalf("expected 1 API call, got %d", calls)
	}

	data, err := os.ReadFile(statePath)
	if err != nil {
		t.Fatalf("read cache: %v", err)
	}
	var st updateState
	if err := json.Unmarshal(data, &st); err != nil {
		t.Fatalf("unmarshal cache: %v", err)
	}
	if !st.CheckedAt.Equal(fixedNow.UTC()) {
		t.Fatalf("checked_at = %s, want %s", st.CheckedAt, fixedNow.UTC())
	}
	if st.LatestVersion != "v0.3.0" {
		t.Fatalf("latest_version = %q, want v0.3.0", st.LatestVersion)
	}
}

func TestCheckForUpdateStaleCacheRefetches(t *testing.T) {
	statePath := setupUpdateStatePath(t)
	fixedNow := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	restore := overrideUpdateGlobals(t, fixedNow)
	defer restore()

	st := updateState{CheckedAt: fixedNow.Add(-48 * time.Hour), LatestVersion: "v0.2.0"}
	if err := saveUpdateState(statePath, st); err != nil {
		t.Fatalf("saveUpdateState: %v", err)
	}
	fetchLatestReleaseF = func(owner, repo string) (*releaseInfo, error) {
		return &releaseInfo{TagName: "v0.1.0"}, nil
	}

	rel, err := checkForUpdate("v0.1.0")
	if err != nil {
		t.Fatalf("checkForUpdate: %v", err)
	}
	if rel != nil {
		t.Fatalf("expected no update when latest equals current, got %+v", rel)
	}
}

func TestCheckForUpdateFetchFailureDoesNotWriteCache(t *testing.T) {
	statePath := setupUpdateStatePath(t)
	fixedNow := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	restore := overrideUpdateGlobals(t, fixedNow)
	defer restore()

	fetchLatestReleaseF = func(owner, repo string) (*releaseInfo, error) {
		return nil, fmt.Errorf("boom")
	}

	if _, err := checkForUpdate("v0.1.0"); err == nil {
		t.Fatal("expected error on failed fetch")
	}
	if _, err := os.Stat(statePath); !os.IsNotExist(err) {
		t.Fatalf("expected no cache file to be written, err=%v", err)
	}
}

func TestFetchLatestRelease(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/jakebf/clipdeck/releases/latest" {
			http.NotFound(w, r)
			return
		}
		if ua := r.Header.Get("User-Agent"); ua != "clipdeck-update-check" {
			t.Errorf("User-Agent = %q", ua)
		}
		fmt.Fprint(w, `{"tag_name":"v1.4.0","html_url":"https://example.test/v1.4.0"}`)
	}))
	defer srv.Close()

	restore := overrideUpdateGlobals(t, time.Now())
	defer restore()
	updateAPIBaseURL = srv.URL + "/"

	rel, err := fetchLatestRelease("jakebf", "clipdeck")
	if err != nil {
		t.Fatalf("fetchLatestRelease: %v", err)
	}
	if rel.TagName != "v1.4.0" || rel.HTMLURL != "https://example.test/v1.4.0" {
		t.Fatalf("release = %+v", rel)
	}

	if _, err := fetchLatestRelease("jakebf", "missing"); err == nil {
		t.Fatal("expected error for 404")
	}
}

func TestPrintUpdate(t *testing.T) {
	setupUpdateStatePath(t)
	restore := overrideUpdateGlobals(t, time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC))
	defer restore()
	fetchLatestReleaseF = func(owner, repo string) (*releaseInfo, error) {
		return &releaseInfo{TagName: "v2.0.0", HTMLURL: "https://example.test/v2"}, nil
	}

	var buf bytes.Buffer
	if err := printUpdate(&buf, "v1.0.0"); err != nil {
		t.Fatalf("printUpdate: %v", err)
	}
	if !strings.Contains(buf.String(), "Update available: v2.0.0") {
		t.Fatalf("output = %q", buf.String())
	}
}

func TestUpdateStatePathFollowsCacheDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CACHE_HOME only applies on linux")
	}
	cacheRoot := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cacheRoot)
	path, err := updateStatePath()
	if err != nil {
		t.Fatalf("updateStatePath: %v", err)
	}
	want := filepath.Join(cacheRoot, "clipdeck", "update-check.json")
	if path != want {
		t.Fatalf("updateStatePath = %q, want %q", path, want)
	}
}

func setupUpdateStatePath(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", root)
	t.Setenv("HOME", root)
	t.Setenv("LocalAppData", root)
	path, err := updateStatePath()
	if err != nil {
		t.Fatalf("updateStatePath: %v", err)
	}
	return path
}

func overrideUpdateGlobals(t *testing.T, now time.Time) func() {
	t.Helper()
	origBase := updateAPIBaseURL
	origNow := updateNow
	origFetch := fetchLatestReleaseF
	updateNow = func() time.Time { return now }
	return func() {
		updateAPIBaseURL = origBase
		updateNow = origNow
		fetchLatestReleaseF = origFetch
	}
}
