package main

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const (
	updateCheckInterval = 24 * time.Hour
	updateRequestTTL    = 5 * time.Second
	updateRepoOwner     = "jakebf"
	updateRepoName      = "clipdeck"
)

var (
	updateAPIBaseURL    = "https://api.github.com"
	updateNow           = time.Now
	fetchLatestReleaseF = fetchLatestRelease
)

type updateState struct {
	CheckedAt     time.Time `json:"checked_at"`
	LatestVersion string    `json:"latest_version,omitempty"`
	ReleaseURL    string    `json:"release_url,omitempty"`
}

type releaseInfo struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "clipdeck "+getVersion())
			if check, _ := cmd.Flags().GetBool("check"); check {
				return printUpdate(out, getVersion())
			}
			return nil
		},
	}
	cmd.Flags().Bool("check", false, "check GitHub for a newer release")
	return cmd
}

func printUpdate(out io.Writer, current string) error {
	rel, err := checkForUpdate(current)
	if err != nil {
		return err
	}
	if rel == nil {
		fmt.Fprintln(out, "Up to date.")
		return nil
	}
	fmt.Fprintf(out, "Update available: %s\n%s\n", rel.TagName, rel.HTMLURL)
	return nil
}

func updateStatePath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine cache directory: %w", err)
	}
	return filepath.Join(dir, "clipdeck", "update-check.json"), nil
}

func loadUpdateState(path string) (updateState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return updateState{}, nil
		}
		return updateState{}, err
	}
	var st updateState
	if err := json.Unmarshal(data, &st); err != nil {
		return updateState{}, err
	}
	return st, nil
}

func saveUpdateState(path string, st updateState) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	// Atomic write: temp file + rename to avoid corruption on crash.
	tmp, err := os.CreateTemp(dir, ".update-check-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

func fetchLatestRelease(owner, repo string) (*releaseInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), updateRequestTTL)
	defer cancel()

	url := fmt.Sprintf(
		"%s/repos/%s/%s/releases/latest",
		strings.TrimRight(updateAPIBaseURL, "/"),
		owner,
		repo,
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "clipdeck-update-check")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github latest release: %s", resp.Status)
	}

	var rel releaseInfo
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, err
	}
	if rel.TagName == "" {
		return nil, fmt.Errorf("github latest release missing tag_name")
	}
	return &rel, nil
}

// checkForUpdate returns the latest release when it is newer than
// currentVersion, or nil. Results are cached for updateCheckInterval; a
// failed fetch does not touch the cache.
func checkForUpdate(currentVersion string) (*releaseInfo, error) {
	currentVersion = strings.TrimSpace(currentVersion)
	if currentVersion == "" || currentVersion == "dev" {
		return nil, nil
	}
	path, err := updateStatePath()
	if err != nil {
		return nil, err
	}

	st, err := loadUpdateState(path)
	if err == nil && !st.CheckedAt.IsZero() && updateNow().Sub(st.CheckedAt) < updateCheckInterval {
		if isNewerVersion(currentVersion, st.LatestVersion) {
			return &releaseInfo{TagName: st.LatestVersion, HTMLURL: st.ReleaseURL}, nil
		}
		return nil, nil
	}

	latest, err := fetchLatestReleaseF(updateRepoOwner, updateRepoName)
	if err != nil {
		return nil, fmt.Errorf("update check: %w", err)
	}

	st = updateState{
		CheckedAt:     updateNow().UTC(),
		LatestVersion: latest.TagName,
		ReleaseURL:    latest.HTMLURL,
	}
	_ = saveUpdateState(path, st)

	if isNewerVersion(currentVersion, latest.TagName) {
		return latest, nil
	}
	return nil, nil
}

type parsedSemver struct {
	major      int
	minor      int
	patch      int
	prerelease string
}

func isNewerVersion(current, latest string) bool {
	cur, ok := parseSemver(current)
	if !ok {
		return false
	}
	next, ok := parseSemver(latest)
	if !ok {
		return false
	}
	return compareSemver(next, cur) > 0
}

func parseSemver(s string) (parsedSemver, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	if s == "" {
		return parsedSemver{}, false
	}
	if i := strings.IndexByte(s, '+'); i >= 0 {
		s = s[:i]
	}
	prerelease := ""
	if i := strings.IndexByte(s, '-'); i >= 0 {
		prerelease = s[i+1:]
		s = s[:i]
	}

	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return parsedSemver{}, false
	}
	var nums [3]int
	for i, p := range parts {
		n, ok := parseSemverInt(p)
		if !ok {
			return parsedSemver{}, false
		}
		nums[i] = n
	}
	return parsedSemver{major: nums[0], minor: nums[1], patch: nums[2], prerelease: prerelease}, true
}

func parseSemverInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

func compareSemver(a, b parsedSemver) int {
	if c := cmp.Compare(a.major, b.major); c != 0 {
		return c
	}
	if c := cmp.Compare(a.minor, b.minor); c != 0 {
		return c
	}
	if c := cmp.Compare(a.patch, b.patch); c != 0 {
		return c
	}
	return comparePrerelease(a.prerelease, b.prerelease)
}

// comparePrerelease follows semver precedence: no prerelease (stable) ranks
// higher than any prerelease. Dot-separated identifiers are compared
// numerically when both are digits, lexically otherwise.
func comparePrerelease(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return 1 // stable > prerelease
	}
	if b == "" {
		return -1
	}

	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		ai, an := parseSemverInt(as[i])
		bi, bn := parseSemverInt(bs[i])
		switch {
		case an && bn:
			if ai != bi {
				return cmp.Compare(ai, bi)
			}
		case an && !bn:
			return -1
		case !an && bn:
			return 1
		default:
			if as[i] != bs[i] {
				return strings.Compare(as[i], bs[i])
			}
		}
	}
	return cmp.Compare(len(as), len(bs))
}
