package service

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"tubescout/internal/core/domain"
	"tubescout/internal/core/ports"
)

type fakeSession struct {
	gotos    []string
	reloads  int
	closed   int
	gotoErrs map[string]error
}

func (s *fakeSession) Goto(ctx context.Context, url string) error {
	s.gotos = append(s.gotos, url)
	return s.gotoErrs[url]
}

func (s *fakeSession) Reload(ctx context.Context) error {
	s.reloads++
	return nil
}

func (s *fakeSession) Close() error {
	s.closed++
	return errors.New("already gone")
}

type fakeBrowser struct {
	session   *fakeSession
	launches  int
	lastOpts  domain.LaunchOptions
	launchErr error
}

func (b *fakeBrowser) Launch(ctx context.Context, opts domain.LaunchOptions) (ports.BrowserSession, error) {
	b.launches++
	b.lastOpts = opts
	if b.launchErr != nil {
		return nil, b.launchErr
	}
	return b.session, nil
}

type fakeCloner struct{ err error }

func (c fakeCloner) CloneProfile(sourceDir, profileName, scratchDir string) error { return c.err }

func newTestNavigator(t *testing.T, b *fakeBrowser, cloner fakeCloner) (*Navigator, *[]time.Duration) {
	t.Helper()
	n := NewNavigator(b, cloner, ProfileSettings{SourceDir: "/src", Name: "Profile 2", ScratchDir: t.TempDir()},
		DefaultTimings, false, log.New(io.Discard, "", 0))
	var slept []time.Duration
	n.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return n, &slept
}

func TestOpenEmptyURLsDoesNotLaunch(t *testing.T) {
	b := &fakeBrowser{session: &fakeSession{}}
	n, _ := newTestNavigator(t, b, fakeCloner{})

	msgs := slices.Collect(n.Open(context.Background(), domain.NavigateRequest{}))

	if len(msgs) != 1 || msgs[0] != "Error: No videos selected." {
		t.Errorf("Unexpected messages: %v", msgs)
	}
	if b.launches != 0 {
		t.Errorf("Expected no browser launch, got %d", b.launches)
	}
}

func TestOpenVisitsEveryURLAndReloadsFirstOnly(t *testing.T) {
	s := &fakeSession{gotoErrs: map[string]error{"https://b": errors.New("net::ERR_NAME_NOT_RESOLVED")}}
	b := &fakeBrowser{session: s}
	n, slept := newTestNavigator(t, b, fakeCloner{})

	msgs := slices.Collect(n.Open(context.Background(), domain.NavigateRequest{
		URLs: []string{"https://a", "https://b", "https://c"},
	}))

	if strings.Join(s.gotos, ",") != "https://a,https://b,https://c" {
		t.Errorf("Unexpected navigation order: %v", s.gotos)
	}
	if s.reloads != 1 {
		t.Errorf("Expected exactly one reload, got %d", s.reloads)
	}
	if s.closed != 1 {
		t.Errorf("Expected browser closed once, got %d", s.closed)
	}

	joined := strings.Join(msgs, "\n")
	for _, want := range []string{
		"Initializing Chrome... (Download Dir: Default)",
		"Chrome Browser Launched.",
		"[1/3] Opening: https://a",
		"    ...waiting 25s for script execution...",
		"Error opening https://b: net::ERR_NAME_NOT_RESOLVED",
		"[3/3] Opening: https://c",
		"    ...waiting 15s for script execution...",
		"All videos processed.",
		"Closing Browser...",
		"Browser Session Ended.",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("Expected message %q in:\n%s", want, joined)
		}
	}
	if msgs[len(msgs)-1] != "Browser Session Ended." {
		t.Errorf("Expected session end last, got %q", msgs[len(msgs)-1])
	}

	// startup + (settle + 25s countdown) for a + (settle + 15s countdown) for c
	var total time.Duration
	for _, d := range *slept {
		total += d
	}
	want := 3*time.Second + 5*time.Second + 25*time.Second + 5*time.Second + 15*time.Second
	if total != want {
		t.Errorf("Expected %v of waiting, got %v", want, total)
	}
}

func TestOpenStopsAndClosesWhenConsumerLeaves(t *testing.T) {
	s := &fakeSession{}
	b := &fakeBrowser{session: s}
	n, _ := newTestNavigator(t, b, fakeCloner{})

	var got []string
	for msg := range n.Open(context.Background(), domain.NavigateRequest{URLs: []string{"https://a", "https://b"}}) {
		got = append(got, msg)
		if strings.HasPrefix(msg, "[1/2]") {
			break
		}
	}

	if s.closed != 1 {
		t.Errorf("Expected browser closed after consumer left, got %d", s.closed)
	}
	if len(s.gotos) != 0 {
		t.Errorf("Expected no navigation after consumer left, got %v", s.gotos)
	}
	if got[len(got)-1] != "[1/2] Opening: https://a" {
		t.Errorf("Expected no message after break, got %v", got)
	}
}

func TestOpenClosesOnContextCancel(t *testing.T) {
	s := &fakeSession{}
	b := &fakeBrowser{session: s}
	n, _ := newTestNavigator(t, b, fakeCloner{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var got []string
	for msg := range n.Open(ctx, domain.NavigateRequest{URLs: []string{"https://a", "https://b"}}) {
		got = append(got, msg)
		if strings.Contains(msg, "waiting") {
			cancel()
		}
	}

	if s.closed != 1 {
		t.Errorf("Expected browser closed after cancel, got %d", s.closed)
	}
	if slices.Contains(s.gotos, "https://b") {
		t.Error("Expected second URL to be skipped after cancel")
	}
	if slices.Contains(got, "Closing Browser...") {
		t.Error("Expected no shutdown messages after cancel")
	}
}

func TestOpenProfileFailureIsWarning(t *testing.T) {
	s := &fakeSession{}
	b := &fakeBrowser{session: s}
	n, _ := newTestNavigator(t, b, fakeCloner{err: domain.ErrProfileNotFound})

	msgs := slices.Collect(n.Open(context.Background(), domain.NavigateRequest{URLs: []string{"https://a"}}))

	if b.launches != 1 {
		t.Fatalf("Expected launch despite profile failure, got %d", b.launches)
	}
	found := false
	for _, m := range msgs {
		if strings.HasPrefix(m, "Warning: Could not copy profile") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected profile warning in %v", msgs)
	}
}

func TestOpenLaunchFailure(t *testing.T) {
	b := &fakeBrowser{launchErr: errors.New("chrome not found")}
	n, _ := newTestNavigator(t, b, fakeCloner{})

	msgs := slices.Collect(n.Open(context.Background(), domain.NavigateRequest{URLs: []string{"https://a"}}))

	if msgs[len(msgs)-1] != "Critical Error: chrome not found" {
		t.Errorf("Expected critical error last, got %v", msgs)
	}
}

func TestOpenOverrides(t *testing.T) {
	dir := t.TempDir()
	driver := filepath.Join(dir, "chrome")
	if err := os.WriteFile(driver, []byte("#!"), 0755); err != nil {
		t.Fatal(err)
	}
	downloads := filepath.Join(dir, "transcripts")

	b := &fakeBrowser{session: &fakeSession{}}
	n, _ := newTestNavigator(t, b, fakeCloner{})

	msgs := slices.Collect(n.Open(context.Background(), domain.NavigateRequest{
		URLs:        []string{"https://a"},
		DownloadDir: downloads,
		BrowserPath: driver,
	}))

	if b.lastOpts.ExecutablePath != driver {
		t.Errorf("Expected executable %s, got %s", driver, b.lastOpts.ExecutablePath)
	}
	if b.lastOpts.DownloadDir != downloads {
		t.Errorf("Expected download dir %s, got %s", downloads, b.lastOpts.DownloadDir)
	}
	if _, err := os.Stat(downloads); err != nil {
		t.Errorf("Expected download dir to be created: %v", err)
	}
	if !slices.Contains(msgs, "Using Custom Driver: "+driver) {
		t.Errorf("Expected custom driver message in %v", msgs)
	}

	// a missing override falls back to the default browser
	b2 := &fakeBrowser{session: &fakeSession{}}
	n2, _ := newTestNavigator(t, b2, fakeCloner{})
	for range n2.Open(context.Background(), domain.NavigateRequest{
		URLs:        []string{"https://a"},
		BrowserPath: filepath.Join(dir, "missing"),
	}) {
	}
	if b2.lastOpts.ExecutablePath != "" {
		t.Errorf("Expected missing driver ignored, got %s", b2.lastOpts.ExecutablePath)
	}
}
