package browser

import (
	"context"
	"errors"
	"os"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	"tubescout/internal/core/domain"
)

// blockingPage stands in for a page whose navigation hangs until it is closed.
type blockingPage struct {
	playwright.Page
	once   sync.Once
	closed chan struct{}
	closes int
}

func newBlockingPage() *blockingPage {
	return &blockingPage{closed: make(chan struct{})}
}

func (p *blockingPage) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	<-p.closed
	return nil, errors.New("target page, context or browser has been closed")
}

func (p *blockingPage) Reload(options ...playwright.PageReloadOptions) (playwright.Response, error) {
	<-p.closed
	return nil, errors.New("target page, context or browser has been closed")
}

func (p *blockingPage) Close(options ...playwright.PageCloseOptions) error {
	p.once.Do(func() {
		p.closes++
		close(p.closed)
	})
	return nil
}

func (p *blockingPage) IsClosed() bool {
	select {
	case <-p.closed:
		return true
	default:
		return false
	}
}

func TestFindChromeReturnsExistingPath(t *testing.T) {
	path := FindChrome()
	if path == "" {
		t.Skip("no local Chrome installation")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("FindChrome returned %s which does not exist: %v", path, err)
	}
}

func TestCloseEmptySession(t *testing.T) {
	if err := (&Session{}).Close(); err != nil {
		t.Errorf("Expected no error closing an empty session, got %v", err)
	}
}

func TestLaunchHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewLauncher("").Launch(ctx, domain.LaunchOptions{UserDataDir: t.TempDir()}); err == nil {
		t.Error("Expected error launching with a cancelled context")
	}
}

func TestPersistentContextOptions(t *testing.T) {
	launch := persistentContextOptions(domain.LaunchOptions{
		ProfileName: "Profile 2",
		DownloadDir: "/tmp/transcripts",
		Headless:    true,
	}, "/usr/bin/chromium")

	for _, want := range []string{
		"--start-maximized",
		"--disable-blink-features=AutomationControlled",
		"--profile-directory=Profile 2",
	} {
		if !slices.Contains(launch.Args, want) {
			t.Errorf("Expected arg %q in %v", want, launch.Args)
		}
	}
	if !slices.Contains(launch.IgnoreDefaultArgs, "--enable-automation") {
		t.Errorf("Expected --enable-automation to be dropped, got %v", launch.IgnoreDefaultArgs)
	}
	if launch.ExecutablePath == nil || *launch.ExecutablePath != "/usr/bin/chromium" {
		t.Errorf("Unexpected executable %v", launch.ExecutablePath)
	}
	if launch.DownloadsPath == nil || *launch.DownloadsPath != "/tmp/transcripts" {
		t.Errorf("Unexpected downloads path %v", launch.DownloadsPath)
	}
	if launch.AcceptDownloads == nil || !*launch.AcceptDownloads {
		t.Error("Expected downloads to be accepted")
	}
	if launch.Headless == nil || !*launch.Headless {
		t.Error("Expected headless launch")
	}

	bare := persistentContextOptions(domain.LaunchOptions{}, "")
	if bare.ExecutablePath != nil || bare.DownloadsPath != nil {
		t.Errorf("Expected no executable or downloads path, got %+v", bare)
	}
}

func TestEnsureInstalledRunsOnce(t *testing.T) {
	var calls []bool
	l := &Launcher{install: func(o *playwright.RunOptions) error {
		calls = append(calls, o.SkipInstallBrowsers)
		return nil
	}}

	for range 3 {
		if err := l.ensureInstalled(false); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}
	if len(calls) != 1 || !calls[0] {
		t.Fatalf("Expected a single driver-only install, got %v", calls)
	}

	// bundled browsers are still fetched the first time they are needed
	l.ensureInstalled(true)
	l.ensureInstalled(true)
	l.ensureInstalled(false)
	if len(calls) != 2 || calls[1] {
		t.Errorf("Expected one more install with browsers, got %v", calls)
	}
}

func TestEnsureInstalledRetriesAfterFailure(t *testing.T) {
	fail := true
	calls := 0
	l := &Launcher{install: func(o *playwright.RunOptions) error {
		calls++
		if fail {
			return errors.New("network down")
		}
		return nil
	}}

	if err := l.ensureInstalled(false); err == nil {
		t.Fatal("Expected install error")
	}
	fail = false
	if err := l.ensureInstalled(false); err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 install attempts, got %d", calls)
	}
}

func TestGotoInterruptedByCancel(t *testing.T) {
	page := newBlockingPage()
	s := &Session{page: page}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(20*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() { done <- s.Goto(ctx, "https://www.youtube.com/watch?v=abc") }()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Goto was not interrupted by cancel")
	}

	if err := s.Close(); err != nil {
		t.Errorf("Expected close of an interrupted session to succeed, got %v", err)
	}
	if page.closes != 1 {
		t.Errorf("Expected page closed once, got %d", page.closes)
	}
}

func TestReloadInterruptedByCancel(t *testing.T) {
	s := &Session{page: newBlockingPage()}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(20*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() { done <- s.Reload(ctx) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Reload was not interrupted by cancel")
	}
}
