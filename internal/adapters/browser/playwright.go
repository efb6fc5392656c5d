package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/playwright-community/playwright-go"

	"tubescout/internal/core/domain"
	"tubescout/internal/core/ports"
)

// NavigationTimeoutMs bounds a single Goto or Reload.
const NavigationTimeoutMs = 60000

type executablePaths struct {
	Windows string
	Darwin  string
	Linux   string
}

var chromeCandidates = []executablePaths{
	{
		Windows: `C:\Program Files\Google\Chrome\Application\chrome.exe`,
		Darwin:  `/Applications/Google Chrome.app/Contents/MacOS/Google Chrome`,
		Linux:   `/usr/bin/google-chrome`,
	},
	{
		Windows: `C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
		Darwin:  `/Applications/Chromium.app/Contents/MacOS/Chromium`,
		Linux:   `/usr/bin/chromium`,
	},
}

// FindChrome returns the first installed Chrome or Chromium binary, or "".
func FindChrome() string {
	for _, c := range chromeCandidates {
		var path string
		switch runtime.GOOS {
		case "windows":
			path = c.Windows
		case "darwin":
			path = c.Darwin
		default:
			path = c.Linux
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// hideWebdriver runs before any page script so sites see a regular browser.
const hideWebdriver = `Object.defineProperty(navigator, 'webdriver', { get: () => undefined });`

// Launcher implements ports.Browser with a persistent Chromium context.
type Launcher struct {
	// DefaultExecutable is used when a launch names no executable. Empty
	// means auto-detect.
	DefaultExecutable string

	install           func(*playwright.RunOptions) error
	mu                sync.Mutex
	driverInstalled   bool
	browsersInstalled bool
}

// NewLauncher creates a new Launcher.
func NewLauncher(defaultExecutable string) *Launcher {
	return &Launcher{DefaultExecutable: defaultExecutable, install: installPlaywright}
}

// Launch starts the playwright driver and a browser bound to opts.UserDataDir.
// When no executable is known the bundled Chromium is installed on first use.
func (l *Launcher) Launch(ctx context.Context, opts domain.LaunchOptions) (ports.BrowserSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	executable := opts.ExecutablePath
	if executable == "" {
		executable = l.DefaultExecutable
	}
	if executable == "" {
		executable = FindChrome()
	}

	if err := l.ensureInstalled(executable == ""); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	bctx, err := pw.Chromium.LaunchPersistentContext(opts.UserDataDir, persistentContextOptions(opts, executable))
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}
	if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(hideWebdriver)}); err != nil {
		bctx.Close()
		pw.Stop()
		return nil, fmt.Errorf("could not add init script: %w", err)
	}

	var page playwright.Page
	if pages := bctx.Pages(); len(pages) > 0 {
		page = pages[0]
	} else {
		page, err = bctx.NewPage()
		if err != nil {
			bctx.Close()
			pw.Stop()
			return nil, fmt.Errorf("could not create page: %w", err)
		}
	}

	return &Session{pw: pw, context: bctx, page: page}, nil
}

// ensureInstalled installs the driver, plus the bundled Chromium when
// withBrowsers is set, once per Launcher. Failed installs are retried on the
// next launch.
func (l *Launcher) ensureInstalled(withBrowsers bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.browsersInstalled || (l.driverInstalled && !withBrowsers) {
		return nil
	}
	install := l.install
	if install == nil {
		install = installPlaywright
	}
	if err := install(&playwright.RunOptions{
		SkipInstallBrowsers: !withBrowsers,
		Browsers:            []string{"chromium"},
	}); err != nil {
		return fmt.Errorf("failed to install playwright driver: %w", err)
	}
	l.driverInstalled = true
	l.browsersInstalled = l.browsersInstalled || withBrowsers
	return nil
}

// persistentContextOptions maps opts onto Chromium launch options. The
// automation banner and the AutomationControlled blink feature are turned
// off so the page behaves as in a regular session.
func persistentContextOptions(opts domain.LaunchOptions, executable string) playwright.BrowserTypeLaunchPersistentContextOptions {
	launch := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(opts.Headless),
		Args: []string{
			"--start-maximized",
			"--disable-blink-features=AutomationControlled",
		},
		IgnoreDefaultArgs: []string{"--enable-automation"},
		NoViewport:        playwright.Bool(true),
	}
	if executable != "" {
		launch.ExecutablePath = playwright.String(executable)
	}
	if opts.ProfileName != "" {
		launch.Args = append(launch.Args, "--profile-directory="+opts.ProfileName)
	}
	if opts.DownloadDir != "" {
		launch.AcceptDownloads = playwright.Bool(true)
		launch.DownloadsPath = playwright.String(opts.DownloadDir)
	}
	return launch
}

// Session is one running browser. Client is responsible for calling Close.
type Session struct {
	pw      *playwright.Playwright
	context playwright.BrowserContext
	page    playwright.Page
}

// Goto navigates the page and waits for the DOM to load.
func (s *Session) Goto(ctx context.Context, url string) error {
	return s.interruptible(ctx, func() error {
		resp, err := s.page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
			Timeout:   playwright.Float(NavigationTimeoutMs),
		})
		if err != nil {
			return err
		}

		// resp is nil when navigating to the URL already loaded
		if resp != nil && resp.Status() >= 400 {
			return fmt.Errorf("HTTP error (%d): %s", resp.Status(), resp.StatusText())
		}
		return nil
	})
}

// Reload reloads the current page so page-load scripts run again.
func (s *Session) Reload(ctx context.Context) error {
	return s.interruptible(ctx, func() error {
		_, err := s.page.Reload(playwright.PageReloadOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
			Timeout:   playwright.Float(NavigationTimeoutMs),
		})
		return err
	})
}

// interruptible runs a blocking page call and closes the page when ctx is
// done, which aborts the call. The ctx error wins over the call's own.
func (s *Session) interruptible(ctx context.Context, call func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { s.page.Close() })
	defer stop()

	err := call()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// Close shuts the page, browser and driver down, in that order, and returns
// every error it met along the way.
func (s *Session) Close() error {
	var errs []error
	if s.page != nil && !s.page.IsClosed() {
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("page: %w", err))
		}
	}
	if s.context != nil {
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("browser: %w", err))
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("driver: %w", err))
		}
	}
	return errors.Join(errs...)
}

// installPlaywright adapts the variadic playwright.Install to the install field's signature.
func installPlaywright(o *playwright.RunOptions) error { return playwright.Install(o) }
