package service

import (
	"context"
	"fmt"
	"iter"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"tubescout/internal/core/domain"
	"tubescout/internal/core/ports"
)

// Timings are the fixed waits of a navigation run.
type Timings struct {
	Startup   time.Duration // after launch, before the first URL
	Settle    time.Duration // after each navigation
	FirstWait time.Duration // countdown after the first URL
	Wait      time.Duration // countdown after every other URL
	Tick      time.Duration // countdown message interval
}

// DefaultTimings matches the delays the companion script was tuned for.
var DefaultTimings = Timings{
	Startup:   3 * time.Second,
	Settle:    5 * time.Second,
	FirstWait: 25 * time.Second,
	Wait:      15 * time.Second,
	Tick:      5 * time.Second,
}

// ProfileSettings locate the profile copied into each session.
type ProfileSettings struct {
	SourceDir  string
	Name       string
	ScratchDir string
}

// Navigator opens URLs one by one in an automated browser.
type Navigator struct {
	browser  ports.Browser
	profiles ports.ProfileCloner
	profile  ProfileSettings
	timings  Timings
	headless bool
	logger   *log.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewNavigator creates a new Navigator.
func NewNavigator(
	browser ports.Browser,
	profiles ports.ProfileCloner,
	profile ProfileSettings,
	timings Timings,
	headless bool,
	logger *log.Logger,
) *Navigator {
	if timings.Tick <= 0 {
		timings.Tick = DefaultTimings.Tick
	}
	return &Navigator{
		browser:  browser,
		profiles: profiles,
		profile:  profile,
		timings:  timings,
		headless: headless,
		logger:   logger,
		sleep:    sleepContext,
	}
}

// Open returns the progress stream of one navigation run. The browser is
// launched on first consumption and closed on every exit path, including
// when the consumer stops iterating or ctx is cancelled.
func (n *Navigator) Open(ctx context.Context, req domain.NavigateRequest) iter.Seq[string] {
	return func(yield func(string) bool) {
		if len(req.URLs) == 0 {
			yield("Error: No videos selected.")
			return
		}

		runID := uuid.New().String()
		n.logger.Printf("[RUN %s] Opening %d URL(s)", runID, len(req.URLs))

		// listening turns false once the consumer has gone away;
		// nothing is yielded after that.
		listening := true
		emit := func(msg string) bool {
			if listening && ctx.Err() == nil {
				listening = yield(msg)
			} else {
				listening = false
			}
			return listening
		}

		dirLabel := req.DownloadDir
		if dirLabel == "" {
			dirLabel = "Default"
		}
		if !emit(fmt.Sprintf("Initializing Chrome... (Download Dir: %s)", dirLabel)) {
			return
		}

		opts, ok := n.launchOptions(req, emit)
		if !ok {
			return
		}

		session, err := n.browser.Launch(ctx, opts)
		if err != nil {
			n.logger.Printf("[RUN %s] ERROR: launch: %v", runID, err)
			emit(fmt.Sprintf("Critical Error: %v", err))
			return
		}
		defer func() {
			announce := emit("Closing Browser...")
			if err := session.Close(); err != nil {
				n.logger.Printf("[RUN %s] Browser close failed: %v", runID, err)
			}
			n.logger.Printf("[RUN %s] Browser closed", runID)
			if announce {
				emit("Browser Session Ended.")
			}
		}()

		if !emit("Chrome Browser Launched.") {
			return
		}
		if n.sleep(ctx, n.timings.Startup) != nil {
			return
		}

		total := len(req.URLs)
		for i, url := range req.URLs {
			if !emit(fmt.Sprintf("[%d/%d] Opening: %s", i+1, total, url)) {
				return
			}
			if !n.visit(ctx, session, url, i == 0, emit) {
				return
			}
		}

		n.logger.Printf("[RUN %s] All URLs processed", runID)
		emit("All videos processed.")
	}
}

// visit handles one URL. It returns false once the run should stop.
func (n *Navigator) visit(ctx context.Context, session ports.BrowserSession, url string, first bool, emit func(string) bool) bool {
	if err := session.Goto(ctx, url); err != nil {
		if ctx.Err() != nil {
			return false
		}
		return emit(fmt.Sprintf("Error opening %s: %v", url, err))
	}

	if n.sleep(ctx, n.timings.Settle) != nil {
		return false
	}

	wait := n.timings.Wait
	if first {
		// reload once so page-load scripts run against the fully loaded profile
		if err := session.Reload(ctx); err != nil {
			if ctx.Err() != nil {
				return false
			}
			if !emit(fmt.Sprintf("Error reloading %s: %v", url, err)) {
				return false
			}
		}
		wait = n.timings.FirstWait
	}

	for remaining := wait; remaining > 0; remaining -= n.timings.Tick {
		if !emit(fmt.Sprintf("    ...waiting %ds for script execution...", int(remaining.Round(time.Second)/time.Second))) {
			return false
		}
		if n.sleep(ctx, min(n.timings.Tick, remaining)) != nil {
			return false
		}
	}
	return true
}

// launchOptions resolves profile, browser and download overrides. Every
// failure here downgrades to a default with a warning.
func (n *Navigator) launchOptions(req domain.NavigateRequest, emit func(string) bool) (domain.LaunchOptions, bool) {
	opts := domain.LaunchOptions{
		UserDataDir: n.profile.ScratchDir,
		ProfileName: n.profile.Name,
		Headless:    n.headless,
	}
	if abs, err := filepath.Abs(opts.UserDataDir); err == nil {
		opts.UserDataDir = abs
	}

	if req.BrowserPath != "" {
		if !emit("Using Custom Driver: " + req.BrowserPath) {
			return opts, false
		}
		if info, err := os.Stat(req.BrowserPath); err == nil && !info.IsDir() {
			opts.ExecutablePath = req.BrowserPath
		} else if !emit(fmt.Sprintf("Warning: %s not found. Using default browser...", req.BrowserPath)) {
			return opts, false
		}
	}

	if err := n.profiles.CloneProfile(n.profile.SourceDir, n.profile.Name, n.profile.ScratchDir); err != nil {
		n.logger.Printf("Profile copy failed: %v", err)
		if !emit(fmt.Sprintf("Warning: Could not copy profile (%v). Proceeding with clean profile...", err)) {
			return opts, false
		}
	}

	if req.DownloadDir != "" {
		dir, err := filepath.Abs(req.DownloadDir)
		if err == nil {
			err = os.MkdirAll(dir, 0755)
		}
		if err != nil {
			if !emit(fmt.Sprintf("Warning: Could not use download dir %s (%v). Using default...", req.DownloadDir, err)) {
				return opts, false
			}
		} else {
			opts.DownloadDir = dir
		}
	}
	return opts, true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
