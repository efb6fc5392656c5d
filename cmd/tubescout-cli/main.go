package main

import (
	"context"
	"flag"
	"fmt"
	"iter"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"tubescout/internal/adapters/browser"
	"tubescout/internal/adapters/localstorage"
	"tubescout/internal/adapters/spreadsheet"
	"tubescout/internal/adapters/youtubeapi"
	"tubescout/internal/config"
	"tubescout/internal/core/domain"
	"tubescout/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	mode := flag.String("mode", "collect", "collect, open or dedupe")
	apiKey := flag.String("api-key", cfg.APIKey, "YouTube Data API key (default $YOUTUBE_API_KEY)")
	channels := flag.String("channels", "", "comma-separated channel IDs to collect")
	linksFile := flag.String("links-file", "", "file of comma-separated video URLs to open")
	downloadDir := flag.String("download-dir", "", "browser download directory")
	browserPath := flag.String("browser", "", "browser executable to launch")
	dedupeDir := flag.String("dir", ".", "directory to deduplicate")
	ext := flag.String("ext", ".txt", "extension of files to deduplicate")
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Println("Received interrupt signal, cancelling...")
		cancel()
	}()

	storage := localstorage.NewLocalStorage(cfg.UploadDir, cfg.LogFile)

	switch *mode {
	case "collect":
		if *channels == "" {
			usage("-channels is required for collect")
		}
		collector := service.NewCollector(
			youtubeapi.Factory(cfg.APIRequestsPerS),
			spreadsheet.NewXLSXWriter(),
			storage,
			logger,
		)
		printAll(collector.Collect(ctx, *apiKey, *channels))

	case "open":
		if *linksFile == "" {
			usage("-links-file is required for open")
		}
		links, err := readLinks(*linksFile)
		if err != nil {
			logger.Fatalf("Failed to read links: %v", err)
		}
		fmt.Printf("Found %d links.\n", len(links))

		navigator := service.NewNavigator(
			browser.NewLauncher(cfg.BrowserPath),
			storage,
			service.ProfileSettings{
				SourceDir:  cfg.ProfileSourceDir,
				Name:       cfg.ProfileName,
				ScratchDir: cfg.ProfileScratch,
			},
			service.Timings{
				Startup:   cfg.StartupDelay,
				Settle:    cfg.SettleTime,
				FirstWait: cfg.FirstWait,
				Wait:      cfg.Wait,
				Tick:      cfg.Tick,
			},
			cfg.Headless,
			logger,
		)
		printAll(navigator.Open(ctx, domain.NavigateRequest{
			URLs:        links,
			DownloadDir: *downloadDir,
			BrowserPath: *browserPath,
		}))

	case "dedupe":
		res, err := localstorage.DedupeFiles(*dedupeDir, *ext)
		if err != nil {
			logger.Fatalf("Dedupe failed: %v", err)
		}
		for _, name := range res.Deleted {
			fmt.Printf("Deleted duplicate: %s\n", name)
		}
		for _, err := range res.Errors {
			logger.Printf("Skipped: %v", err)
		}
		fmt.Printf("Deleted %d duplicate file(s) in %s\n", len(res.Deleted), *dedupeDir)

	default:
		usage(fmt.Sprintf("unknown mode %q", *mode))
	}

	if ctx.Err() != nil {
		os.Exit(130)
	}
}

func printAll(messages iter.Seq[string]) {
	for msg := range messages {
		fmt.Println(msg)
	}
}

// readLinks reads URLs separated by commas or newlines.
func readLinks(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var links []string
	for _, link := range strings.FieldsFunc(string(data), func(r rune) bool { return r == ',' || r == '\n' || r == '\r' }) {
		if link = strings.TrimSpace(link); link != "" {
			links = append(links, link)
		}
	}
	if len(links) == 0 {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrNoURLs)
	}
	return links, nil
}

func usage(problem string) {
	fmt.Fprintln(os.Stderr, "Error:", problem)
	fmt.Fprintln(os.Stderr, "\nUsage:")
	fmt.Fprintln(os.Stderr, "  tubescout-cli -mode collect -channels UC...,UC... [-api-key KEY]")
	fmt.Fprintln(os.Stderr, "  tubescout-cli -mode open -links-file links.txt [-download-dir DIR] [-browser PATH]")
	fmt.Fprintln(os.Stderr, "  tubescout-cli -mode dedupe -dir DIR [-ext .txt]")
	os.Exit(2)
}
