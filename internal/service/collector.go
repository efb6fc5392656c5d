package service

import (
	"context"
	"fmt"
	"iter"
	"log"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"tubescout/internal/core/domain"
	"tubescout/internal/core/ports"
)

const (
	// PageSize is the uploads page size requested per call.
	PageSize = 50
	// DetailsBatchSize is the most IDs sent in one details lookup.
	DetailsBatchSize = 50

	watchURLPrefix = "https://www.youtube.com/watch?v="
)

// OutputLocator decides where a generated workbook is written.
type OutputLocator interface {
	EnsureDirs() error
	OutputPath(filename string) string
}

// Collector scrapes channel catalogs into a spreadsheet.
type Collector struct {
	sources ports.SourceFactory
	writer  ports.WorkbookWriter
	output  OutputLocator
	logger  *log.Logger
	now     func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(
	sources ports.SourceFactory,
	writer ports.WorkbookWriter,
	output OutputLocator,
	logger *log.Logger,
) *Collector {
	return &Collector{
		sources: sources,
		writer:  writer,
		output:  output,
		logger:  logger,
		now:     time.Now,
	}
}

// Collect returns the progress stream of one collection run. The run does
// its work while the stream is consumed and stops as soon as the consumer
// stops iterating or ctx is done; nothing is yielded or written after that.
func (c *Collector) Collect(ctx context.Context, apiKey, channelIDs string) iter.Seq[string] {
	return func(yield func(string) bool) {
		run := &domain.CollectionRun{
			ID:         uuid.New().String(),
			ChannelIDs: SplitChannelIDs(channelIDs),
			StartedAt:  c.now(),
		}
		c.logger.Printf("[RUN %s] Starting collection for %d channel(s)", run.ID, len(run.ChannelIDs))

		listening := true
		emit := func(msg string) bool {
			if listening && ctx.Err() == nil {
				listening = yield(msg)
			} else {
				listening = false
			}
			return listening
		}
		defer func() {
			if err := ctx.Err(); err != nil {
				c.logger.Printf("[RUN %s] Cancelled: %v", run.ID, err)
			}
		}()

		if !emit("Connecting to YouTube API...") {
			return
		}
		if strings.TrimSpace(apiKey) == "" {
			c.logger.Printf("[RUN %s] %v", run.ID, domain.ErrMissingCredential)
			emit("Error: API key is required.")
			return
		}

		source, err := c.sources(ctx, apiKey)
		if err != nil {
			c.logger.Printf("[RUN %s] ERROR: %v", run.ID, err)
			emit(fmt.Sprintf("Critical Error: %v", err))
			return
		}

		if len(run.ChannelIDs) == 0 {
			c.logger.Printf("[RUN %s] %v", run.ID, domain.ErrNoChannels)
			emit("Error: No valid Channel IDs provided.")
			return
		}

		firstChannelName := "Unknown"
		total := len(run.ChannelIDs)
		for idx, channelID := range run.ChannelIDs {
			if !emit(fmt.Sprintf("--- Processing Channel %d/%d: %s ---", idx+1, total, channelID)) {
				return
			}

			records, name, ok := c.collectChannel(ctx, source, run.ID, channelID, emit)
			if !ok {
				return
			}
			if idx == 0 && name != "" {
				firstChannelName = name
			}
			run.Records = append(run.Records, records...)
		}

		if len(run.Records) == 0 {
			c.logger.Printf("[RUN %s] %v", run.ID, domain.ErrNoVideos)
			emit("Error: No videos found.")
			return
		}

		if !emit(fmt.Sprintf("--- Total: %d videos collected from %d channels ---", len(run.Records), total)) {
			return
		}

		filename := OutputFilename(firstChannelName, total, c.now())
		path, err := c.save(ctx, filename, run.Records)
		if err != nil {
			c.logger.Printf("[RUN %s] ERROR: %v", run.ID, err)
			emit(fmt.Sprintf("Critical Error: %v", err))
			return
		}
		c.logger.Printf("[RUN %s] Saved %d records to %s", run.ID, len(run.Records), path)

		if !emit("Success! Saved to: " + filename) {
			return
		}
		emit("Full Path: " + path)
	}
}

// collectChannel gathers every record of one channel. name is the resolved
// channel title, "" if resolution failed. ok is false once the run should
// stop. Any channel error is reported and yields no records.
func (c *Collector) collectChannel(
	ctx context.Context,
	source ports.VideoSource,
	runID, channelID string,
	emit func(string) bool,
) (records []domain.VideoRecord, name string, ok bool) {
	fail := func(err error) ([]domain.VideoRecord, string, bool) {
		if ctx.Err() != nil {
			return nil, name, false
		}
		c.logger.Printf("[RUN %s] ERROR: channel %s: %v", runID, channelID, err)
		return nil, name, emit(fmt.Sprintf("Error processing channel %s: %v", channelID, err))
	}

	if !emit(fmt.Sprintf("Resolving Channel ID %s...", channelID)) {
		return nil, "", false
	}
	channel, err := source.ResolveChannel(ctx, channelID)
	if err != nil {
		return fail(err)
	}
	name = channel.Title

	if !emit("Found Channel: " + channel.Title) {
		return nil, name, false
	}
	if !emit("Starting video fetch for playlist: " + channel.UploadsPlaylistID) {
		return nil, name, false
	}

	pageToken := ""
	for page := 1; ; page++ {
		resp, err := source.ListUploads(ctx, channel.UploadsPlaylistID, pageToken, PageSize)
		if err != nil {
			return fail(fmt.Errorf("page %d: %w", page, err))
		}

		items := make([]domain.UploadItem, 0, len(resp.Items))
		ids := make([]string, 0, len(resp.Items))
		for _, item := range resp.Items {
			// deleted and private entries carry no video reference
			if item.VideoID == "" {
				continue
			}
			items = append(items, item)
			ids = append(ids, item.VideoID)
		}

		if !emit(fmt.Sprintf("  > Page %d: Found %d videos.", page, len(ids))) {
			return nil, name, false
		}

		if len(ids) > 0 {
			details, err := fetchDetails(ctx, source, ids)
			if err != nil {
				return fail(fmt.Errorf("video details: %w", err))
			}
			for _, item := range items {
				records = append(records, buildRecord(item, details[item.VideoID]))
			}
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	c.logger.Printf("[RUN %s] Channel %s complete: %d videos", runID, channelID, len(records))
	if !emit(fmt.Sprintf("Channel Complete. Collected %d videos.", len(records))) {
		return nil, name, false
	}
	return records, name, true
}

func fetchDetails(ctx context.Context, source ports.VideoSource, ids []string) (map[string]domain.VideoDetails, error) {
	merged := make(map[string]domain.VideoDetails, len(ids))
	for chunk := range slices.Chunk(ids, DetailsBatchSize) {
		details, err := source.VideoDetails(ctx, chunk)
		if err != nil {
			return nil, err
		}
		for id, d := range details {
			merged[id] = d
		}
	}
	return merged, nil
}

func buildRecord(item domain.UploadItem, details domain.VideoDetails) domain.VideoRecord {
	duration := details.Duration
	if duration == "" {
		duration = domain.DurationUnknown
	}
	return domain.VideoRecord{
		Title:         item.Title,
		Channel:       item.ChannelTitle,
		PublishedDate: PublishedDate(item.PublishedAt),
		URL:           watchURLPrefix + item.VideoID,
		Description:   item.Description,
		ID:            item.VideoID,
		Duration:      duration,
		Tags:          strings.Join(details.Tags, ","),
		Type:          domain.RecordType,
	}
}

func (c *Collector) save(ctx context.Context, filename string, records []domain.VideoRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := c.output.EnsureDirs(); err != nil {
		return "", err
	}
	path := c.output.OutputPath(filename)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if err := c.writer.Write(path, records); err != nil {
		return "", err
	}
	return path, nil
}

// SplitChannelIDs splits a comma-separated list, dropping blanks.
func SplitChannelIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// PublishedDate reduces an RFC 3339 timestamp to its date. Unparseable
// values are returned unchanged.
func PublishedDate(raw string) string {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return t.Format(time.DateOnly)
}
