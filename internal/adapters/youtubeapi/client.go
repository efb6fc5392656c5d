package youtubeapi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sosodev/duration"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"tubescout/internal/core/domain"
	"tubescout/internal/core/ports"
)

// MaxIDsPerRequest is the API limit for id lists and page sizes.
const MaxIDsPerRequest = 50

var (
	channelParts  = []string{"contentDetails", "snippet"}
	playlistParts = []string{"snippet", "contentDetails"}
	videoParts    = []string{"contentDetails", "snippet"}
)

// Client implements ports.VideoSource using the YouTube Data API v3.
type Client struct {
	svc     *youtube.Service
	limiter *rate.Limiter
}

// NewClient creates a Client for one API key.
// A requestsPerSecond of 0 disables pacing.
func NewClient(ctx context.Context, apiKey string, requestsPerSecond float64, opts ...option.ClientOption) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, domain.ErrMissingCredential
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}

	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}

	return &Client{
		svc:     svc,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// Factory returns a ports.SourceFactory bound to the given pacing and options.
func Factory(requestsPerSecond float64, opts ...option.ClientOption) ports.SourceFactory {
	return func(ctx context.Context, apiKey string) (ports.VideoSource, error) {
		return NewClient(ctx, apiKey, requestsPerSecond, opts...)
	}
}

// ResolveChannel fetches the uploads playlist ID and title for a channel.
func (c *Client) ResolveChannel(ctx context.Context, channelID string) (*domain.Channel, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.svc.Channels.List(channelParts).Id(channelID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("channels.list %s: %w", channelID, err)
	}

	if len(resp.Items) == 0 || resp.Items[0].ContentDetails == nil || resp.Items[0].ContentDetails.RelatedPlaylists == nil {
		return nil, fmt.Errorf("channel ID %s: %w", channelID, domain.ErrChannelNotFound)
	}

	item := resp.Items[0]
	ch := &domain.Channel{
		ID:                item.Id,
		UploadsPlaylistID: item.ContentDetails.RelatedPlaylists.Uploads,
	}
	if item.Snippet != nil {
		ch.Title = item.Snippet.Title
	}
	if ch.ID == "" {
		ch.ID = channelID
	}
	if ch.UploadsPlaylistID == "" {
		return nil, fmt.Errorf("channel ID %s has no uploads listing: %w", channelID, domain.ErrChannelNotFound)
	}
	return ch, nil
}

// ListUploads fetches one page of a playlist.
func (c *Client) ListUploads(ctx context.Context, playlistID, pageToken string, pageSize int64) (*domain.UploadPage, error) {
	if pageSize <= 0 || pageSize > MaxIDsPerRequest {
		pageSize = MaxIDsPerRequest
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	call := c.svc.PlaylistItems.List(playlistParts).
		PlaylistId(playlistID).
		MaxResults(pageSize).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("playlistItems.list %s: %w", playlistID, err)
	}

	page := &domain.UploadPage{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		if item.Snippet == nil {
			continue
		}
		s := item.Snippet
		entry := domain.UploadItem{
			Title:        s.Title,
			ChannelTitle: s.ChannelTitle,
			PublishedAt:  s.PublishedAt,
			Description:  s.Description,
		}
		if s.ResourceId != nil {
			entry.VideoID = s.ResourceId.VideoId
		}
		page.Items = append(page.Items, entry)
	}
	return page, nil
}

// VideoDetails fetches duration and tags for up to MaxIDsPerRequest videos.
func (c *Client) VideoDetails(ctx context.Context, videoIDs []string) (map[string]domain.VideoDetails, error) {
	details := make(map[string]domain.VideoDetails, len(videoIDs))
	if len(videoIDs) == 0 {
		return details, nil
	}
	if len(videoIDs) > MaxIDsPerRequest {
		return nil, fmt.Errorf("videos.list accepts at most %d ids, got %d", MaxIDsPerRequest, len(videoIDs))
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.svc.Videos.List(videoParts).Id(videoIDs...).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("videos.list: %w", err)
	}

	for _, item := range resp.Items {
		var d domain.VideoDetails
		iso := "PT0S"
		if item.ContentDetails != nil && item.ContentDetails.Duration != "" {
			iso = item.ContentDetails.Duration
		}
		d.Duration = FormatISODuration(iso)
		if item.Snippet != nil {
			d.Tags = item.Snippet.Tags
			d.CategoryID = item.Snippet.CategoryId
		}
		details[item.Id] = d
	}
	return details, nil
}

// FormatISODuration renders an ISO-8601 duration as H:MM:SS, prefixed with a
// day count for values of a day or more. Unparseable input is returned as-is.
func FormatISODuration(iso string) string {
	parsed, err := duration.Parse(iso)
	if err != nil {
		return iso
	}
	return FormatClock(parsed.ToTimeDuration())
}

// FormatClock renders d as 0:04:13, or 1 day, 2:00:00 past a day.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	total := int64(d / time.Second)
	days := total / 86400
	rest := total % 86400
	clock := fmt.Sprintf("%d:%02d:%02d", rest/3600, (rest%3600)/60, rest%60)

	switch {
	case days == 1:
		return "1 day, " + clock
	case days > 1:
		return fmt.Sprintf("%d days, %s", days, clock)
	default:
		return clock
	}
}
