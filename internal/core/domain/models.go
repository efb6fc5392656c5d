package domain

import (
	"errors"
	"time"
)

var (
	ErrMissingCredential = errors.New("API key is required")
	ErrNoChannels        = errors.New("no valid channel IDs provided")
	ErrChannelNotFound   = errors.New("channel not found")
	ErrNoVideos          = errors.New("no videos found")
	ErrNoURLs            = errors.New("no videos selected")
	ErrProfileNotFound   = errors.New("source profile not found")
)

// RecordType is the only value written in the Type column today.
const RecordType = "Video"

// DurationUnknown fills the Duration column when the details lookup
// returned nothing for a video.
const DurationUnknown = "N/A"

// VideoRecord is one spreadsheet row.
type VideoRecord struct {
	Title         string
	Channel       string
	PublishedDate string
	URL           string
	Description   string
	ID            string
	Duration      string
	Tags          string
	Type          string
}

// Channel is a resolved publisher with its uploads playlist.
type Channel struct {
	ID                string
	Title             string
	UploadsPlaylistID string
}

// UploadItem is one entry of an uploads listing.
// VideoID is empty for deleted or private entries.
type UploadItem struct {
	VideoID      string
	Title        string
	ChannelTitle string
	PublishedAt  string
	Description  string
}

// UploadPage is a single page of an uploads listing.
type UploadPage struct {
	Items         []UploadItem
	NextPageToken string
}

// VideoDetails holds the per-video fields only the videos endpoint returns.
type VideoDetails struct {
	Duration   string
	Tags       []string
	CategoryID string
}

// CollectionRun represents a single catalog collection request.
type CollectionRun struct {
	ID         string
	ChannelIDs []string
	Records    []VideoRecord
	StartedAt  time.Time
}

// NavigateRequest is the input of a browser navigation run.
type NavigateRequest struct {
	URLs        []string `json:"video_urls"`
	DownloadDir string   `json:"download_dir"`
	BrowserPath string   `json:"chromedriver_path"`
}

// LaunchOptions are the resolved settings handed to a browser adapter.
type LaunchOptions struct {
	UserDataDir    string
	ProfileName    string
	ExecutablePath string
	DownloadDir    string
	Headless       bool
}
