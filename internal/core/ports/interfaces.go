package ports

import (
	"context"

	"tubescout/internal/core/domain"
)

// VideoSource defines the contract for reading a channel catalog from the platform API.
type VideoSource interface {
	// ResolveChannel returns the channel title and uploads playlist.
	// Returns domain.ErrChannelNotFound when the ID matches nothing.
	ResolveChannel(ctx context.Context, channelID string) (*domain.Channel, error)

	// ListUploads returns one page of the playlist. An empty pageToken asks for the first page.
	ListUploads(ctx context.Context, playlistID, pageToken string, pageSize int64) (*domain.UploadPage, error)

	// VideoDetails looks up duration and tags for at most 50 IDs, keyed by video ID.
	VideoDetails(ctx context.Context, videoIDs []string) (map[string]domain.VideoDetails, error)
}

// SourceFactory builds a VideoSource for one credential.
type SourceFactory func(ctx context.Context, apiKey string) (VideoSource, error)

// WorkbookWriter persists collected records as a spreadsheet.
type WorkbookWriter interface {
	Write(path string, records []domain.VideoRecord) error
}

// Browser launches automated browser sessions.
type Browser interface {
	Launch(ctx context.Context, opts domain.LaunchOptions) (BrowserSession, error)
}

// BrowserSession is one running browser process with a single active page.
// The caller must call Close.
type BrowserSession interface {
	Goto(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	Close() error
}

// ProfileCloner copies a persistent browser profile into scratch space.
type ProfileCloner interface {
	CloneProfile(sourceDir, profileName, scratchDir string) error
}

// LogStore persists client-reported status entries.
type LogStore interface {
	AppendLog(entry domain.LogEntry) error
	Logs() ([]domain.LogEntry, error)
}

// Picker opens host-native selection dialogs. An empty path means the user cancelled.
type Picker interface {
	PickFolder(ctx context.Context) (string, error)
	PickFile(ctx context.Context, title string) (string, error)
}
