package domain

import "fmt"

// Keys the companion userscript sends, plus the one the server adds.
const (
	LogKeyVideoID   = "videoId"
	LogKeyTitle     = "title"
	LogKeyStatus    = "status"
	LogKeyMessage   = "message"
	LogKeyTimestamp = "timestamp"
)

// LogEntry is a free-form status object reported by a client.
// No field is required; unknown fields are kept as-is.
type LogEntry map[string]any

func (e LogEntry) VideoID() string   { return e.field(LogKeyVideoID) }
func (e LogEntry) Title() string     { return e.field(LogKeyTitle) }
func (e LogEntry) Status() string    { return e.field(LogKeyStatus) }
func (e LogEntry) Message() string   { return e.field(LogKeyMessage) }
func (e LogEntry) Timestamp() string { return e.field(LogKeyTimestamp) }

func (e LogEntry) field(key string) string {
	v, ok := e[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
