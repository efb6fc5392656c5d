package service

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// MultiChannelMarker tags files built from more than one channel.
const MultiChannelMarker = "_and_others"

const filenameTimestamp = "20060102_150405"

// OutputFilename names the workbook of a run from its first channel title.
func OutputFilename(firstChannelName string, channelCount int, at time.Time) string {
	name := SanitizeChannelName(firstChannelName)
	ts := at.Format(filenameTimestamp)
	if channelCount > 1 {
		return fmt.Sprintf("MultiChannel_%s%s_%s.xlsx", name, MultiChannelMarker, ts)
	}
	return fmt.Sprintf("Channel_%s_%s.xlsx", name, ts)
}

// SanitizeChannelName keeps letters, digits, spaces, '-' and '_'.
func SanitizeChannelName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
