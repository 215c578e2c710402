package utils

import (
	"strings"
	"time"
)

const (
	// DateLayout is DD.MM.YYYY
	DateLayout = "02.01.2006"
	// StampLayout is DD.MM.YYYY HH:MM
	StampLayout = "02.01.2006 15:04"
	// DatePlaceholder is replaced with today's date in system prompts.
	DatePlaceholder = "{{date}}"
)

// FormatDate as DD.MM.YYYY
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ExpandPrompt replaces every DatePlaceholder in prompt with the date of now.
func ExpandPrompt(prompt string, now time.Time) string {
	return strings.ReplaceAll(prompt, DatePlaceholder, FormatDate(now))
}
