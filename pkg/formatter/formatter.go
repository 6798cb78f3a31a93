package formatter

import (
	"fmt"
	"strings"
)

// FormatSizeMB renders a size in megabytes for user-facing messages.
// Example: 12.3456 -> "12.35MB". Unknown sizes render as "unknown".
func FormatSizeMB(sizeMB *float64) string {
	if sizeMB == nil {
		return "unknown"
	}
	return fmt.Sprintf("%.2fMB", *sizeMB)
}

// EscapeMarkdownV2 escapes special characters in Markdown V2 format
func EscapeMarkdownV2(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			sb.WriteRune('\\')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
