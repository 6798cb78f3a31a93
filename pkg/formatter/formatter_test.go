package formatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSizeMB(t *testing.T) {
	size := 12.3456
	assert.Equal(t, "12.35MB", FormatSizeMB(&size))
	assert.Equal(t, "unknown", FormatSizeMB(nil))
}

func TestEscapeMarkdownV2(t *testing.T) {
	assert.Equal(t, `user\.name\_1`, EscapeMarkdownV2("user.name_1"))
	assert.Equal(t, "plain", EscapeMarkdownV2("plain"))
}
