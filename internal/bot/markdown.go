package bot

import (
	"strings"
	"unicode/utf8"
)

// Characters reserved by MarkdownV2, see https://core.telegram.org/bots/api#markdownv2-style.
const markdownV2Reserved = "_*[]()~`>#+-=|{}.!\\"

const ellipsis = '…'

// formatReply prepares text for a MarkdownV2 message. Text longer than limit
// runes is cut to limit-1 runes followed by an ellipsis; every reserved
// character is then escaped so provider output renders literally. The limit
// counts visible runes, which is what Telegram checks after parsing.
func formatReply(text string, limit int) string {
	truncated := utf8.RuneCountInString(text) > limit
	keep := limit
	if truncated {
		keep = limit - 1
	}

	var b strings.Builder
	b.Grow(len(text) + len(text)/8)

	n := 0
	for _, r := range text {
		if n == keep {
			break
		}
		n++

		if r < utf8.RuneSelf && strings.IndexByte(markdownV2Reserved, byte(r)) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}

	if truncated {
		b.WriteRune(ellipsis)
	}

	return b.String()
}
