package textproc

import (
	"strings"
	"unicode/utf8"
)

const wordsPerMinute = 200

func WordCount(text string) int {
	return len(strings.Fields(text))
}

// CharCount counts runes, not bytes.
func CharCount(text string) int {
	return utf8.RuneCountInString(text)
}

// ReadTime estimates reading minutes as max(1, ceil(words/200)).
func ReadTime(words int) int {
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Snippet 截取前 limit 个字符，超出部分以 ... 结尾
func Snippet(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + "..."
}
