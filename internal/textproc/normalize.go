package textproc

import (
	"regexp"
	"strings"
)

var fillerWords = []string{
	"okay",
	"um",
	"uh",
	"like",
	"you know",
	"so",
	"actually",
	"basically",
	"right",
}

var (
	fillerPattern     = regexp.MustCompile(`(?i)\b(` + strings.Join(fillerWords, "|") + `)\b`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// FillerWords 返回过滤的口头禅词表副本
func FillerWords() []string {
	out := make([]string, len(fillerWords))
	copy(out, fillerWords)
	return out
}

// Normalize strips conversational filler tokens as whole words, collapses
// whitespace runs into single spaces and trims the result.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	// 先折叠空白，"you  know" 这类多空格写法也能被匹配
	collapsed := collapseWhitespace(text)
	// 删除一个口头禅可能让两侧拼成新的口头禅，如 "you um know"
	for {
		stripped := collapseWhitespace(fillerPattern.ReplaceAllString(collapsed, ""))
		if stripped == collapsed {
			return stripped
		}
		collapsed = stripped
	}
}

func collapseWhitespace(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}
