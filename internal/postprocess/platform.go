package postprocess

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"repurpose/internal/entity"
)

const (
	ellipsis         = "..."
	linkedInClosing  = "Best regards"
	facebookPrompt   = "What do you think? Let me know in the comments! 👇"
	youtubeCTA       = "CTA: Subscribe for more videos like this!"
	tiktokSparkle    = " ✨"
	emailFallback    = "Quick update"
	emailSubjectMax  = 50
	blogHeadlineMax  = 100
	blogMinimumLines = 3
)

var (
	sentenceBreakPattern = regexp.MustCompile(`([.!?])[ \t]+(\S)`)
	lineBreakPattern     = regexp.MustCompile(`\s*\n\s*`)
	markdownBoldPattern  = regexp.MustCompile(`\*\*(.+?)\*\*`)
	markdownHeadPattern  = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
	nonWordPattern       = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
)

// ApplyPlatform applies the structural rules of platform. Platforms without a
// length limit are idempotent. Truncating platforms return text unchanged
// when it already fits, so a second pass over their output is a no-op.
// An empty platform leaves the text untouched.
func ApplyPlatform(text string, platform entity.Platform) string {
	if platform == "" {
		return text
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}

	switch platform {
	case entity.PlatformTwitter:
		return truncate(text, platform.Spec().Limit)
	case entity.PlatformTiktok:
		return formatTiktok(text, platform.Spec().Limit)
	case entity.PlatformInstagram:
		return sentenceBreakPattern.ReplaceAllString(text, "$1\n\n$2")
	case entity.PlatformLinkedIn:
		return formatLinkedIn(text)
	case entity.PlatformWhatsapp:
		text = markdownHeadPattern.ReplaceAllString(text, "")
		return markdownBoldPattern.ReplaceAllString(text, "*$1*")
	case entity.PlatformEmail:
		return formatEmail(text)
	case entity.PlatformBlog:
		return formatBlog(text)
	case entity.PlatformYouTube:
		if strings.Contains(strings.ToLower(text), "subscribe") {
			return text
		}
		return text + "\n\n" + youtubeCTA
	case entity.PlatformFacebook:
		if strings.Contains(text, "?") || strings.Contains(text, "What do you think") {
			return text
		}
		return text + "\n\n" + facebookPrompt
	default:
		return text
	}
}

// truncate 超过 limit 个字符时截断并以 ... 结尾，结果不超过 limit
func truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	cut := strings.TrimRight(string(runes[:limit-utf8.RuneCountInString(ellipsis)]), " \t\n")
	return cut + ellipsis
}

func formatTiktok(text string, limit int) string {
	if utf8.RuneCountInString(text) > limit {
		return truncate(text, limit)
	}
	// 替换句号后仍不能超过 limit
	fits := utf8.RuneCountInString(text)-1+utf8.RuneCountInString(tiktokSparkle) <= limit
	if fits && strings.HasSuffix(text, ".") && !strings.HasSuffix(text, ellipsis) {
		return strings.TrimSuffix(text, ".") + tiktokSparkle
	}
	return text
}

func formatLinkedIn(text string) string {
	var paragraphs []string
	for _, line := range lineBreakPattern.Split(text, -1) {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	out := strings.Join(paragraphs, "\n\n")
	if !strings.Contains(out, linkedInClosing) && !strings.Contains(out, "Sincerely") {
		out += "\n\n" + linkedInClosing
	}
	return out
}

func formatEmail(text string) string {
	if strings.Contains(strings.ToLower(text), "subject:") {
		return text
	}
	firstLine := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
	var subject string
	if utf8.RuneCountInString(firstLine) > emailSubjectMax {
		runes := []rune(firstLine)
		subject = strings.TrimSpace(string(runes[:emailSubjectMax-len(ellipsis)])) + ellipsis
	} else {
		subject = strings.TrimSpace(nonWordPattern.ReplaceAllString(firstLine, ""))
	}
	if subject == "" {
		subject = emailFallback
	}
	return "Subject: " + subject + "\n\n" + text
}

func formatBlog(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) < blogMinimumLines {
		return text
	}
	first := lines[0]
	if !strings.HasPrefix(first, "#") && utf8.RuneCountInString(first) < blogHeadlineMax {
		lines[0] = "# " + first
	}
	return strings.Join(lines, "\n")
}
