package llm

import (
	"strings"
)

const (
	titleMarker    = "title:"
	keywordsMarker = "keywords:"
)

// ParseGeneration splits raw provider text into title, keywords and body.
// Marker lines are matched case-insensitively, tolerate markdown decoration
// such as "**Title:**", and are removed from the body. Text without markers
// is returned whole as the body.
func ParseGeneration(provider, raw string) (*Generation, error) {
	gen := &Generation{}
	var (
		body         []string
		titleSeen    bool
		keywordsSeen bool
	)

	for _, line := range strings.Split(raw, "\n") {
		label, rest := splitMarker(line)
		switch {
		case label == titleMarker && !titleSeen:
			titleSeen = true
			gen.Title = cleanValue(rest)
			continue
		case label == keywordsMarker && !keywordsSeen:
			keywordsSeen = true
			gen.Keywords = splitKeywords(rest)
			continue
		}
		body = append(body, line)
	}

	gen.Content = strings.TrimSpace(strings.Join(body, "\n"))
	if gen.Content == "" {
		return nil, newProviderError(provider, ErrKindEmptyResponse, 0, errEmptyResponse)
	}
	return gen, nil
}

// splitMarker 识别 Title:/Keywords: 标记行，返回小写标记与其后的内容
func splitMarker(line string) (string, string) {
	stripped := strings.TrimLeft(strings.TrimSpace(line), "*#_> -")
	lower := strings.ToLower(stripped)
	for _, marker := range []string{titleMarker, keywordsMarker} {
		if strings.HasPrefix(lower, marker) {
			return marker, stripped[len(marker):]
		}
	}
	return "", ""
}

func cleanValue(value string) string {
	return strings.Trim(strings.TrimSpace(value), "*_\"' ")
}

func splitKeywords(value string) []string {
	var keywords []string
	for _, part := range strings.Split(cleanValue(value), ",") {
		keyword := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(part), "#"))
		if keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	return keywords
}
