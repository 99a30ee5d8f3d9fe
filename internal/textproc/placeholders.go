package textproc

import (
	"regexp"
	"sort"
)

var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// ExtractPlaceholders returns the sorted, de-duplicated placeholder names
// found in content.
func ExtractPlaceholders(content string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	sort.Strings(names)
	return names
}

// HasPlaceholder 判断内容是否至少包含一个占位符
func HasPlaceholder(content string) bool {
	return placeholderPattern.MatchString(content)
}

// FillPlaceholders substitutes every {{name}} that has a value. Placeholders
// without a value are kept verbatim. used lists the supplied names that
// actually occurred in content, sorted.
func FillPlaceholders(content string, values map[string]string) (text string, used []string) {
	seen := make(map[string]struct{})
	text = placeholderPattern.ReplaceAllStringFunc(content, func(token string) string {
		name := placeholderPattern.FindStringSubmatch(token)[1]
		value, ok := values[name]
		if !ok {
			return token
		}
		seen[name] = struct{}{}
		return value
	})

	used = make([]string, 0, len(seen))
	for name := range seen {
		used = append(used, name)
	}
	sort.Strings(used)
	return text, used
}

// MissingPlaceholders 返回 content 中未提供取值的占位符
func MissingPlaceholders(content string, values map[string]string) []string {
	missing := []string{}
	for _, name := range ExtractPlaceholders(content) {
		if _, ok := values[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
