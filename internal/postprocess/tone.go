package postprocess

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"repurpose/internal/entity"
)

type toneRule struct {
	pattern     *regexp.Regexp
	replacement string
	matchCase   bool
}

// word 构建整词、大小写不敏感的替换规则，expr 为正则片段
func word(expr, replacement string) toneRule {
	return toneRule{
		pattern:     regexp.MustCompile(`(?i)\b(?:` + expr + `)\b`),
		replacement: replacement,
		matchCase:   true,
	}
}

// punct 构建字面替换规则，replacement 支持 $1 引用
func punct(expr, replacement string) toneRule {
	return toneRule{pattern: regexp.MustCompile(expr), replacement: replacement}
}

const apostrophe = `['’]`

var expandContractions = []toneRule{
	word(`don`+apostrophe+`t`, "do not"),
	word(`doesn`+apostrophe+`t`, "does not"),
	word(`won`+apostrophe+`t`, "will not"),
	word(`can`+apostrophe+`t`, "cannot"),
	word(`you`+apostrophe+`re`, "you are"),
	word(`I`+apostrophe+`m`, "I am"),
	word(`we`+apostrophe+`re`, "we are"),
}

var toneRules = map[entity.Tone][]toneRule{
	entity.ToneCasual: {
		word(`do not`, "don't"),
		word(`does not`, "doesn't"),
		word(`will not`, "won't"),
		word(`cannot`, "can't"),
		word(`you are`, "you're"),
		word(`I am`, "I'm"),
		word(`we are`, "we're"),
		word(`hello`, "hey"),
		word(`greetings`, "hi there"),
	},
	entity.ToneProfessional: append(append([]toneRule{}, expandContractions...),
		word(`hey`, "hello"),
		word(`hi`, "good day"),
		punct(`!+`, "."),
	),
	entity.ToneFriendly: {
		word(`hello`, "hello there"),
		word(`hi`, "hi friend"),
		word(`thank you`, "thank you so much"),
		word(`thanks`, "thanks so much"),
		word(`best regards`, "best wishes"),
		word(`sincerely`, "warmly"),
		punct(`([^.])\.(\s*)$`, "$1!$2"),
	},
	entity.ToneFormal: append(append([]toneRule{}, expandContractions...),
		word(`get`, "obtain"),
		word(`show`, "demonstrate"),
		word(`tell`, "inform"),
		word(`help`, "assist"),
		word(`buy`, "purchase"),
		word(`hey|hi`, "dear"),
		punct(`\?!+`, "?"),
		punct(`!+`, "."),
	),
	entity.ToneHumorous: {
		word(`awesome`, "absolutely fantastic"),
		word(`great`, "amazing"),
		word(`fast`, "lightning-fast"),
		word(`good`, "pretty sweet"),
	},
	entity.TonePersuasive: {
		word(`today`, "today only"),
		word(`available`, "available now"),
		word(`free`, "absolutely free"),
		word(`get`, "grab"),
		word(`try`, "experience"),
		word(`click`, "tap now"),
		word(`good`, "incredible"),
		word(`nice`, "amazing"),
		word(`help`, "transform"),
	},
	entity.ToneInformative: {
		word(`thing`, "element"),
		word(`stuff`, "information"),
		word(`a lot`, "numerous"),
		word(`some`, "several"),
		word(`many`, "multiple"),
		word(`big`, "significant"),
	},
}

var (
	emojiPattern       = regexp.MustCompile(`[\x{1F300}-\x{1F6FF}\x{1F900}-\x{1F9FF}\x{2600}-\x{27BF}]`)
	trailingDotPattern = regexp.MustCompile(`([^.])\.(\s*)$`)
)

const humorEmoji = "😄"

// ApplyTone rewrites text with the ordered, deterministic rule list of tone.
// Unknown tones return the text unchanged.
func ApplyTone(text string, tone entity.Tone) string {
	rules, ok := toneRules[tone]
	if !ok || text == "" {
		return text
	}
	for _, rule := range rules {
		text = rule.apply(text)
	}
	if tone == entity.ToneHumorous && !emojiPattern.MatchString(text) {
		text = trailingDotPattern.ReplaceAllString(text, "$1 "+humorEmoji+".$2")
	}
	return text
}

func (r toneRule) apply(text string) string {
	if !r.matchCase {
		return r.pattern.ReplaceAllString(text, r.replacement)
	}
	return r.pattern.ReplaceAllStringFunc(text, func(match string) string {
		return matchCase(match, r.replacement)
	})
}

// matchCase 让替换词的首字母大小写与原文一致，代词 I 始终大写
func matchCase(match, replacement string) string {
	first, _ := utf8.DecodeRuneInString(match)
	if strings.HasPrefix(replacement, "I ") || strings.HasPrefix(replacement, "I'") {
		return replacement
	}
	r, size := utf8.DecodeRuneInString(replacement)
	if unicode.IsUpper(first) {
		return string(unicode.ToUpper(r)) + replacement[size:]
	}
	return string(unicode.ToLower(r)) + replacement[size:]
}
