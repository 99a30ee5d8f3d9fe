package entity

import (
	"fmt"
	"strings"
)

// Tone 内容语气，封闭枚举
type Tone string

const (
	ToneCasual       Tone = "Casual"
	ToneProfessional Tone = "Professional"
	ToneFriendly     Tone = "Friendly"
	ToneFormal       Tone = "Formal"
	ToneHumorous     Tone = "Humorous"
	TonePersuasive   Tone = "Persuasive"
	ToneInformative  Tone = "Informative"
)

// ToneProfile 语气对应的提示词片段
type ToneProfile struct {
	SystemDirective string
	Instructions    string
}

var toneProfiles = map[Tone]ToneProfile{
	ToneCasual: {
		SystemDirective: "You are a friendly, casual content writer. Make content feel conversational and approachable.",
		Instructions:    "Make this more casual and friendly. Use contractions, casual language, and a conversational tone. Keep the same meaning but make it feel like talking to a friend.",
	},
	ToneProfessional: {
		SystemDirective: "You are a professional business writer. Make content clear, credible, and polished.",
		Instructions:    "Make this more professional and polished. Use proper grammar, formal language, and a business-appropriate tone. Maintain clarity and credibility.",
	},
	ToneFriendly: {
		SystemDirective: "You are an enthusiastic, warm content writer. Make content feel welcoming and positive.",
		Instructions:    "Make this more friendly and welcoming. Add warmth, enthusiasm, and positive energy. Use inclusive language and make the reader feel valued.",
	},
	ToneFormal: {
		SystemDirective: "You are a formal business writer. Make content sophisticated and official.",
		Instructions:    "Make this more formal and sophisticated. Use proper business language, avoid contractions, and maintain a serious, official tone.",
	},
	ToneHumorous: {
		SystemDirective: "You are a witty content writer. Add appropriate humor while maintaining the message.",
		Instructions:    "Add appropriate humor and wit to this content. Use clever wordplay, light jokes, or amusing observations while keeping the core message intact.",
	},
	TonePersuasive: {
		SystemDirective: "You are a persuasive copywriter. Make content compelling and action-oriented.",
		Instructions:    "Make this more persuasive and compelling. Add urgency, social proof, benefits, and strong calls-to-action. Focus on motivating the reader to take action.",
	},
	ToneInformative: {
		SystemDirective: "You are an educational content writer. Make content clear, helpful, and informative.",
		Instructions:    "Make this more informative and educational. Add helpful details, clarify concepts, and structure information clearly for easy understanding.",
	},
}

// AllTones 按声明顺序返回全部语气
func AllTones() []Tone {
	return []Tone{ToneCasual, ToneProfessional, ToneFriendly, ToneFormal, ToneHumorous, TonePersuasive, ToneInformative}
}

// ParseTone 大小写不敏感地解析语气
func ParseTone(value string) (Tone, error) {
	trimmed := strings.TrimSpace(value)
	for _, tone := range AllTones() {
		if strings.EqualFold(string(tone), trimmed) {
			return tone, nil
		}
	}
	return "", fmt.Errorf("unsupported tone %q", value)
}

// Profile 返回语气的提示词片段，未知语气返回零值
func (t Tone) Profile() ToneProfile {
	return toneProfiles[t]
}

func (t Tone) Valid() bool {
	_, ok := toneProfiles[t]
	return ok
}
