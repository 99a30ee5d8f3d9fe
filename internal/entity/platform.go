package entity

import (
	"fmt"
	"strings"
)

// Platform 目标发布平台，封闭枚举
type Platform string

const (
	PlatformTwitter    Platform = "Twitter"
	PlatformThread     Platform = "Thread"
	PlatformLinkedIn   Platform = "LinkedIn"
	PlatformInstagram  Platform = "Instagram Caption"
	PlatformTiktok     Platform = "Tiktok"
	PlatformWhatsapp   Platform = "Whatsapp"
	PlatformEmail      Platform = "Email"
	PlatformBlog       Platform = "Blog Summary"
	PlatformYouTube    Platform = "YouTube Description"
	PlatformFacebook   Platform = "Facebook"
	platformGenericKey          = "generic"
)

// PlatformKind 平台的内容形态
type PlatformKind string

const (
	KindShortPost         PlatformKind = "ShortPost"
	KindThread            PlatformKind = "Thread"
	KindProfessionalPost  PlatformKind = "ProfessionalPost"
	KindImageCaption      PlatformKind = "ImageCaption"
	KindShortVideoCaption PlatformKind = "ShortVideoCaption"
	KindMessaging         PlatformKind = "Messaging"
	KindLongformSummary   PlatformKind = "LongformSummary"
	KindVideoDescription  PlatformKind = "VideoDescription"
	KindSocialPost        PlatformKind = "SocialPost"
)

// PlatformSpec 平台的格式约束与提示词指引
type PlatformSpec struct {
	Kind      PlatformKind
	Limit     int // 字符上限，0 表示不限
	Guideline string
}

var platformSpecs = map[Platform]PlatformSpec{
	PlatformTwitter: {
		Kind:      KindShortPost,
		Limit:     280,
		Guideline: "Keep it concise, at most 280 characters. Use emojis, hashtags, and mentions appropriately. Make it engaging for social media.",
	},
	PlatformThread: {
		Kind: KindThread,
		Guideline: "Start with a compelling hook (1 post, max 280 characters). Follow with 2-5 concise, value-driven posts (max 280 characters each). " +
			"End with a question or CTA. Number each post (e.g., 1/4, 2/4).",
	},
	PlatformLinkedIn: {
		Kind: KindProfessionalPost,
		Guideline: "Professional tone suitable for business networking. Use short paragraphs with whitespace for readability. " +
			"Highlight 2-3 key takeaways or industry insights based solely on the input.",
	},
	PlatformInstagram: {
		Kind: KindImageCaption,
		Guideline: "Visual-first caption. Start with an attention-grabbing line, use line breaks for readability, " +
			"include 1-2 emojis and 3-5 relevant hashtags, and end with a CTA to comment or share.",
	},
	PlatformTiktok: {
		Kind:      KindShortVideoCaption,
		Limit:     150,
		Guideline: "Short, punchy, trend-aware caption under 150 characters. Use popular phrases and hooks. Focus on engagement.",
	},
	PlatformWhatsapp: {
		Kind:      KindMessaging,
		Guideline: "A short chat message for a contact or group. Keep it personal and skimmable, with at most one emoji and no hashtags.",
	},
	PlatformEmail: {
		Kind:      KindMessaging,
		Guideline: "Subject line + body format. Professional but personal. Clear structure with greeting and sign-off.",
	},
	PlatformBlog: {
		Kind:      KindLongformSummary,
		Guideline: "Write a 50-70 word summary of the input. Include 1-2 suggested headings in bold. Keep it SEO-friendly with keywords.",
	},
	PlatformYouTube: {
		Kind: KindVideoDescription,
		Guideline: "Provide a clear 1-2 sentence summary. Include a 'Timestamps:' section with 3-5 key points. " +
			"Add a 'CTA:' line with a subscribe prompt and keywords.",
	},
	PlatformFacebook: {
		Kind:      KindSocialPost,
		Guideline: "Conversational and engaging. Good for community building. Can include questions to drive engagement.",
	},
}

var platformAliases = map[string]Platform{
	"x":                   PlatformTwitter,
	"twitter/x":           PlatformTwitter,
	"twitter/x (thread)":  PlatformThread,
	"instagram":           PlatformInstagram,
	"blog":                PlatformBlog,
	"youtube":             PlatformYouTube,
	"youtube description": PlatformYouTube,
}

// AllPlatforms 按声明顺序返回全部平台
func AllPlatforms() []Platform {
	return []Platform{
		PlatformTwitter, PlatformThread, PlatformLinkedIn, PlatformInstagram, PlatformTiktok,
		PlatformWhatsapp, PlatformEmail, PlatformBlog, PlatformYouTube, PlatformFacebook,
	}
}

// ParsePlatform 大小写不敏感地解析平台，支持常见别名
func ParsePlatform(value string) (Platform, error) {
	key := strings.ToLower(strings.TrimSpace(value))
	if key == "" {
		return "", fmt.Errorf("platform is empty")
	}
	if p, ok := platformAliases[key]; ok {
		return p, nil
	}
	for _, p := range AllPlatforms() {
		if strings.ToLower(string(p)) == key {
			return p, nil
		}
	}
	return "", fmt.Errorf("unsupported platform %q", value)
}

// ParseOptionalPlatform 解析可选平台，空值或 generic 表示不做平台格式化
func ParseOptionalPlatform(value string) (Platform, error) {
	key := strings.ToLower(strings.TrimSpace(value))
	if key == "" || key == platformGenericKey {
		return "", nil
	}
	return ParsePlatform(value)
}

func (p Platform) Spec() PlatformSpec {
	return platformSpecs[p]
}

func (p Platform) Valid() bool {
	_, ok := platformSpecs[p]
	return ok
}

// Label 展示用名称，空平台显示为 generic
func (p Platform) Label() string {
	if p == "" {
		return platformGenericKey
	}
	return string(p)
}
