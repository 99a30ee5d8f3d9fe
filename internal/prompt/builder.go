package prompt

import (
	"fmt"
	"strings"

	"repurpose/internal/entity"
)

// Input 构建单个平台提示词所需的参数
type Input struct {
	Text     string
	Platform entity.Platform
	Tone     entity.Tone
	Title    string
	Keywords []string
}

// Build renders the provider prompt for one platform. It is pure: the same
// input always yields the same prompt, and only the target platform's
// guideline is embedded.
func Build(in Input) string {
	profile := in.Tone.Profile()
	spec := in.Platform.Spec()
	platform := string(in.Platform)

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = "Not provided"
	}
	keywords := "None"
	if cleaned := cleanKeywords(in.Keywords); len(cleaned) > 0 {
		keywords = strings.Join(cleaned, ", ")
	}

	var b strings.Builder
	b.WriteString(profile.SystemDirective)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "You are a content repurposing assistant. Generate content tailored exclusively for %s.\n\n", platform)

	b.WriteString("## Input\n")
	fmt.Fprintf(&b, "- Title: %s\n", title)
	fmt.Fprintf(&b, "- Main Content: \"\"\"%s\"\"\"\n", in.Text)
	fmt.Fprintf(&b, "- Tone: %s\n", in.Tone)
	fmt.Fprintf(&b, "- Target Platform: %s\n", platform)
	fmt.Fprintf(&b, "- Keywords: %s\n\n", keywords)

	b.WriteString("## Tone\n")
	b.WriteString(profile.Instructions)
	b.WriteString("\n\n")

	b.WriteString("## Platform Guideline\n")
	b.WriteString(spec.Guideline)
	b.WriteString("\n\n")

	b.WriteString("## Rules\n")
	fmt.Fprintf(&b, "- Generate content only for %s. Do not reference other platforms.\n", platform)
	b.WriteString("- Do not invent facts not present in the input.\n")
	b.WriteString("- Keep it human, natural, and compelling.\n")
	b.WriteString("- Include a 'Title:' line and a 'Keywords:' line with comma-separated keywords before the body.\n\n")
	b.WriteString("Now generate the repurposed content.")

	return b.String()
}

func cleanKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if trimmed := strings.TrimSpace(k); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
