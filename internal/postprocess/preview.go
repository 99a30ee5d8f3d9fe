package postprocess

import (
	"repurpose/internal/entity"
	"repurpose/internal/textproc"
)

// Enrich applies the tone rules and then the platform rules. Callers must run
// it exactly once per generated text.
func Enrich(text string, tone entity.Tone, platform entity.Platform) string {
	return ApplyPlatform(ApplyTone(text, tone), platform)
}

// Preview renders template content with sample values without calling any
// provider. An empty platform skips platform formatting.
func Preview(content string, tone entity.Tone, sampleData map[string]string, platform entity.Platform) entity.PreviewResult {
	filled, _ := textproc.FillPlaceholders(content, sampleData)
	rendered := Enrich(filled, tone, platform)

	found := textproc.ExtractPlaceholders(content)
	missing := textproc.MissingPlaceholders(content, sampleData)
	words := textproc.WordCount(rendered)

	return entity.PreviewResult{
		OriginalContent: content,
		Content:         rendered,
		Metadata: entity.PreviewMetadata{
			WordCount:           words,
			CharacterCount:      textproc.CharCount(rendered),
			Tone:                tone,
			Platform:            platform.Label(),
			PlaceholdersFound:   found,
			MissingPlaceholders: missing,
			EstimatedReadTime:   textproc.ReadTime(words),
			HasAllPlaceholders:  len(missing) == 0,
		},
	}
}
