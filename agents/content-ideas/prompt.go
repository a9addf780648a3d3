package contentideas

import (
	"fmt"
	"strings"
)

// DefaultIdeaCount is used when no positive idea count is configured
const DefaultIdeaCount = 15

// DefaultTopics is the topic set used when no topics are configured
var DefaultTopics = []string{
	"Election season drama",
	"AI taking over jobs",
	"Dating app failures",
	"Corporate layoffs",
	"Influencer controversies",
	"Rent prices hitting records",
	"Social media algorithm changes",
}

// resolveTopics drops blank entries and falls back to DefaultTopics
func resolveTopics(topics []string) []string {
	var out []string
	for _, t := range topics {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), DefaultTopics...)
	}
	return out
}

// BuildPrompt assembles the generation prompt for count ideas around topics.
// The requested layout is what ParseIdeas reads back.
func BuildPrompt(topics []string, count int) string {
	if count <= 0 {
		count = DefaultIdeaCount
	}

	var sb strings.Builder
	for _, topic := range resolveTopics(topics) {
		sb.WriteString("- ")
		sb.WriteString(topic)
		sb.WriteString("\n")
	}

	return fmt.Sprintf(`You are a creative content strategist specializing in satire, humor, and political commentary.

Generate exactly %d video ideas for a creator who makes satirical, humorous content about politics, current events, pop culture, and everyday life.

TRENDING TOPICS THIS WEEK:
%s
For each idea, provide:
- Title: catchy, hook-focused
- Hook: the first 3 seconds, what grabs attention
- Category: one of Political satire, Pop culture, Everyday reality, Current events
- Timeliness: Timeless (will age well) or Topical (tied to this week's news)
- Platform: TikTok/Shorts, YouTube, or Both
- Description: 2-3 sentences

FORMAT:
Start every idea with its number followed by a period, put each field on its own line as "Label: value", and leave one blank line between ideas. Do not use JSON, tables, or any other text before or after the list. Example:

1. Title: Grocery Store Existential Crisis
Hook: Why is self-checkout judging me?
Category: Everyday reality
Timeliness: Timeless
Platform: TikTok/Shorts
Description: A satirical take on self-checkout machines that demand more from shoppers than their employers do.

Make the ideas specific, actionable, and funny. Prioritize angles that feel fresh and satirical, not surface-level observations.`, count, sb.String())
}
