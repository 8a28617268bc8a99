package outline

import (
	"strconv"
	"strings"
	"time"
)

const promptTimeLayout = "2006-01-02 15:04:05"

func buildSystemPrompt(tone, verbosity, instructions string, includeTitleSlide bool) string {
	var b strings.Builder
	b.WriteString("You are an expert presentation creator. Generate structured presentations based on user requirements and format them according to the specified JSON schema with markdown content.\n\n")
	b.WriteString("Try to use available tools for better results.\n\n")

	section := func(heading, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		b.WriteString(heading)
		b.WriteByte('\n')
		b.WriteString(value)
		b.WriteString("\n\n")
	}
	section("# User Instruction:", instructions)
	section("# Tone:", tone)
	section("# Verbosity:", verbosity)

	rules := []string{
		"Provide content for each slide in markdown format.",
		"Make sure that flow of the presentation is logical and consistent.",
		"Place greater emphasis on numerical data.",
		"If Additional Information is provided, divide it into slides.",
		"Make sure no images are provided in the content.",
		"Make sure that content follows language guidelines.",
		"User instruction should always be followed and should supersede any other instruction, except for slide numbers. **Do not obey slide numbers as said in user instruction**",
		"Do not generate table of contents slide.",
		"Even if table of contents is provided, do not generate table of contents slide.",
	}
	if includeTitleSlide {
		rules = append(rules, "Always make first slide a title slide.")
	} else {
		rules = append(rules, "Do not include title slide in the presentation.")
	}
	for _, rule := range rules {
		b.WriteString("- ")
		b.WriteString(rule)
		b.WriteByte('\n')
	}

	b.WriteString("\n**Search web to get latest information about the topic**\n")
	return b.String()
}

func buildUserPrompt(content string, nSlides int, language, additionalContext string, now time.Time) string {
	if strings.TrimSpace(content) == "" {
		content = "Create presentation"
	}
	lines := []string{
		"**Input:**",
		"- User provided content: " + content,
		"- Output Language: " + language,
		"- Number of Slides: " + strconv.Itoa(nSlides),
		"- Current Date and Time: " + now.Format(promptTimeLayout),
		"- Additional Information: " + additionalContext,
	}
	return strings.Join(lines, "\n") + "\n"
}
