package outline

import (
	"strings"

	"github.com/presenton/core/internal/models"
	"github.com/presenton/core/internal/pkg/mdtext"
)

const (
	maxTitleRunes = 100
	untitledTitle = "Untitled Presentation"
)

// titleFromOutline uses the first slide's first heading, falling back to its
// first line of text.
func titleFromOutline(outline *models.PresentationOutline) string {
	if outline == nil || len(outline.Slides) == 0 {
		return untitledTitle
	}
	content := outline.Slides[0].Content
	title := mdtext.FirstHeading(content)
	if title == "" {
		title = mdtext.FirstLine(content)
	}
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return untitledTitle
	}
	if runes := []rune(title); len(runes) > maxTitleRunes {
		title = strings.TrimSpace(string(runes[:maxTitleRunes]))
	}
	return title
}
