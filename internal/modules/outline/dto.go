package outline

import (
	"strings"

	"github.com/presenton/core/internal/models"
)

const defaultLanguage = "English"

type CreatePresentationDTO struct {
	Content                string   `json:"content"`
	NSlides                int      `json:"n_slides"                  binding:"required,min=1,max=50"`
	Language               string   `json:"language"`
	Tone                   string   `json:"tone"`
	Verbosity              string   `json:"verbosity"`
	Instructions           string   `json:"instructions"`
	FilePaths              []string `json:"file_paths"`
	IncludeTableOfContents bool     `json:"include_table_of_contents"`
	IncludeTitleSlide      *bool    `json:"include_title_slide"`
	WebSearch              bool     `json:"web_search"`
}

func (d CreatePresentationDTO) toModel() *models.PresentationModel {
	language := strings.TrimSpace(d.Language)
	if language == "" {
		language = defaultLanguage
	}
	includeTitle := true
	if d.IncludeTitleSlide != nil {
		includeTitle = *d.IncludeTitleSlide
	}
	paths := make(models.StringArray, 0, len(d.FilePaths))
	for _, p := range d.FilePaths {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return &models.PresentationModel{
		Content:                d.Content,
		NSlides:                d.NSlides,
		Language:               language,
		Tone:                   strings.TrimSpace(d.Tone),
		Verbosity:              strings.TrimSpace(d.Verbosity),
		Instructions:           strings.TrimSpace(d.Instructions),
		FilePaths:              paths,
		IncludeTableOfContents: d.IncludeTableOfContents,
		IncludeTitleSlide:      includeTitle,
		WebSearch:              d.WebSearch,
	}
}
