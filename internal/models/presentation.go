package models

// PresentationModel is a deck request plus its generated outline.
// Outlines and Title stay NULL until a stream completes successfully.
type PresentationModel struct {
	Base
	Content                string               `json:"content"                   gorm:"type:longtext"`
	NSlides                int                  `json:"n_slides"                  gorm:"not null"`
	Language               string               `json:"language"`
	Tone                   string               `json:"tone"`
	Verbosity              string               `json:"verbosity"`
	Instructions           string               `json:"instructions"              gorm:"type:text"`
	FilePaths              StringArray          `json:"file_paths"                gorm:"type:text"`
	IncludeTableOfContents bool                 `json:"include_table_of_contents" gorm:"not null"`
	IncludeTitleSlide      bool                 `json:"include_title_slide"       gorm:"not null"`
	WebSearch              bool                 `json:"web_search"                gorm:"not null"`
	Outlines               *PresentationOutline `json:"outlines"                  gorm:"type:longtext;serializer:json"`
	Title                  *string              `json:"title"                     gorm:"type:varchar(255)"`
}

func (PresentationModel) TableName() string { return "presentations" }

// PresentationOutline is the ordered slide list produced by the generator.
type PresentationOutline struct {
	Slides []SlideOutline `json:"slides"`
}

// SlideOutline holds the markdown body of one slide.
type SlideOutline struct {
	Content string `json:"content"`
}

// Truncate keeps at most n slides. It never pads.
func (o *PresentationOutline) Truncate(n int) {
	if o == nil {
		return
	}
	if n < 0 {
		n = 0
	}
	if len(o.Slides) > n {
		o.Slides = o.Slides[:n]
	}
}
