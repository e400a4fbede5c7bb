package sitecontent

import (
	"strings"
	"time"
)

// AssetClass categorises a project.
type AssetClass string

const (
	AssetClassResidential AssetClass = "Residential"
	AssetClassMixedUse    AssetClass = "Mixed-Use"
	AssetClassCommercial  AssetClass = "Commercial"
	AssetClassHospitality AssetClass = "Hospitality"
)

// AssetClasses lists every known asset class in display order.
var AssetClasses = []AssetClass{
	AssetClassResidential,
	AssetClassMixedUse,
	AssetClassCommercial,
	AssetClassHospitality,
}

// IsValid reports whether the asset class is one of the known values.
func (c AssetClass) IsValid() bool {
	for _, known := range AssetClasses {
		if c == known {
			return true
		}
	}
	return false
}

// DetailSection is one narrative block on a project page.
type DetailSection struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	Image string `json:"image"`
}

// Project is a portfolio entry. ID is immutable once created.
type Project struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	AssetClass      AssetClass      `json:"assetClass"`
	Location        string          `json:"location"`
	Image           string          `json:"image"`
	Description     string          `json:"description"`
	BrochureURL     string          `json:"brochureUrl,omitempty"`
	IntroTitle      string          `json:"introTitle,omitempty"`
	IntroText       string          `json:"introText,omitempty"`
	IntroImage      string          `json:"introImage,omitempty"`
	ProjectFeatures []string        `json:"projectFeatures"`
	DetailSections  []DetailSection `json:"detailSections"`
}

// AssetURLs returns every non-empty asset URL the project references.
func (p *Project) AssetURLs() []string {
	urls := nonEmpty(p.Image, p.IntroImage, p.BrochureURL)
	for _, section := range p.DetailSections {
		urls = append(urls, nonEmpty(section.Image)...)
	}
	return urls
}

// EventItem is a news-and-events calendar entry. Date is a display string.
type EventItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Date       string `json:"date"`
	Location   string `json:"location"`
	Image      string `json:"image"`
	Details    string `json:"details,omitempty"`
	IsFeatured bool   `json:"isFeatured"`
}

// AssetURLs returns every non-empty asset URL the event references.
func (e *EventItem) AssetURLs() []string {
	return nonEmpty(e.Image)
}

// NewsItem is a press or news article.
type NewsItem struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	Excerpt  string `json:"excerpt"`
	Content  string `json:"content,omitempty"`
	Image    string `json:"image"`
}

// Body returns the long-form content, falling back to the excerpt.
func (n *NewsItem) Body() string {
	if strings.TrimSpace(n.Content) == "" {
		return n.Excerpt
	}
	return n.Content
}

// AssetURLs returns every non-empty asset URL the news item references.
func (n *NewsItem) AssetURLs() []string {
	return nonEmpty(n.Image)
}

// Inquiry is a contact form submission. Inquiries are never edited.
type Inquiry struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Type    string    `json:"type"`
	Message string    `json:"message"`
	Date    time.Time `json:"date"`
}

// AssetDescriptor describes one stored asset.
type AssetDescriptor struct {
	Path        string    `json:"path"`
	URL         string    `json:"url"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// DeleteReport describes the outcome of a lifecycle delete. Warnings holds
// asset cleanup failures; the record itself was removed regardless.
type DeleteReport struct {
	Kind          AssetKind `json:"kind"`
	ID            string    `json:"id"`
	RecordDeleted bool      `json:"recordDeleted"`
	AssetsDeleted int       `json:"assetsDeleted"`
	Warnings      []error   `json:"-"`
}

// WarningMessages returns the warning texts for display.
func (r *DeleteReport) WarningMessages() []string {
	msgs := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		msgs = append(msgs, w.Error())
	}
	return msgs
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
