package models

import (
	"strings"
	"time"
)

// Category is the content type of an idea
type Category string

const (
	CategoryPoliticalSatire Category = "political_satire"
	CategoryPopCulture      Category = "pop_culture"
	CategoryEverydayReality Category = "everyday_reality"
	CategoryCurrentEvents   Category = "current_events"
	CategoryOther           Category = "other"
)

// categoryLabels maps lowercase labels a generator may use onto categories.
var categoryLabels = map[string]Category{
	"political satire": CategoryPoliticalSatire,
	"politics":         CategoryPoliticalSatire,
	"political":        CategoryPoliticalSatire,
	"pop culture":      CategoryPopCulture,
	"everyday reality": CategoryEverydayReality,
	"everyday life":    CategoryEverydayReality,
	"current events":   CategoryCurrentEvents,
	"news":             CategoryCurrentEvents,
}

// ParseCategory maps a free-form label onto a known category, falling back to CategoryOther.
func ParseCategory(label string) Category {
	key := strings.ToLower(strings.Join(strings.Fields(label), " "))
	key = strings.ReplaceAll(key, "-", " ")
	if c, ok := categoryLabels[key]; ok {
		return c
	}
	return CategoryOther
}

// DisplayName returns the human readable name of the category
func (c Category) DisplayName() string {
	switch c {
	case CategoryPoliticalSatire:
		return "Political Satire"
	case CategoryPopCulture:
		return "Pop Culture"
	case CategoryEverydayReality:
		return "Everyday Reality"
	case CategoryCurrentEvents:
		return "Current Events"
	default:
		return "Other"
	}
}

// Timeliness tells whether an idea is evergreen or tied to current events
type Timeliness string

const (
	Timeless Timeliness = "timeless"
	Topical  Timeliness = "topical"
)

// ParseTimeliness reads a timeliness label. The earliest keyword wins, so
// "Topical (not timeless)" stays topical. Unrecognized labels are topical.
func ParseTimeliness(label string) Timeliness {
	l := strings.ToLower(label)

	first := func(words ...string) int {
		best := -1
		for _, w := range words {
			if i := strings.Index(l, w); i >= 0 && (best < 0 || i < best) {
				best = i
			}
		}
		return best
	}

	timeless := first("timeless", "evergreen")
	topical := first("topical", "time-sensitive", "time sensitive", "trending")
	if timeless >= 0 && (topical < 0 || timeless < topical) {
		return Timeless
	}
	return Topical
}

// Idea is a single video concept extracted from a generator response
type Idea struct {
	Position      int        `json:"position"` // 1-based order in the raw response
	Title         string     `json:"title"`
	Hook          string     `json:"hook"`
	Description   string     `json:"description"`
	Category      Category   `json:"category"`
	CategoryLabel string     `json:"category_label"` // label as written by the generator
	Timeliness    Timeliness `json:"timeliness"`
	Platform      string     `json:"platform,omitempty"`
}

// IsValid reports whether the idea has both a title and a description
func (i *Idea) IsValid() bool {
	return strings.TrimSpace(i.Title) != "" && strings.TrimSpace(i.Description) != ""
}

// CategoryName returns the label to display for the idea's category.
// Unrecognized categories keep the generator's own wording.
func (i *Idea) CategoryName() string {
	if i.Category == CategoryOther && i.CategoryLabel != "" {
		return i.CategoryLabel
	}
	return i.Category.DisplayName()
}

// IdeaBatch holds the ideas produced by a single run
type IdeaBatch struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Topics      []string  `json:"topics"`
	Requested   int       `json:"requested"`
	Dropped     int       `json:"dropped"`
	Ideas       []*Idea   `json:"ideas"`
}

// CategoryGroup is a set of ideas sharing a timeliness and category
type CategoryGroup struct {
	Category Category
	Name     string
	Ideas    []*Idea
}

// TimelinessGroup is one section of the email
type TimelinessGroup struct {
	Timeliness Timeliness
	Categories []*CategoryGroup
	Count      int
}

// Groups orders the batch for display: timeless before topical, categories in
// first-seen order within each section, ideas in their original order.
// Sections without ideas are omitted.
func (b *IdeaBatch) Groups() []*TimelinessGroup {
	var groups []*TimelinessGroup

	for _, t := range []Timeliness{Timeless, Topical} {
		group := &TimelinessGroup{Timeliness: t}
		index := make(map[string]*CategoryGroup)

		for _, idea := range b.Ideas {
			if idea.Timeliness != t {
				continue
			}
			name := idea.CategoryName()
			cg, ok := index[name]
			if !ok {
				cg = &CategoryGroup{Category: idea.Category, Name: name}
				index[name] = cg
				group.Categories = append(group.Categories, cg)
			}
			cg.Ideas = append(cg.Ideas, idea)
			group.Count++
		}

		if group.Count > 0 {
			groups = append(groups, group)
		}
	}

	return groups
}
