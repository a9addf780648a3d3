package contentideas

import (
	"bufio"
	"errors"
	"regexp"
	"strings"

	"agent-stack/internal/models"
)

// ErrNoIdeas is matched by every *ParseFailure
var ErrNoIdeas = errors.New("no ideas extracted")

// ParseFailure reports a generator response with no recognizable idea blocks.
// Raw holds the full response so it can be logged and mailed for diagnosis.
type ParseFailure struct {
	Raw string
}

func (e *ParseFailure) Error() string {
	return "no ideas extracted from generator response"
}

func (e *ParseFailure) Unwrap() error {
	return ErrNoIdeas
}

// ParseResult is the outcome of parsing a generator response
type ParseResult struct {
	Ideas         []*models.Idea
	Blocks        int   // idea blocks found in the response
	Dropped       int   // blocks discarded for missing a title or description
	DroppedBlocks []int // 1-based block numbers that were discarded
}

type field int

const (
	fieldNone field = iota
	fieldTitle
	fieldHook
	fieldCategory
	fieldTimeliness
	fieldDescription
	fieldPlatform
	fieldUnknown
)

var (
	// A numbered heading, optionally decorated: "1.", "2)", "## 3.", "**Idea 4:**"
	markerPattern = regexp.MustCompile(`(?i)^[\s#*_>]*(?:idea\s*)?#?(\d{1,3})[.):][*_]*(?:\s+(.*))?$`)
	// "Label: value", tolerating bullets and bold markers around the label
	fieldPattern = regexp.MustCompile(`(?i)^[\s*_\->•]*([a-z][a-z /()\-]*?)\s*[*_]*\s*:\s*[*_]*\s*(.*)$`)
	parenthetical = regexp.MustCompile(`\([^)]*\)`)
)

// lookupField maps a label onto the field it names
func lookupField(label string) field {
	l := strings.ToLower(parenthetical.ReplaceAllString(label, ""))
	l = strings.Join(strings.Fields(l), " ")

	switch {
	case l == "title" || l == "video title" || l == "idea title" || l == "idea":
		return fieldTitle
	case strings.HasPrefix(l, "hook") || l == "opening hook" || l == "opening line":
		return fieldHook
	case l == "category" || l == "content type" || l == "type" || l == "content category":
		return fieldCategory
	case strings.HasPrefix(l, "timeliness") || strings.HasPrefix(l, "timeless") ||
		l == "topical or timeless" || l == "shelf life":
		return fieldTimeliness
	case strings.HasPrefix(l, "description") || l == "brief description" || l == "summary" || l == "concept":
		return fieldDescription
	case strings.HasPrefix(l, "platform") || l == "format":
		return fieldPlatform
	default:
		return fieldUnknown
	}
}

// block accumulates the fields of one idea while scanning
type block struct {
	title, hook, category, timeliness, description, platform string
	sawField                                                 bool
}

func (b *block) set(f field, value string) {
	switch f {
	case fieldTitle:
		b.title = value
	case fieldHook:
		b.hook = value
	case fieldCategory:
		b.category = value
	case fieldTimeliness:
		b.timeliness = value
	case fieldDescription:
		b.description = value
	case fieldPlatform:
		b.platform = value
	}
}

func (b *block) appendTo(f field, value string) {
	target := map[field]*string{
		fieldTitle:       &b.title,
		fieldHook:        &b.hook,
		fieldCategory:    &b.category,
		fieldTimeliness:  &b.timeliness,
		fieldDescription: &b.description,
		fieldPlatform:    &b.platform,
	}[f]
	if target == nil {
		return
	}
	if *target == "" {
		*target = value
	} else {
		*target += " " + value
	}
}

func (b *block) idea() *models.Idea {
	timeliness := b.timeliness
	switch strings.ToLower(timeliness) {
	case "true", "yes":
		timeliness = string(models.Timeless)
	}

	return &models.Idea{
		Title:         b.title,
		Hook:          unquote(b.hook),
		Description:   b.description,
		Category:      models.ParseCategory(b.category),
		CategoryLabel: b.category,
		Timeliness:    models.ParseTimeliness(timeliness),
		Platform:      b.platform,
	}
}

// ParseIdeas splits a generator response into idea records. Blocks start at
// numbered heading lines; fields are "Label: value" lines matched
// case-insensitively. Invalid blocks are dropped and counted. A response with
// no blocks at all yields a *ParseFailure.
func ParseIdeas(raw string) (*ParseResult, error) {
	var (
		blocks  []*block
		current *block
		last    = fieldNone
	)

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "```") {
			last = fieldNone
			continue
		}

		if m := markerPattern.FindStringSubmatch(line); m != nil && !continuesField(last, m[2]) {
			current = &block{}
			blocks = append(blocks, current)
			last = fieldNone

			rest := strings.TrimSpace(m[2])
			if rest == "" {
				continue
			}
			if f, value, ok := parseField(rest); ok && f != fieldUnknown {
				current.sawField = true
				current.set(f, value)
				last = f
			} else {
				current.title = stripMarkdown(rest)
				last = fieldTitle
			}
			continue
		}

		if current == nil {
			continue // preamble before the first idea
		}

		if f, value, ok := parseField(line); ok {
			if f == fieldUnknown && current.title == "" && !current.sawField {
				// "Grocery Store: The Musical" under a bare marker is a title
				current.title = stripMarkdown(line)
				last = fieldTitle
				continue
			}
			current.sawField = true
			current.set(f, value)
			last = f
			continue
		}

		switch {
		case last != fieldNone:
			current.appendTo(last, stripMarkdown(line))
		case current.title == "" && !current.sawField:
			current.title = stripMarkdown(line)
			last = fieldTitle
		}
	}

	if len(blocks) == 0 {
		return nil, &ParseFailure{Raw: raw}
	}

	result := &ParseResult{Blocks: len(blocks)}
	for i, b := range blocks {
		idea := b.idea()
		if !idea.IsValid() {
			result.Dropped++
			result.DroppedBlocks = append(result.DroppedBlocks, i+1)
			continue
		}
		idea.Position = len(result.Ideas) + 1
		result.Ideas = append(result.Ideas, idea)
	}

	return result, nil
}

// continuesField reports whether a numbered line belongs to the field being
// read, like a list item inside a description. Only a blank line or a numbered
// line carrying a known label starts a new block while a field is open.
func continuesField(last field, rest string) bool {
	if last == fieldNone {
		return false
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return false
	}
	f, _, ok := parseField(rest)
	return !ok || f == fieldUnknown
}

// parseField recognizes a "Label: value" line. Short unknown labels are
// reported as fieldUnknown so they end the previous field instead of extending it.
func parseField(line string) (field, string, bool) {
	m := fieldPattern.FindStringSubmatch(line)
	if m == nil {
		return fieldNone, "", false
	}
	label := strings.TrimSpace(m[1])
	f := lookupField(label)
	if f == fieldUnknown && len(strings.Fields(label)) > 2 {
		return fieldNone, "", false // prose that happens to contain a colon
	}
	return f, stripMarkdown(m[2]), true
}

func stripMarkdown(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "*_"))
}

func unquote(s string) string {
	for _, pair := range [][2]string{{`"`, `"`}, {"“", "”"}} {
		if len(s) >= len(pair[0])+len(pair[1]) && strings.HasPrefix(s, pair[0]) && strings.HasSuffix(s, pair[1]) {
			return strings.TrimSpace(s[len(pair[0]) : len(s)-len(pair[1])])
		}
	}
	return s
}
