package contentideas

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"agent-stack/internal/models"
)

type sectionView struct {
	Title      string
	Note       string
	Categories []*models.CategoryGroup
}

type emailView struct {
	Date     string
	Total    int
	Dropped  int
	Topics   []string
	Sections []sectionView
}

var sectionCopy = map[models.Timeliness][2]string{
	models.Timeless: {"⏰ Timeless Ideas (Evergreen Content)", "These won't age. Post anytime."},
	models.Topical:  {"⚡ Topical Ideas (Time-Sensitive)", "These are hot right now. Post this week for algorithmic boost."},
}

// Subject returns the subject line for an idea email
func Subject(batch *models.IdeaBatch) string {
	return fmt.Sprintf("📹 Weekly Video Ideas - %s", batch.GeneratedAt.Format("January 2, 2006"))
}

// RenderEmail renders the batch as a self-contained HTML email. An empty batch
// renders an explanatory notice instead of empty sections.
func RenderEmail(batch *models.IdeaBatch) (string, error) {
	view := emailView{
		Date:    batch.GeneratedAt.Format("Monday, January 2, 2006"),
		Total:   len(batch.Ideas),
		Dropped: batch.Dropped,
		Topics:  batch.Topics,
	}
	for _, group := range batch.Groups() {
		text := sectionCopy[group.Timeliness]
		view.Sections = append(view.Sections, sectionView{
			Title:      text[0],
			Note:       text[1],
			Categories: group.Categories,
		})
	}

	var buf bytes.Buffer
	if err := ideasTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render ideas email: %w", err)
	}
	return buf.String(), nil
}

// DiagnosticSubject returns the subject line for a diagnostic email
func DiagnosticSubject(at time.Time) string {
	return fmt.Sprintf("⚠️ Weekly Video Ideas - unreadable response (%s)", at.Format("January 2, 2006"))
}

// RenderDiagnostic renders the email sent when a response could not be parsed.
// The raw response is included verbatim, escaped inside a pre block.
func RenderDiagnostic(raw string, cause error, at time.Time) (string, error) {
	reason := "unknown error"
	if cause != nil {
		reason = cause.Error()
	}

	var buf bytes.Buffer
	err := diagnosticTemplate.Execute(&buf, struct {
		Date   string
		Reason string
		Raw    string
		Length int
	}{
		Date:   at.Format("Monday, January 2, 2006 at 3:04 PM MST"),
		Reason: reason,
		Raw:    raw,
		Length: len(raw),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render diagnostic email: %w", err)
	}
	return buf.String(), nil
}

const emailStyles = `
        body { font-family: Arial, sans-serif; line-height: 1.5; color: #333; max-width: 800px; margin: 0 auto; padding: 20px; }
        .header { background-color: #1f1f1f; color: #fff; padding: 20px; border-radius: 8px; margin-bottom: 20px; }
        .header .date { font-size: 12px; color: #ccc; }
        .section { margin-bottom: 30px; }
        .section-title { font-size: 18px; font-weight: bold; color: #1f1f1f; border-bottom: 2px solid #007bff; padding-bottom: 10px; margin-bottom: 15px; }
        .section-note { color: #666; font-size: 12px; }
        .category-title { font-size: 15px; font-weight: bold; color: #555; margin: 15px 0 10px; }
        .idea { background-color: #f8f9fa; padding: 15px; margin-bottom: 15px; border-left: 4px solid #007bff; border-radius: 4px; }
        .idea-title { font-size: 16px; font-weight: bold; color: #007bff; margin-bottom: 8px; }
        .idea-meta { font-size: 12px; color: #666; margin-bottom: 8px; }
        .meta-tag { display: inline-block; background-color: #e9ecef; padding: 2px 8px; border-radius: 3px; margin-right: 8px; }
        .idea-hook { font-style: italic; color: #555; margin-bottom: 8px; }
        .idea-desc { color: #333; }
        .trending { background-color: #fff3cd; padding: 15px; border-radius: 4px; margin-bottom: 20px; border-left: 4px solid #ffc107; }
        .notice { background-color: #fdecea; padding: 15px; border-radius: 4px; margin-bottom: 20px; border-left: 4px solid #dc3545; }
        .raw { background-color: #f4f4f4; padding: 15px; border-radius: 4px; font-size: 12px; white-space: pre-wrap; word-wrap: break-word; }
        .footer { background-color: #f0f0f0; padding: 15px; border-radius: 4px; margin-top: 30px; font-size: 12px; color: #666; }
`

var ideasTemplate = template.Must(template.New("ideas").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Weekly Content Ideas</title>
    <style>` + emailStyles + `</style>
</head>
<body>
    <div class="header">
        <h1>📹 Weekly Content Ideas</h1>
        <p>Your AI-powered satire &amp; humor video ideas for this week: {{.Total}} ideas</p>
        <p class="date">Generated: {{.Date}}</p>
    </div>
{{if .Topics}}
    <div class="trending">
        <strong>📊 Trending Topics This Week:</strong>
        {{range $i, $t := .Topics}}{{if $i}}, {{end}}{{$t}}{{end}}
    </div>
{{end}}
{{if not .Sections}}
    <div class="notice">
        <h2>No usable ideas this week</h2>
        <p>The generator responded, but none of its ideas had both a title and a description{{if .Dropped}} ({{.Dropped}} incomplete ideas were discarded){{end}}.</p>
        <p>Nothing needs to be done; the next scheduled run will try again.</p>
    </div>
{{end}}
{{range .Sections}}
    <div class="section">
        <div class="section-title">{{.Title}}</div>
        <p class="section-note">{{.Note}}</p>
    {{range .Categories}}
        <div class="category-title">{{.Name}}</div>
        {{range .Ideas}}
        <div class="idea">
            <div class="idea-title">#{{.Position}} - {{.Title}}</div>
            <div class="idea-meta">{{if .Platform}}<span class="meta-tag">{{.Platform}}</span>{{end}}<span class="meta-tag">{{.CategoryName}}</span></div>
            {{if .Hook}}<div class="idea-hook">&ldquo;{{.Hook}}&rdquo;</div>{{end}}
            <div class="idea-desc">{{.Description}}</div>
        </div>
        {{end}}
    {{end}}
    </div>
{{end}}
    <div class="footer">
        <p><strong>💡 Pro Tips:</strong></p>
        <ul>
            <li>Post topical ideas immediately for trending boost</li>
            <li>Mix timeless &amp; topical in your weekly content (3:2 ratio)</li>
            <li>Film multiple variations of the same idea</li>
            <li>Use the hooks as your video openers</li>
        </ul>
    </div>
</body>
</html>
`))

var diagnosticTemplate = template.Must(template.New("diagnostic").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Content Ideas Diagnostic</title>
    <style>` + emailStyles + `</style>
</head>
<body>
    <div class="header">
        <h1>⚠️ Content Ideas: response could not be parsed</h1>
        <p class="date">{{.Date}}</p>
    </div>
    <div class="notice">
        <p><strong>Reason:</strong> {{.Reason}}</p>
        <p>The generator answered but no numbered ideas were found. The full response ({{.Length}} characters) is included below so nothing is lost.</p>
    </div>
    <pre class="raw">{{.Raw}}</pre>
</body>
</html>
`))
