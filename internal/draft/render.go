package draft

import (
	"fmt"
	"strings"
)

// DefaultPlaceholder is the body marker the upstream pipeline fills in with
// a later patch request.
const DefaultPlaceholder = "<!-- TODO: n8n에서 섹션/본문 자동 생성 -->"

type renderInput struct {
	Emoji      string
	Title      string
	Date       string
	Author     string
	Categories string
	Brief      string
	Outline    []string
	BaseURL    string // trailing slashes already stripped
}

// renderDraft produces the initial Markdown document: frontmatter, brief and
// outline comment blocks, banner image, overview heading, body placeholder.
func renderDraft(in renderInput) string {
	imgBase := fmt.Sprintf("%s/%s/%s", in.BaseURL, in.Date, in.Categories)

	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "emoji: %s\n", in.Emoji)
	fmt.Fprintf(&b, "title: %s\n", in.Title)
	fmt.Fprintf(&b, "date: '%s'\n", in.Date)
	fmt.Fprintf(&b, "author: %s\n", in.Author)
	fmt.Fprintf(&b, "categories: %s\n", in.Categories)
	fmt.Fprintf(&b, "thumbnail: %s/thumbnail.png\n", imgBase)
	b.WriteString("---\n\n")

	b.WriteString("<!-- BRIEF\n")
	b.WriteString(in.Brief)
	b.WriteString("\n-->\n\n")

	b.WriteString("<!-- OUTLINE\n")
	for _, item := range in.Outline {
		fmt.Fprintf(&b, "- %s\n", item)
	}
	b.WriteString("-->\n\n")

	fmt.Fprintf(&b, "<img src=\"%s/banner.png\"/>\n\n", imgBase)
	fmt.Fprintf(&b, "## %s Overview\n\n", in.Emoji)
	b.WriteString(DefaultPlaceholder)
	b.WriteString("\n")
	return b.String()
}
