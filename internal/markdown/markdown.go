// Package markdown converts a blog post body into an ordered list of
// renderable segments. It is a deliberately small line tokenizer, not a
// CommonMark implementation: the content files only ever use headings,
// emphasis, links, dash lists and fenced code blocks.
package markdown

import (
	"fmt"
	"regexp"
	"strings"
)

type Heading struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Level int    `json:"level"`
}

type CodeBlock struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

const (
	SegmentHTML = "html"
	SegmentCode = "code"
)

// Segment is either a chunk of rendered HTML or a code block descriptor,
// in source order. Code blocks are kept structured so the client can
// render them with its own code display component.
type Segment struct {
	Kind string     `json:"kind"`
	HTML string     `json:"html,omitempty"`
	Code *CodeBlock `json:"code,omitempty"`
}

type Result struct {
	Segments   []Segment   `json:"segments"`
	Headings   []Heading   `json:"headings"`
	CodeBlocks []CodeBlock `json:"codeBlocks"`
}

var (
	headingRe = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	listRe    = regexp.MustCompile(`^-\s+(.+)$`)
	boldRe    = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe  = regexp.MustCompile(`\*(.*?)\*`)
	linkRe    = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)

	nonWordRe    = regexp.MustCompile(`[^\w\s-]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Slugify derives a heading anchor id from its text. Render and
// ExtractHeadings both go through here, so table of contents links
// always match the rendered anchor ids. Headings with identical text
// still collide on id, same as they always did.
func Slugify(text string) string {
	slug := strings.ToLower(text)
	slug = nonWordRe.ReplaceAllString(slug, "")
	slug = whitespaceRe.ReplaceAllString(strings.TrimSpace(slug), "-")
	return slug
}

// ExtractHeadings scans the raw content for heading lines, skipping
// fenced code regions. Used for the table of contents sidebar.
func ExtractHeadings(content string) []Heading {
	var headings []Heading
	inFence := false
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if m := headingRe.FindStringSubmatch(line); m != nil {
			text := strings.TrimSpace(m[2])
			headings = append(headings, Heading{
				ID:    Slugify(text),
				Text:  text,
				Level: len(m[1]),
			})
		}
	}
	return headings
}

// Render converts raw post content into segments. It never fails:
// malformed input (unclosed fences, unbalanced emphasis) degrades to
// visually wrong but well formed output.
func Render(content string) *Result {
	r := &renderer{}
	r.run(content)
	return &Result{
		Segments:   r.segments,
		Headings:   r.headings,
		CodeBlocks: r.codeBlocks,
	}
}

type renderer struct {
	segments   []Segment
	headings   []Heading
	codeBlocks []CodeBlock

	htmlParts []string // pending HTML, flushed on code fence or EOF
	listItems []string // pending consecutive list items
}

func (r *renderer) run(content string) {
	lines := strings.Split(content, "\n")

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if strings.HasPrefix(line, "```") {
			lang := strings.TrimSpace(strings.TrimPrefix(line, "```"))
			if lang == "" {
				lang = "plaintext"
			}

			var codeLines []string
			i++
			for ; i < len(lines); i++ {
				if strings.HasPrefix(lines[i], "```") {
					break
				}
				codeLines = append(codeLines, lines[i])
			}
			// unclosed fence swallows the rest of the content

			r.flushList()
			r.flushHTML()

			block := CodeBlock{
				Language: lang,
				Code:     strings.TrimSpace(strings.Join(codeLines, "\n")),
			}
			r.codeBlocks = append(r.codeBlocks, block)
			r.segments = append(r.segments, Segment{
				Kind: SegmentCode,
				Code: &block,
			})
			continue
		}

		if m := headingRe.FindStringSubmatch(line); m != nil {
			r.flushList()
			level := len(m[1])
			text := strings.TrimSpace(m[2])
			id := Slugify(text)
			r.headings = append(r.headings, Heading{ID: id, Text: text, Level: level})
			r.htmlParts = append(r.htmlParts,
				fmt.Sprintf(`<h%d id="%s">%s</h%d>`, level, id, renderInline(text), level))
			continue
		}

		if m := listRe.FindStringSubmatch(line); m != nil {
			r.listItems = append(r.listItems, fmt.Sprintf("<li>%s</li>", renderInline(m[1])))
			continue
		}

		r.flushList()

		if strings.TrimSpace(line) == "" {
			continue
		}

		r.htmlParts = append(r.htmlParts, fmt.Sprintf("<p>%s</p>", renderInline(line)))
	}

	r.flushList()
	r.flushHTML()
}

func (r *renderer) flushList() {
	if len(r.listItems) == 0 {
		return
	}
	r.htmlParts = append(r.htmlParts,
		`<ul class="list-disc pl-6 my-4">`+strings.Join(r.listItems, "\n")+`</ul>`)
	r.listItems = nil
}

func (r *renderer) flushHTML() {
	if len(r.htmlParts) == 0 {
		return
	}
	html := strings.Join(r.htmlParts, "\n")
	r.htmlParts = nil
	if strings.TrimSpace(html) == "" {
		return
	}
	r.segments = append(r.segments, Segment{Kind: SegmentHTML, HTML: html})
}

// renderInline applies the inline transforms in their fixed order:
// bold, italic, links. Order matters, ** has to go before *.
func renderInline(text string) string {
	text = boldRe.ReplaceAllString(text, "<strong>$1</strong>")
	text = italicRe.ReplaceAllString(text, "<em>$1</em>")
	text = linkRe.ReplaceAllString(text,
		`<a href="$2" target="_blank" rel="noopener noreferrer" class="text-primary hover:underline">$1</a>`)
	return text
}
