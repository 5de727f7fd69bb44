package site

import (
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	defaultPageTitle = "Untitled Page"
	stylesheetHref   = "/css/styles.css"
	fullBuildCommand = "npx webstudio build --template ssg"
)

const noticeCSS = `
    body { font-family: system-ui, -apple-system, sans-serif; margin: 0; padding: 0; }
    .export-notice { padding: 2rem; max-width: 800px; margin: 0 auto; }
    .export-notice h1 { color: #1a1a1a; }
    .export-notice p { color: #666; line-height: 1.6; }
    .export-notice code { background: #f5f5f5; padding: 0.2rem 0.4rem; border-radius: 4px; }
  `

// PageTitle picks meta.title, then the page name, then a fixed fallback.
func PageTitle(p Page) string {
	switch {
	case p.Meta.Title != "":
		return p.Meta.Title
	case p.Name != "":
		return p.Name
	default:
		return defaultPageTitle
	}
}

// WritePage renders the HTML document for one page. Text and attribute
// values are escaped by the html renderer.
func WritePage(w io.Writer, p Page) error {
	return html.Render(w, pageDocument(p))
}

func pageDocument(p Page) *html.Node {
	title := PageTitle(p)
	desc := p.Meta.Description

	head := appendChildren(element(atom.Head),
		element(atom.Meta, attr("charset", "UTF-8")),
		element(atom.Meta, attr("name", "viewport"), attr("content", "width=device-width, initial-scale=1.0")),
		element(atom.Meta, attr("name", "description"), attr("content", desc)),
		appendChildren(element(atom.Title), text(title)),
		element(atom.Link, attr("rel", "stylesheet"), attr("href", stylesheetHref)),
		appendChildren(element(atom.Style), text(noticeCSS)),
	)

	notice := appendChildren(element(atom.Div, attr("class", "export-notice")),
		appendChildren(element(atom.H1), text(title)))
	if desc != "" {
		notice.AppendChild(appendChildren(element(atom.P), text(desc)))
	}
	appendChildren(notice,
		element(atom.Hr, attr("style", "margin: 2rem 0; border: none; border-top: 1px solid #eee;")),
		appendChildren(element(atom.P, attr("style", "color: #888; font-size: 0.9rem;")),
			appendChildren(element(atom.Strong), text("Note:")),
			text(" This is a basic static export containing your project's styles and metadata. "+
				"For a complete static site with all components and interactivity, use the Webstudio CLI: "),
			appendChildren(element(atom.Code), text(fullBuildCommand)),
		),
	)

	body := appendChildren(element(atom.Body),
		appendChildren(element(atom.Div, attr("id", "root")), notice))

	doc := &html.Node{Type: html.DocumentNode}
	appendChildren(doc,
		&html.Node{Type: html.DoctypeNode, Data: "html"},
		appendChildren(element(atom.Html, attr("lang", "en")), head, body),
	)
	return doc
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func appendChildren(parent *html.Node, children ...*html.Node) *html.Node {
	for _, c := range children {
		parent.AppendChild(c)
	}
	return parent
}
