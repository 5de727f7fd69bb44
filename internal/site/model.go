package site

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// BuildData is a read-only snapshot of one build as loaded from the data store.
type BuildData struct {
	Build  Build       `json:"build"`
	Pages  Pages       `json:"pages"`
	Assets []Asset     `json:"assets"`
	Styles []StyleRule `json:"styles"`
}

// Build carries the build metadata copied into build-info.json.
type Build struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	Version   int    `json:"version"`
	CreatedAt string `json:"createdAt"`
}

// Page is one routable page of the project.
type Page struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Path string   `json:"path"`
	Meta PageMeta `json:"meta"`
}

// PageMeta holds the page's SEO fields.
type PageMeta struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Asset is an uploaded file referenced by the project.
type Asset struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// StyleRule is one style declaration. Only the number of rules is rendered.
type StyleRule struct {
	StyleSourceID string          `json:"styleSourceId"`
	BreakpointID  string          `json:"breakpointId"`
	Property      string          `json:"property"`
	Value         json.RawMessage `json:"value,omitempty"`
}

// UnmarshalJSON accepts a declaration object or a [key, declaration] tuple.
func (s *StyleRule) UnmarshalJSON(data []byte) error {
	type plain StyleRule
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var tuple []json.RawMessage
		if err := json.Unmarshal(data, &tuple); err != nil {
			return fmt.Errorf("decode style tuple: %w", err)
		}
		if len(tuple) != 2 {
			return fmt.Errorf("decode style tuple: want 2 elements, got %d", len(tuple))
		}
		data = tuple[1]
	}
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode style declaration: %w", err)
	}
	*s = StyleRule(p)
	return nil
}

// Pages decodes from a plain array or from a pages document
// ({"homePage": {...}, "pages": [...]}) with the home page first.
type Pages []Page

func (p *Pages) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var list []Page
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("decode pages: %w", err)
		}
		*p = list
		return nil
	}
	var doc struct {
		HomePage *Page  `json:"homePage"`
		Pages    []Page `json:"pages"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode pages document: %w", err)
	}
	out := make(Pages, 0, len(doc.Pages)+1)
	if doc.HomePage != nil {
		home := *doc.HomePage
		if home.Path == "" {
			home.Path = "/"
		}
		out = append(out, home)
	}
	out = append(out, doc.Pages...)
	*p = out
	return nil
}

// DecodeBuildData parses a BuildData JSON document.
func DecodeBuildData(data []byte) (*BuildData, error) {
	var bd BuildData
	if err := json.Unmarshal(data, &bd); err != nil {
		return nil, err
	}
	if bd.Build.ID == "" {
		return nil, fmt.Errorf("build data is missing build.id")
	}
	return &bd, nil
}
