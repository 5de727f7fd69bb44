package site

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBuildData_PlainArrays(t *testing.T) {
	raw := `{
	  "build": {"id": "b1", "projectId": "p1", "version": 3, "createdAt": "2026-01-02T03:04:05Z"},
	  "pages": [{"id": "home", "name": "Home", "path": "/"}, {"id": "c", "name": "Contact", "path": "/contact", "meta": {"title": "Reach us"}}],
	  "assets": [{"id": "a1", "name": "logo.png", "type": "image"}],
	  "styles": [{"styleSourceId": "s1", "breakpointId": "bp", "property": "color", "value": {"type": "keyword", "value": "red"}}]
	}`
	bd, err := DecodeBuildData([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "b1", bd.Build.ID)
	assert.Equal(t, 3, bd.Build.Version)
	require.Len(t, bd.Pages, 2)
	assert.Equal(t, "Reach us", bd.Pages[1].Meta.Title)
	require.Len(t, bd.Styles, 1)
	assert.Equal(t, "color", bd.Styles[0].Property)
}

func TestPages_DecodesPagesDocumentWithHomeFirst(t *testing.T) {
	var pages Pages
	err := json.Unmarshal([]byte(`{"homePage": {"id": "h", "name": "Home", "path": ""}, "pages": [{"id": "x", "path": "/x"}]}`), &pages)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "h", pages[0].ID)
	assert.Equal(t, "/", pages[0].Path)
	assert.Equal(t, "/x", pages[1].Path)
}

func TestStyleRule_DecodesTupleForm(t *testing.T) {
	var styles []StyleRule
	err := json.Unmarshal([]byte(`[["s1:bp:color", {"styleSourceId": "s1", "breakpointId": "bp", "property": "color"}], {"property": "margin"}]`), &styles)
	require.NoError(t, err)
	require.Len(t, styles, 2)
	assert.Equal(t, "s1", styles[0].StyleSourceID)
	assert.Equal(t, "margin", styles[1].Property)

	var bad StyleRule
	require.Error(t, json.Unmarshal([]byte(`["only-key"]`), &bad))
}

func TestDecodeBuildData_RequiresBuildID(t *testing.T) {
	_, err := DecodeBuildData([]byte(`{"build": {}, "pages": []}`))
	require.Error(t, err)
}
