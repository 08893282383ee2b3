package docmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fenwicklabs/canvaslint/api/schemas"
)

func build(t *testing.T, kind schemas.DocumentKind, text string) *DocumentModel {
	t.Helper()
	b := NewBuilder(zaptest.NewLogger(t))
	return b.Build(schemas.SourceFile{Path: "doc", Kind: kind, Text: text})
}

func TestBuildPage(t *testing.T) {
	t.Parallel()
	model := build(t, schemas.KindPage, `{
  "id": "checkout",
  "microConclusion": false,
  "securityDomains": ["user", "payments"],
  "include": ["helpers", "format"],
  "endpoints": [
    {"name": "submit", "url": "/api/orders", "method": "POST"}
  ],
  "presentation": {
    "id": "root",
    "type": "panel",
    "onLoad": "<% init(); %>",
    "children": [
      {"id": "pay", "type": "button", "onClick": "<% submit(); %>"}
    ]
  }
}`)

	require.NotNil(t, model.Page)
	assert.Equal(t, "checkout", model.Page.ID)
	assert.Equal(t, "checkout", model.ID())
	assert.False(t, model.Page.MicroConclusion)
	assert.True(t, model.Page.HasSecurityDomains)
	assert.Equal(t, []string{"user", "payments"}, model.Page.SecurityDomains)
	assert.Equal(t, []string{"helpers", "format"}, model.Includes())
	require.Len(t, model.Page.Endpoints, 1)
	assert.Equal(t, "POST", model.Page.Endpoints[0].Method)
	assert.Empty(t, model.Degraded)

	require.Len(t, model.ScriptFields, 2)
	assert.Equal(t, "onLoad", model.ScriptFields[0].Name)
	assert.Equal(t, "presentation.onLoad", model.ScriptFields[0].Path)
	assert.Equal(t, " init(); ", model.ScriptFields[0].Source)
	assert.Equal(t, "onClick", model.ScriptFields[1].Name)
	assert.Equal(t, "presentation.children[0].onClick", model.ScriptFields[1].Path)
}

func TestAbsentSecurityDomainsVersusEmpty(t *testing.T) {
	t.Parallel()
	absent := build(t, schemas.KindPage, `{"id": "a"}`)
	require.NotNil(t, absent.Page)
	assert.False(t, absent.Page.HasSecurityDomains)

	empty := build(t, schemas.KindPage, `{"id": "b", "securityDomains": []}`)
	require.NotNil(t, empty.Page)
	assert.True(t, empty.Page.HasSecurityDomains)
	assert.Empty(t, empty.Page.SecurityDomains)
}

func TestMalformedSectionDegradesNotFails(t *testing.T) {
	t.Parallel()
	model := build(t, schemas.KindPage, `{
  "id": "p",
  "securityDomains": "not-a-list",
  "include": [1, 2]
}`)

	require.NotNil(t, model.Page)
	assert.True(t, model.IsDegraded("securityDomains"))
	assert.True(t, model.IsDegraded("include"))
	assert.False(t, model.Page.HasSecurityDomains)
	assert.Empty(t, model.Page.Includes)
}

func TestUnparseableDocumentDegradesWhole(t *testing.T) {
	t.Parallel()
	model := build(t, schemas.KindPage, `{"id": "p",`)
	assert.Nil(t, model.Page)
	assert.True(t, model.IsDegraded("document"))
	assert.Empty(t, model.ScriptFields)
}

func TestBuildComponent(t *testing.T) {
	t.Parallel()
	model := build(t, schemas.KindComponent, `{
  "id": "price-card",
  "include": ["format"],
  "template": {
    "id": "card", "type": "panel",
    "children": [{"type": "label"}]
  }
}`)

	require.NotNil(t, model.Component)
	assert.Equal(t, "price-card", model.Component.ID)
	require.Len(t, model.Component.Widgets, 2)
	assert.Equal(t, "template", model.Component.Widgets[0].Path)
	assert.Equal(t, "template.children[0]", model.Component.Widgets[1].Path)
	assert.Empty(t, model.Component.Widgets[1].ID)
}

func TestBuildAppDescriptor(t *testing.T) {
	t.Parallel()
	model := build(t, schemas.KindAppDescriptor, `{
  "id": "shop",
  "dataProviders": [{"name": "orders", "type": "rest"}]
}`)

	require.NotNil(t, model.App)
	assert.Equal(t, "shop", model.App.AppID)
	require.Len(t, model.App.DataProviders, 1)
	assert.Equal(t, "rest", model.App.DataProviders[0].Type)
}

func TestBuildSecurityDescriptor(t *testing.T) {
	t.Parallel()
	model := build(t, schemas.KindSecurityDescriptor, `{
  "domains": ["user", "admin"],
  "errorPageConfigurations": [{"code": "403", "page": "denied"}]
}`)

	require.NotNil(t, model.Security)
	assert.Equal(t, []string{"user", "admin"}, model.Security.Domains)
	require.Len(t, model.Security.ErrorPageConfigurations, 1)
	assert.Equal(t, "denied", model.Security.ErrorPageConfigurations[0].Page)
}

func TestBuildScriptFile(t *testing.T) {
	t.Parallel()
	src := "function helper() { return 1; }\n{ helper }"
	model := build(t, schemas.KindScriptFile, src)

	require.NotNil(t, model.Script)
	assert.Equal(t, src, model.Script.Source)
	require.Len(t, model.ScriptFields, 1)
	assert.Equal(t, "(file)", model.ScriptFields[0].Name)
	line, ok := model.SourceMap.StartLine(src, 0)
	require.True(t, ok)
	assert.Equal(t, 1, line)
}

func TestConcatenatedFragmentJoinsAndAnchors(t *testing.T) {
	t.Parallel()
	model := build(t, schemas.KindPage, `{
  "id": "p",
  "presentation": {
    "id": "r", "type": "panel",
    "onSave": ["<% save(); ", "audit(); %>"]
  }
}`)

	require.Len(t, model.ScriptFields, 1)
	field := model.ScriptFields[0]
	assert.Equal(t, " save(); audit(); ", field.Source)
	line, ok := model.SourceMap.StartLine(field.Source, field.Occurrence)
	require.True(t, ok)
	assert.Equal(t, 5, line)
}

func TestMixedArrayIsNotAFragment(t *testing.T) {
	t.Parallel()
	model := build(t, schemas.KindPage, `{
  "id": "p",
  "presentation": {
    "id": "r", "type": "panel",
    "handlers": ["plain text", "<% b(); %>"]
  }
}`)

	// Joined pieces do not form one delimited fragment, so each element is
	// inspected individually; only the delimited one counts.
	require.Len(t, model.ScriptFields, 1)
	assert.Equal(t, "presentation.handlers[1]", model.ScriptFields[0].Path)
	assert.Equal(t, " b(); ", model.ScriptFields[0].Source)
}

func TestWidgetFlatteningCoversContainers(t *testing.T) {
	t.Parallel()
	model := build(t, schemas.KindPage, `{
  "id": "p",
  "presentation": {
    "id": "root", "type": "panel",
    "children": [
      {"id": "left", "type": "panel", "slots": {
        "header": [{"id": "title", "type": "label"}]
      }}
    ],
    "cells": [
      {"template": {"id": "cell0", "type": "row"}}
    ]
  }
}`)

	require.NotNil(t, model.Page)
	paths := map[string]string{}
	for _, w := range model.Page.Widgets {
		paths[w.ID] = w.Path
	}
	assert.Equal(t, "presentation", paths["root"])
	assert.Equal(t, "presentation.children[0]", paths["left"])
	assert.Equal(t, "presentation.children[0].slots.header[0]", paths["title"])
	assert.Equal(t, "presentation.cells[0].template", paths["cell0"])
}

func TestEscapedMultiLineFragmentLocates(t *testing.T) {
	t.Parallel()
	// The fragment holds real newlines after JSON decoding; the raw document
	// stores them as \n escapes. StartLine must still find the field.
	model := build(t, schemas.KindPage, "{\n  \"id\": \"p\",\n  \"presentation\": {\n    \"id\": \"r\", \"type\": \"panel\",\n    \"onLoad\": \"<% setup();\\nfinish(); %>\"\n  }\n}")

	require.Len(t, model.ScriptFields, 1)
	field := model.ScriptFields[0]
	assert.Equal(t, " setup();\nfinish(); ", field.Source)
	line, ok := model.SourceMap.StartLine(field.Source, field.Occurrence)
	require.True(t, ok)
	assert.Equal(t, 5, line)
}
