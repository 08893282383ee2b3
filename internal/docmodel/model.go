// Package docmodel parses raw bundle documents into typed in-memory models.
// A model exposes the sections rules care about (scripts, endpoints, widgets,
// includes, security domains) and registers every script-bearing field with
// the document's SourceMap. Malformed sections degrade the model instead of
// failing the file.
package docmodel

import (
	"github.com/fenwicklabs/canvaslint/api/schemas"
)

// ScriptField is one field whose value is a script fragment. Source is the
// resolved script text (delimiters stripped, concatenated pieces joined);
// Occurrence is the ordinal the SourceMap assigned, which together with
// Source addresses the field's absolute start line.
type ScriptField struct {
	Name       string // the field name, e.g. "onLoad"
	Path       string // flattened address, e.g. "presentation.children[2].onClick"
	Source     string
	Occurrence int
}

// Endpoint is one entry of a page's endpoint list.
type Endpoint struct {
	Name   string
	URL    string
	Method string
}

// Widget is one node of the flattened presentation tree. Path addresses the
// widget through the container fields it was reached by, so findings can
// point at an exact position inside arbitrarily nested layouts.
type Widget struct {
	Type  string
	ID    string
	Path  string
	Index int // position among siblings in its container
}

// DataProvider is one provider registration from the app descriptor.
type DataProvider struct {
	Name string
	Type string
}

// ErrorPageConfig maps an error condition to the page that renders it.
type ErrorPageConfig struct {
	Code string
	Page string
}

// PageModel is the typed view of a page document.
type PageModel struct {
	ID              string
	SecurityDomains []string
	// HasSecurityDomains distinguishes an empty list from an absent field.
	HasSecurityDomains bool
	Includes           []string
	Endpoints          []Endpoint
	Widgets            []Widget
	// MicroConclusion pages are terminal confirmation screens that the
	// security-domain rule exempts.
	MicroConclusion bool
}

// ComponentModel is the typed view of a component document. Components carry
// a seed/template structure analogous to a page's presentation tree.
type ComponentModel struct {
	ID                 string
	SecurityDomains    []string
	HasSecurityDomains bool
	Includes           []string
	Widgets            []Widget
}

// AppDescriptorModel is the typed view of the application descriptor.
type AppDescriptorModel struct {
	AppID         string
	DataProviders []DataProvider
}

// SecurityDescriptorModel is the typed view of the security descriptor.
type SecurityDescriptorModel struct {
	Domains                 []string
	ErrorPageConfigurations []ErrorPageConfig
}

// ScriptFileModel is the typed view of a standalone script file.
type ScriptFileModel struct {
	Source string
}

// DocumentModel is the tagged union over the five document variants. Exactly
// one of the variant pointers matching Kind is set. Models are immutable
// once built; rules read them through the project context snapshot.
type DocumentModel struct {
	Path string
	Kind schemas.DocumentKind

	// Degraded names the sections that could not be fully parsed. Rules
	// treat degraded sections as "no data", never as errors.
	Degraded []string

	// ScriptFields lists every script-bearing field in document scan order.
	ScriptFields []ScriptField
	// SourceMap resolves fragment-relative lines to absolute document lines.
	SourceMap *SourceMap

	Page      *PageModel
	Component *ComponentModel
	App       *AppDescriptorModel
	Security  *SecurityDescriptorModel
	Script    *ScriptFileModel
}

// IsDegraded reports whether the named section failed to parse.
func (m *DocumentModel) IsDegraded(section string) bool {
	for _, d := range m.Degraded {
		if d == section {
			return true
		}
	}
	return false
}

// ID returns the document's declared identifier, when its variant has one.
func (m *DocumentModel) ID() string {
	switch {
	case m.Page != nil:
		return m.Page.ID
	case m.Component != nil:
		return m.Component.ID
	case m.App != nil:
		return m.App.AppID
	}
	return ""
}

// Includes returns the document's include list, when its variant has one.
func (m *DocumentModel) Includes() []string {
	switch {
	case m.Page != nil:
		return m.Page.Includes
	case m.Component != nil:
		return m.Component.Includes
	}
	return nil
}
