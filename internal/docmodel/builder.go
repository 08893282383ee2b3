package docmodel

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fenwicklabs/canvaslint/api/schemas"
)

// Script fragment delimiters. These are fixed syntactic markers of the
// document format; both the builder and the source map match them literally.
const (
	scriptOpen  = "<%"
	scriptClose = "%>"
)

// Builder turns raw documents into DocumentModels. Builders are stateless
// and safe for concurrent use; each Build call works on its own document.
type Builder struct {
	logger *zap.Logger
}

// NewBuilder creates a document model builder.
func NewBuilder(logger *zap.Logger) *Builder {
	return &Builder{logger: logger.Named("docmodel")}
}

// Build parses one raw document into its typed model. Build never fails: a
// malformed document yields a degraded model carrying whatever could be
// extracted, so one broken file cannot abort a run.
func (b *Builder) Build(file schemas.SourceFile) *DocumentModel {
	model := &DocumentModel{
		Path:      file.Path,
		Kind:      file.Kind,
		SourceMap: NewSourceMap(file.Text),
	}

	if file.Kind == schemas.KindScriptFile {
		occ := model.SourceMap.Register(file.Text, file.Text)
		model.Script = &ScriptFileModel{Source: file.Text}
		model.ScriptFields = append(model.ScriptFields, ScriptField{
			Name:       "(file)",
			Path:       "(file)",
			Source:     file.Text,
			Occurrence: occ,
		})
		return model
	}

	root, err := parseJSON(file.Text)
	if err != nil {
		b.logger.Warn("document failed to parse, model degraded",
			zap.String("path", file.Path), zap.Error(err))
		model.Degraded = append(model.Degraded, "document")
		return model
	}

	switch file.Kind {
	case schemas.KindPage:
		model.Page = b.buildPage(root, model)
	case schemas.KindComponent:
		model.Component = b.buildComponent(root, model)
	case schemas.KindAppDescriptor:
		model.App = b.buildAppDescriptor(root, model)
	case schemas.KindSecurityDescriptor:
		model.Security = b.buildSecurityDescriptor(root, model)
	default:
		model.Degraded = append(model.Degraded, "document")
		return model
	}

	// One ordered pass over the whole document discovers every
	// script-bearing field and registers it with the source map. Discovery
	// is generic: any string field carrying the delimiters counts,
	// wherever it nests.
	b.collectScripts(root, "", "", model)
	return model
}

func (b *Builder) degrade(model *DocumentModel, section string) {
	b.logger.Warn("section malformed, treated as absent",
		zap.String("path", model.Path), zap.String("section", section))
	model.Degraded = append(model.Degraded, section)
}

// -- Variant extraction --

func (b *Builder) buildPage(root *jsonValue, model *DocumentModel) *PageModel {
	page := &PageModel{
		ID:              root.field("id").asString(),
		MicroConclusion: root.field("microConclusion").asBool(),
	}
	if sd := root.field("securityDomains"); sd != nil {
		if list, ok := sd.stringList(); ok {
			page.SecurityDomains = list
			page.HasSecurityDomains = true
		} else {
			b.degrade(model, "securityDomains")
		}
	}
	if inc := root.field("include"); inc != nil {
		if list, ok := inc.stringList(); ok {
			page.Includes = list
		} else {
			b.degrade(model, "include")
		}
	}
	if eps := root.field("endpoints"); eps != nil {
		list, ok := readEndpoints(eps)
		if !ok {
			b.degrade(model, "endpoints")
		}
		page.Endpoints = list
	}
	if tree := root.field("presentation"); tree != nil {
		page.Widgets = flattenWidgets(tree, "presentation")
	}
	return page
}

func (b *Builder) buildComponent(root *jsonValue, model *DocumentModel) *ComponentModel {
	cmp := &ComponentModel{
		ID: root.field("id").asString(),
	}
	if sd := root.field("securityDomains"); sd != nil {
		if list, ok := sd.stringList(); ok {
			cmp.SecurityDomains = list
			cmp.HasSecurityDomains = true
		} else {
			b.degrade(model, "securityDomains")
		}
	}
	if inc := root.field("include"); inc != nil {
		if list, ok := inc.stringList(); ok {
			cmp.Includes = list
		} else {
			b.degrade(model, "include")
		}
	}
	if tree := root.field("template"); tree != nil {
		cmp.Widgets = flattenWidgets(tree, "template")
	}
	return cmp
}

func (b *Builder) buildAppDescriptor(root *jsonValue, model *DocumentModel) *AppDescriptorModel {
	app := &AppDescriptorModel{AppID: root.field("id").asString()}
	if dps := root.field("dataProviders"); dps != nil {
		if dps.kind != kindArray {
			b.degrade(model, "dataProviders")
			return app
		}
		for _, item := range dps.items {
			if item == nil || item.kind != kindObject {
				b.degrade(model, "dataProviders")
				continue
			}
			app.DataProviders = append(app.DataProviders, DataProvider{
				Name: item.field("name").asString(),
				Type: item.field("type").asString(),
			})
		}
	}
	return app
}

func (b *Builder) buildSecurityDescriptor(root *jsonValue, model *DocumentModel) *SecurityDescriptorModel {
	sec := &SecurityDescriptorModel{}
	if domains := root.field("domains"); domains != nil {
		if list, ok := domains.stringList(); ok {
			sec.Domains = list
		} else {
			b.degrade(model, "domains")
		}
	}
	if eps := root.field("errorPageConfigurations"); eps != nil {
		if eps.kind != kindArray {
			b.degrade(model, "errorPageConfigurations")
			return sec
		}
		for _, item := range eps.items {
			if item == nil || item.kind != kindObject {
				b.degrade(model, "errorPageConfigurations")
				continue
			}
			sec.ErrorPageConfigurations = append(sec.ErrorPageConfigurations, ErrorPageConfig{
				Code: item.field("code").asString(),
				Page: item.field("page").asString(),
			})
		}
	}
	return sec
}

func readEndpoints(v *jsonValue) ([]Endpoint, bool) {
	if v.kind != kindArray {
		return nil, false
	}
	var list []Endpoint
	ok := true
	for _, item := range v.items {
		if item == nil || item.kind != kindObject {
			ok = false
			continue
		}
		list = append(list, Endpoint{
			Name:   item.field("name").asString(),
			URL:    item.field("url").asString(),
			Method: item.field("method").asString(),
		})
	}
	return list, ok
}

// -- Script field discovery --

// collectScripts walks the ordered value tree and registers every script
// fragment with the source map in document scan order.
func (b *Builder) collectScripts(v *jsonValue, path, name string, model *DocumentModel) {
	if v == nil {
		return
	}
	switch v.kind {
	case kindString:
		source, ok := stripDelimiters(v.str)
		if !ok {
			return
		}
		occ := model.SourceMap.Register(source, v.str)
		model.ScriptFields = append(model.ScriptFields, ScriptField{
			Name:       name,
			Path:       path,
			Source:     source,
			Occurrence: occ,
		})
	case kindArray:
		if source, anchor, ok := concatenatedFragment(v); ok {
			occ := model.SourceMap.Register(source, anchor)
			model.ScriptFields = append(model.ScriptFields, ScriptField{
				Name:       name,
				Path:       path,
				Source:     source,
				Occurrence: occ,
			})
			return
		}
		for i, item := range v.items {
			b.collectScripts(item, fmt.Sprintf("%s[%d]", path, i), name, model)
		}
	case kindObject:
		for _, f := range v.fields {
			childPath := f.name
			if path != "" {
				childPath = path + "." + f.name
			}
			b.collectScripts(f.value, childPath, f.name, model)
		}
	}
}

// stripDelimiters extracts the script source from a delimited field value.
// Interior whitespace is preserved so fragment-relative line numbers stay
// aligned with the raw document.
func stripDelimiters(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, scriptOpen) || !strings.HasSuffix(trimmed, scriptClose) {
		return "", false
	}
	return trimmed[len(scriptOpen) : len(trimmed)-len(scriptClose)], true
}

// concatenatedFragment recognizes a script split across an array of literal
// string pieces. The pieces join into a single resolved field value with one
// mapping; the first piece anchors the position lookup.
func concatenatedFragment(v *jsonValue) (source, anchor string, ok bool) {
	if len(v.items) == 0 {
		return "", "", false
	}
	var joined strings.Builder
	for _, item := range v.items {
		if item == nil || item.kind != kindString {
			return "", "", false
		}
		joined.WriteString(item.str)
	}
	source, ok = stripDelimiters(joined.String())
	if !ok {
		return "", "", false
	}
	return source, v.items[0].str, true
}

// -- Widget tree flattening --

// flattenWidgets linearizes a presentation tree into addressable entries.
// Nesting is followed through the known container fields: child lists,
// layout slots, and table cell templates.
func flattenWidgets(tree *jsonValue, rootPath string) []Widget {
	var out []Widget
	var walk func(v *jsonValue, path string, index int)
	walk = func(v *jsonValue, path string, index int) {
		if v == nil || v.kind != kindObject {
			return
		}
		out = append(out, Widget{
			Type:  v.field("type").asString(),
			ID:    v.field("id").asString(),
			Path:  path,
			Index: index,
		})
		if children := v.field("children"); children != nil && children.kind == kindArray {
			for i, child := range children.items {
				walk(child, fmt.Sprintf("%s.children[%d]", path, i), i)
			}
		}
		if slots := v.field("slots"); slots != nil && slots.kind == kindObject {
			for _, slot := range slots.fields {
				if slot.value == nil || slot.value.kind != kindArray {
					continue
				}
				for i, child := range slot.value.items {
					walk(child, fmt.Sprintf("%s.slots.%s[%d]", path, slot.name, i), i)
				}
			}
		}
		if cells := v.field("cells"); cells != nil && cells.kind == kindArray {
			for i, cell := range cells.items {
				if cell == nil || cell.kind != kindObject {
					continue
				}
				if tpl := cell.field("template"); tpl != nil {
					walk(tpl, fmt.Sprintf("%s.cells[%d].template", path, i), i)
				}
			}
		}
	}
	walk(tree, rootPath, 0)
	return out
}
