// Package project assembles the read surface rules consume: the built
// document models partitioned by kind, resolved include lists, cross-file
// export usage, and the application identifier. It performs no rule logic.
package project

import (
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/fenwicklabs/canvaslint/api/schemas"
	"github.com/fenwicklabs/canvaslint/internal/analysis"
	"github.com/fenwicklabs/canvaslint/internal/astcache"
	"github.com/fenwicklabs/canvaslint/internal/docmodel"
	"github.com/fenwicklabs/canvaslint/internal/tracker"
)

// Include is one resolved entry of a document's include list.
type Include struct {
	// Name is the entry as written in the document.
	Name string
	// File is the standalone script file the entry resolved to, nil when no
	// available script file matches.
	File *docmodel.DocumentModel
	// UsedMembers are the exported names of the resolved file that the
	// including document's own script fragments reference.
	UsedMembers []string
}

// Context is the aggregate view of one analysis run. It owns the AST cache
// and the completeness tracker, so independent runs never share state.
type Context struct {
	Models []*docmodel.DocumentModel

	Pages       []*docmodel.DocumentModel
	Components  []*docmodel.DocumentModel
	ScriptFiles []*docmodel.DocumentModel
	// App and Security hold the first descriptor of their kind; a bundle
	// has at most one of each, extras are kept only in Models.
	App      *docmodel.DocumentModel
	Security *docmodel.DocumentModel

	// AppID is the application identifier from the app descriptor, empty
	// when no descriptor is present or its identifier section degraded.
	AppID string

	Cache   *astcache.Cache
	Tracker *tracker.Tracker

	includes map[string][]Include // keyed by document path

	mu     sync.Mutex
	idents map[string]map[string]bool // memoized per-document identifier surface

	logger *zap.Logger
}

// Assemble builds the Context from a set of document models. Include
// resolution and export usage are computed here, once, so rules only read.
func Assemble(models []*docmodel.DocumentModel, logger *zap.Logger) *Context {
	c := &Context{
		Models:   models,
		Cache:    astcache.New(),
		Tracker:  tracker.New(),
		includes: make(map[string][]Include),
		idents:   make(map[string]map[string]bool),
		logger:   logger.Named("project"),
	}
	for _, m := range models {
		switch m.Kind {
		case schemas.KindPage:
			c.Pages = append(c.Pages, m)
		case schemas.KindComponent:
			c.Components = append(c.Components, m)
		case schemas.KindScriptFile:
			c.ScriptFiles = append(c.ScriptFiles, m)
		case schemas.KindAppDescriptor:
			if c.App == nil {
				c.App = m
			}
		case schemas.KindSecurityDescriptor:
			if c.Security == nil {
				c.Security = m
			}
		}
	}
	if c.App != nil && c.App.App != nil {
		c.AppID = c.App.App.AppID
	}

	byName := c.scriptFilesByName()
	for _, m := range models {
		names := m.Includes()
		if len(names) == 0 {
			continue
		}
		c.includes[m.Path] = c.resolveIncludes(m, names, byName)
	}
	return c
}

// IncludesFor returns the resolved include list of a document, nil when the
// document declares none.
func (c *Context) IncludesFor(doc *docmodel.DocumentModel) []Include {
	return c.includes[doc.Path]
}

// PresentKinds reports which document kinds the run actually saw, feeding
// the completeness summary.
func (c *Context) PresentKinds() map[schemas.DocumentKind]bool {
	present := make(map[schemas.DocumentKind]bool, len(schemas.AllDocumentKinds()))
	for _, m := range c.Models {
		present[m.Kind] = true
	}
	return present
}

// FragmentIdentifiers returns the union of identifiers referenced across
// every parseable script fragment of the document. Fragments that fail to
// parse contribute nothing. The result is memoized per document.
func (c *Context) FragmentIdentifiers(doc *docmodel.DocumentModel) map[string]bool {
	c.mu.Lock()
	if cached, ok := c.idents[doc.Path]; ok {
		c.mu.Unlock()
		return cached
	}
	c.mu.Unlock()

	ids := make(map[string]bool)
	for _, field := range doc.ScriptFields {
		tree, fail := c.Cache.GetOrParse(field.Source)
		if fail != nil {
			continue
		}
		for name := range analysis.Identifiers(tree) {
			ids[name] = true
		}
	}

	c.mu.Lock()
	c.idents[doc.Path] = ids
	c.mu.Unlock()
	return ids
}

// scriptFilesByName indexes standalone script files by their base name with
// the extension stripped, the form include lists use. A duplicate base name
// keeps the first file and logs the collision.
func (c *Context) scriptFilesByName() map[string]*docmodel.DocumentModel {
	byName := make(map[string]*docmodel.DocumentModel, len(c.ScriptFiles))
	for _, sf := range c.ScriptFiles {
		name := includeKey(sf.Path)
		if prev, dup := byName[name]; dup {
			c.logger.Warn("duplicate script file base name",
				zap.String("name", name),
				zap.String("kept", prev.Path),
				zap.String("ignored", sf.Path))
			continue
		}
		byName[name] = sf
	}
	return byName
}

func (c *Context) resolveIncludes(doc *docmodel.DocumentModel, names []string, byName map[string]*docmodel.DocumentModel) []Include {
	resolved := make([]Include, 0, len(names))
	for _, name := range names {
		inc := Include{Name: name}
		if sf, ok := byName[includeKey(name)]; ok {
			inc.File = sf
			inc.UsedMembers = c.usedExports(doc, sf)
		}
		resolved = append(resolved, inc)
	}
	return resolved
}

// usedExports intersects the script file's export surface with the
// identifiers the including document references.
func (c *Context) usedExports(doc, scriptFile *docmodel.DocumentModel) []string {
	if scriptFile.Script == nil {
		return nil
	}
	tree, fail := c.Cache.GetOrParse(scriptFile.Script.Source)
	if fail != nil {
		c.logger.Debug("included script file does not parse",
			zap.String("file", scriptFile.Path),
			zap.String("error", fail.Message))
		return nil
	}
	refs := c.FragmentIdentifiers(doc)
	var used []string
	for _, name := range analysis.Exports(tree) {
		if refs[name] {
			used = append(used, name)
		}
	}
	return used
}

// includeKey normalizes a path or include entry to the bare base name.
func includeKey(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
