// Package schemas defines the data contracts shared between the analysis
// core and its collaborators (the CLI, report renderers, external rule
// packages). Everything a consumer of an analysis run needs to understand
// lives here; internal packages own their own working types.
package schemas

// DocumentKind classifies the raw documents an application bundle is made of.
type DocumentKind string

const (
	// KindPage is a top-level screen definition with a presentation tree.
	KindPage DocumentKind = "page"
	// KindComponent is a reusable widget/template package.
	KindComponent DocumentKind = "component"
	// KindAppDescriptor is the application-level descriptor (providers, config).
	KindAppDescriptor DocumentKind = "app-descriptor"
	// KindSecurityDescriptor carries security domains and error routing.
	KindSecurityDescriptor DocumentKind = "security-descriptor"
	// KindScriptFile is a standalone script include.
	KindScriptFile DocumentKind = "script-file"
)

// AllDocumentKinds lists every kind the core recognizes, in a stable order.
func AllDocumentKinds() []DocumentKind {
	return []DocumentKind{
		KindPage,
		KindComponent,
		KindAppDescriptor,
		KindSecurityDescriptor,
		KindScriptFile,
	}
}

// SourceFile is one raw document handed to the core. The text has already
// been read from whatever archive or upload mechanism the caller uses; the
// core performs no file I/O of its own.
type SourceFile struct {
	Path string       `json:"path"`
	Text string       `json:"-"`
	Kind DocumentKind `json:"kind"`
}
