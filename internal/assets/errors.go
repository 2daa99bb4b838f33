package assets

import "errors"

// Lookup failures. The server falls back to the embedded asset when a
// custom directory lacks one of these.
var (
	ErrStyleNotFound       = errors.New("preview style not found")
	ErrScriptNotFound      = errors.New("preview script not found")
	ErrTemplateSetNotFound = errors.New("page template set not found")
)

var (
	// ErrIncompleteTemplateSet means a template set lacks index.html,
	// page.html or widget.html.
	ErrIncompleteTemplateSet = errors.New("template set is incomplete")

	ErrInvalidAssetName = errors.New("invalid asset name")

	// ErrInvalidBasePath is returned for an --asset-path that is not a
	// readable directory.
	ErrInvalidBasePath = errors.New("invalid asset path")

	ErrAssetRead     = errors.New("reading asset")
	ErrPathTraversal = errors.New("asset path escapes --asset-path")
)
