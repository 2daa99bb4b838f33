package docs

import "errors"

// Sentinel errors for scanning and rendering.
var (
	ErrInvalidBlock  = errors.New("invalid preview block")
	ErrPageTooLarge  = errors.New("page exceeds maximum size")
	ErrPageRender    = errors.New("page rendering failed")
	ErrUnclosedQuote = errors.New("unclosed quote in block attributes")
)
