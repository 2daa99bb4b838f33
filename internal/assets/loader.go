package assets

// AssetLoader defines the contract for loading styles, scripts and
// template sets.
type AssetLoader interface {
	// LoadStyle loads a CSS style by name (without .css extension).
	// Returns ErrStyleNotFound if the style doesn't exist.
	LoadStyle(name string) (string, error)

	// LoadScript loads a script by name (without .js extension).
	// Returns ErrScriptNotFound if the script doesn't exist.
	LoadScript(name string) (string, error)

	// LoadTemplateSet loads the templates stored under templates/{name}/.
	LoadTemplateSet(name string) (*TemplateSet, error)
}
