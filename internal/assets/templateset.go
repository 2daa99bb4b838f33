package assets

// TemplateSet holds the HTML templates that render preview pages.
type TemplateSet struct {
	Name   string // identifier (name or directory path)
	Page   string // page.html
	Index  string // index.html
	Widget string // widget.html
}

// templateFiles lists the files every template set must provide.
var templateFiles = []string{"page.html", "index.html", "widget.html"}

// DefaultTemplateSetName is the name of the built-in template set.
const DefaultTemplateSetName = "default"

// DefaultStyleName is the name of the built-in CSS style.
const DefaultStyleName = "default"

// DefaultScriptName is the name of the built-in widget script.
const DefaultScriptName = "preview"

// newTemplateSet builds a set from file contents keyed by file name.
func newTemplateSet(name string, files map[string]string) *TemplateSet {
	return &TemplateSet{
		Name:   name,
		Page:   files["page.html"],
		Index:  files["index.html"],
		Widget: files["widget.html"],
	}
}
