// Package assets provides the CSS, JavaScript and HTML templates used to
// serve preview pages. Assets can be loaded from embedded files or custom
// filesystem paths.
//
// # Loader Architecture
//
// The package implements a layered loading system:
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (defaults)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// AssetResolver is the loader used by the server. It tries the custom
// FilesystemLoader first, falling back to EmbeddedLoader if the asset is
// not found, so a docs site can override one template and keep the rest.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css
//	├── scripts/
//	│   └── {name}.js
//	└── templates/
//	    └── {name}/
//	        ├── page.html        # document page with preview widgets
//	        ├── index.html       # list of pages
//	        └── widget.html      # one preview: editor, output, error panel
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
