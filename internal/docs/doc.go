// Package docs finds Typst preview blocks in Markdown pages and renders
// pages to HTML with a placeholder where each preview widget goes.
//
// A preview block is a fenced code block tagged typst:
//
//	```typst image=chart.png alt="A bar chart" layout=vertical readonly
//	>>> #set page(width: 120pt, height: auto)
//	#rect(fill: blue)
//	```
//
// Attributes after the language configure the preview. Lines starting
// with ">>>" at the start or end of the block are hidden boilerplate: they
// are compiled but never displayed or edited.
package docs
