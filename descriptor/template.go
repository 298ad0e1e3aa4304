package descriptor

import (
	"embed"
	"html/template"
)

//go:embed assets/*.html
var assets embed.FS

var (
	specificationTemplate = template.Must(template.ParseFS(assets, "assets/descriptor.html"))
	exampleTemplate       = template.Must(template.ParseFS(assets, "assets/example.html"))
)
