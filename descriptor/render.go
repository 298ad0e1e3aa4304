package descriptor

import (
	"fmt"
	"io"
	"net/url"
)

// FooterURL is the link target of the "Built with Bedrock" footer.
const FooterURL = "http://bedrock.brettonw.com"

const defaultTitle = "Bedrock Service"

// RenderOption customises the generated page.
type RenderOption func(*renderConfig)

type renderConfig struct {
	exampleLink func(event string) string
	stylesheet  string
}

func newRenderConfig(opts []RenderOption) renderConfig {
	cfg := renderConfig{exampleLink: defaultExampleLink}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func defaultExampleLink(event string) string {
	return "?example=" + url.QueryEscape(event)
}

// WithExampleLink sets how the [example] link of an event is built. The
// default links to "?example=<event>", which the info handlers understand.
func WithExampleLink(link func(event string) string) RenderOption {
	return func(cfg *renderConfig) {
		if link != nil {
			cfg.exampleLink = link
		}
	}
}

// WithStylesheet links the page to a stylesheet.
func WithStylesheet(href string) RenderOption {
	return func(cfg *renderConfig) {
		cfg.stylesheet = href
	}
}

type pageView struct {
	Title          string
	Name           string
	Description    string
	HasDescription bool
	HasEvents      bool
	Events         []eventView
	Stylesheet     string
	FooterURL      string
}

type eventView struct {
	Name        string
	Description string
	ExampleURL  string
	Sections    []sectionView
}

type sectionView struct {
	Title string
	Rows  []rowView
}

type rowView struct {
	Name        string
	Required    bool
	Description string
	Odd         bool
}

// Render writes the HTML documentation page for spec.
func Render(w io.Writer, spec *Specification, opts ...RenderOption) error {
	if spec == nil {
		return fmt.Errorf("descriptor: nil specification")
	}
	cfg := newRenderConfig(opts)
	if err := specificationTemplate.Execute(w, buildPage(spec, cfg)); err != nil {
		return fmt.Errorf("descriptor: failed to render specification: %w", err)
	}
	return nil
}

func buildPage(spec *Specification, cfg renderConfig) pageView {
	page := pageView{
		Title:          spec.Name,
		Name:           spec.Name,
		Description:    spec.Description,
		HasDescription: spec.Description != "",
		HasEvents:      spec.Events != nil,
		Stylesheet:     cfg.stylesheet,
		FooterURL:      FooterURL,
	}
	if page.Title == "" {
		page.Title = defaultTitle
	}
	for _, name := range spec.PublishedEventNames() {
		page.Events = append(page.Events, buildEvent(name, spec.Events[name], cfg))
	}
	return page
}

func buildEvent(name string, ev *Event, cfg renderConfig) eventView {
	view := eventView{Name: name, Description: ev.Description}
	if ev.HasExample() {
		view.ExampleURL = cfg.exampleLink(name)
	}

	if section, ok := parameterSection("Parameters:", ev.Parameters, ev.IsStrict()); ok {
		view.Sections = append(view.Sections, section)
	}
	if postData := ev.PostData(); postData != nil {
		if section, ok := parameterSection("Post Data:", postData.Parameters, postData.IsStrict()); ok {
			view.Sections = append(view.Sections, section)
		}
	}
	if section, ok := responseSection(ev.Response); ok {
		view.Sections = append(view.Sections, section)
	}
	return view
}

func parameterSection(title string, params map[string]*Parameter, strict bool) (sectionView, bool) {
	section := sectionView{Title: title}
	odd := appendRows(&section, params)
	if !strict {
		section.Rows = append(section.Rows, rowView{
			Name:        "(any)",
			Description: "Event allows unspecified parameters.",
			Odd:         odd,
		})
	}
	return section, len(section.Rows) > 0
}

func responseSection(resp *ResponseSpec) (sectionView, bool) {
	switch {
	case resp == nil:
		return sectionView{}, false
	case resp.Array && len(resp.Fields) == 0:
		return sectionView{
			Title: "Response (Array):",
			Rows:  []rowView{{Name: "(any)", Description: "Unspecified.", Odd: true}},
		}, true
	case resp.Array:
		section := sectionView{Title: "Response (Array):"}
		appendRows(&section, resp.Fields)
		return section, true
	default:
		section := sectionView{Title: "Response:"}
		appendRows(&section, resp.Fields)
		return section, len(section.Rows) > 0
	}
}

// appendRows adds one row per entry, alternating from odd, and returns the
// parity the next row would take.
func appendRows(section *sectionView, params map[string]*Parameter) bool {
	odd := true
	for _, name := range sortedKeys(params) {
		row := rowView{Name: name, Odd: odd}
		if p := params[name]; p != nil {
			row.Required = p.IsRequired()
			row.Description = p.Description
		}
		section.Rows = append(section.Rows, row)
		odd = !odd
	}
	return odd
}
