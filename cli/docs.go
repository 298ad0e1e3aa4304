package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/drblury/bedrock/descriptor"
	"github.com/drblury/bedrock/jsonutil"
)

func newDocsCommand(a *app) *cobra.Command {
	var (
		from       string
		output     string
		example    string
		stylesheet string
	)

	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Render the service specification as HTML",
		Long: `Render the service's self-description as an HTML page.

The specification is fetched with the help event unless --from names a JSON
file holding one. --example runs an event's published example against the
service and renders the result instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withOutput(cmd, output, func(w io.Writer) error {
				if example != "" {
					result, err := descriptor.TryExample(cmd.Context(), a.client(), example)
					if err != nil {
						return err
					}
					if err := descriptor.RenderExample(w, result, renderOptions(stylesheet)...); err != nil {
						return err
					}
					return result.Err
				}

				spec, err := a.specification(cmd.Context(), from)
				if err != nil {
					return err
				}
				return descriptor.Render(w, spec, renderOptions(stylesheet)...)
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Read the specification from a JSON file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	cmd.Flags().StringVar(&example, "example", "", "Run this event's example and render the result")
	cmd.Flags().StringVar(&stylesheet, "stylesheet", "", "Link this stylesheet from the page")
	return cmd
}

func newOpenAPICommand(a *app) *cobra.Command {
	var (
		from        string
		output      string
		format      string
		apiVersion  string
		unpublished bool
	)

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Export the service specification as an OpenAPI 3 document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("invalid format %q, expected json or yaml", format)
			}

			spec, err := a.specification(cmd.Context(), from)
			if err != nil {
				return err
			}

			opts := []descriptor.OpenAPIOption{descriptor.WithAPIVersion(apiVersion)}
			if from == "" {
				opts = append(opts, descriptor.WithServerURL(strings.TrimSuffix(a.cfg.ContextPath, "/")))
			}
			if unpublished {
				opts = append(opts, descriptor.WithUnpublishedEvents())
			}
			doc, err := descriptor.OpenAPI(spec, opts...)
			if err != nil {
				return err
			}

			data, err := doc.MarshalJSON()
			if err != nil {
				return fmt.Errorf("failed to encode OpenAPI document: %w", err)
			}
			if format == "yaml" {
				if data, err = jsonToYAML(data); err != nil {
					return err
				}
			} else {
				var indented any
				if err := jsonutil.Unmarshal(data, &indented); err != nil {
					return fmt.Errorf("failed to encode OpenAPI document: %w", err)
				}
				if data, err = jsonutil.MarshalIndent(indented, "", "  "); err != nil {
					return fmt.Errorf("failed to encode OpenAPI document: %w", err)
				}
				data = append(data, '\n')
			}

			return withOutput(cmd, output, func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Read the specification from a JSON file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVar(&apiVersion, "api-version", "1.0.0", "info.version of the document")
	cmd.Flags().BoolVar(&unpublished, "all", false, "Include unpublished events")
	return cmd
}

// specification reads the specification from path, or fetches it from the
// service when path is empty.
func (a *app) specification(ctx context.Context, path string) (*descriptor.Specification, error) {
	if path == "" {
		return descriptor.Fetch(ctx, a.client())
	}
	return loadSpecification(path)
}

func loadSpecification(path string) (*descriptor.Specification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read specification: %w", err)
	}
	var spec descriptor.Specification
	if err := jsonutil.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse specification %s: %w", path, err)
	}
	return &spec, nil
}

// jsonToYAML re-encodes a JSON document as YAML. Going through a yaml.Node
// keeps the key order of the input.
func jsonToYAML(data []byte) ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to convert to YAML: %w", err)
	}
	resetStyle(&node)
	out, err := yaml.Marshal(&node)
	if err != nil {
		return nil, fmt.Errorf("failed to convert to YAML: %w", err)
	}
	return out, nil
}

// resetStyle drops the flow and quoting styles inherited from JSON syntax.
func resetStyle(node *yaml.Node) {
	node.Style = 0
	for _, child := range node.Content {
		resetStyle(child)
	}
}

func renderOptions(stylesheet string) []descriptor.RenderOption {
	if stylesheet == "" {
		return nil
	}
	return []descriptor.RenderOption{descriptor.WithStylesheet(stylesheet)}
}

// withOutput hands fn the command's stdout, or the named file.
func withOutput(cmd *cobra.Command, path string, fn func(w io.Writer) error) error {
	if path == "" {
		return fn(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
