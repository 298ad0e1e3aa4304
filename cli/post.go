package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/drblury/bedrock/descriptor"
	"github.com/drblury/bedrock/jsonutil"
	"github.com/drblury/bedrock/service"
)

func newPostCommand(a *app) *cobra.Command {
	var (
		data         string
		url          string
		responseOnly bool
		camel        bool
	)

	cmd := &cobra.Command{
		Use:   "post <event> [name=value ...]",
		Short: "Post an event and print the response envelope",
		Long: `Post an event to the service and print the envelope it answers with.

Parameters are given as name=value pairs. A value that parses as JSON is sent
as that JSON value, anything else as a string. --data supplies a JSON object
of parameters (or @file to read one); pairs are applied on top of it.`,
		Example: `  bedrock post version
  bedrock post echo name=world count=3
  bedrock post multiple --data @queries.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParameters(data, args[1:])
			if err != nil {
				return err
			}

			var callOpts []service.CallOption
			if url != "" {
				callOpts = append(callOpts, service.WithURL(url))
			}

			env, callErr := a.client().Call(cmd.Context(), args[0], params, callOpts...)
			if env == nil {
				return callErr
			}
			if callErr != nil || (!responseOnly && !camel) {
				if err := writeJSON(cmd.OutOrStdout(), env); err != nil {
					return err
				}
				return callErr
			}
			if !camel {
				return writeJSON(cmd.OutOrStdout(), env.Result())
			}
			var response any
			if err := env.DecodeResponse(&response); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), descriptor.TranslateResponse(response))
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON object of parameters, or @file")
	cmd.Flags().StringVar(&url, "url", "", "Post to this URL instead of <context-path>api")
	cmd.Flags().BoolVarP(&responseOnly, "response", "r", false, "Print only the unwrapped response")
	cmd.Flags().BoolVar(&camel, "camel", false, "Print only the response, with dash-case keys renamed to camelCase")
	return cmd
}

func newSpecCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "spec",
		Short: "Fetch the service specification (the help event)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, err := descriptor.Fetch(cmd.Context(), a.client())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), spec)
		},
	}
}

// parseParameters merges the --data object with name=value pairs.
func parseParameters(data string, pairs []string) (service.Parameters, error) {
	params := service.Parameters{}

	if data != "" {
		raw := []byte(data)
		if path, ok := strings.CutPrefix(data, "@"); ok {
			var err error
			if raw, err = os.ReadFile(path); err != nil {
				return nil, fmt.Errorf("failed to read --data: %w", err)
			}
		}
		var decoded service.Parameters
		if err := jsonutil.Unmarshal(raw, &decoded); err != nil {
			return nil, fmt.Errorf("--data must be a JSON object: %w", err)
		}
		if decoded == nil {
			return nil, errors.New("--data must be a JSON object, got null")
		}
		params = decoded
	}

	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", pair)
		}
		params[name] = parseValue(value)
	}
	return params, nil
}

func parseValue(value string) any {
	if jsonutil.Valid([]byte(value)) {
		var v any
		if err := jsonutil.Unmarshal([]byte(value), &v); err == nil {
			return v
		}
	}
	return value
}

func writeJSON(w io.Writer, v any) error {
	data, err := jsonutil.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
