package servicetest

import (
	"fmt"

	"github.com/drblury/bedrock/descriptor"
	"github.com/drblury/bedrock/service"
)

// validateEvent lists every way query breaks the event's parameter rules:
// unspecified parameters on strict events and missing required ones, then the
// same checks for each post-data object.
func validateEvent(query map[string]any, ev *descriptor.Event) []string {
	problems := validateParameters(query, ev.IsStrict(), ev.Parameters)

	postData := ev.PostData()
	if postData == nil || postData.Parameters == nil {
		return problems
	}
	switch data := query[descriptor.ParameterPostData].(type) {
	case []any:
		for _, entry := range data {
			if object, ok := entry.(map[string]any); ok {
				problems = append(problems, validateParameters(object, postData.IsStrict(), postData.Parameters)...)
			}
		}
	case map[string]any:
		problems = append(problems, validateParameters(data, postData.IsStrict(), postData.Parameters)...)
	}
	return problems
}

func validateParameters(query map[string]any, strict bool, params map[string]*descriptor.Parameter) []string {
	var problems []string
	if strict {
		for _, name := range sortedKeys(query) {
			if name == service.FieldEvent {
				continue
			}
			if _, ok := params[name]; !ok {
				problems = append(problems, fmt.Sprintf("Unspecified parameter: '%s'", name))
			}
		}
	}
	for _, name := range sortedKeys(params) {
		if p := params[name]; p != nil && p.IsRequired() {
			if _, ok := query[name]; !ok {
				problems = append(problems, fmt.Sprintf("Missing required parameter: '%s'", name))
			}
		}
	}
	return problems
}
