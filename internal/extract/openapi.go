package extract

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/devdocsai/devdocs/internal/document"
)

var httpMethods = []string{"get", "post", "put", "delete", "patch"}

// OpenAPI parses an OpenAPI specification (YAML or JSON, yaml.v3
// handles both) and renders its info block, each endpoint and each
// component schema as a separate text section.
func OpenAPI(data []byte) ([]Section, error) {
	var spec map[string]any
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, &Error{Type: document.TypeOpenAPI, Err: err}
	}
	if spec == nil {
		return nil, &Error{Type: document.TypeOpenAPI, Err: errors.New("empty specification")}
	}

	var sections []Section

	if info, ok := spec["info"].(map[string]any); ok {
		var b strings.Builder
		b.WriteString("API Information:\n")
		fmt.Fprintf(&b, "Title: %s\n", stringField(info, "title"))
		fmt.Fprintf(&b, "Version: %s\n", stringField(info, "version"))
		fmt.Fprintf(&b, "Description: %s", stringField(info, "description"))
		sections = append(sections, Section{
			Text: b.String(),
			Meta: map[string]string{"section": "info"},
		})
	}

	if paths, ok := spec["paths"].(map[string]any); ok {
		for _, path := range sortedKeys(paths) {
			methods, ok := paths[path].(map[string]any)
			if !ok {
				continue
			}
			for _, method := range httpMethods {
				details, ok := methods[method].(map[string]any)
				if !ok {
					continue
				}
				sections = append(sections, endpointSection(path, method, details))
			}
		}
	}

	if components, ok := spec["components"].(map[string]any); ok {
		if schemas, ok := components["schemas"].(map[string]any); ok {
			for _, name := range sortedKeys(schemas) {
				schema, ok := schemas[name].(map[string]any)
				if !ok {
					continue
				}
				sections = append(sections, schemaSection(name, schema))
			}
		}
	}

	return sections, nil
}

func endpointSection(path, method string, details map[string]any) Section {
	var b strings.Builder
	fmt.Fprintf(&b, "Endpoint: %s %s\n", strings.ToUpper(method), path)
	fmt.Fprintf(&b, "Summary: %s\n", stringField(details, "summary"))
	fmt.Fprintf(&b, "Description: %s\n", stringField(details, "description"))

	if params, ok := details["parameters"].([]any); ok && len(params) > 0 {
		b.WriteString("Parameters:\n")
		for _, p := range params {
			param, ok := p.(map[string]any)
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "- %s (%s): %s\n",
				stringField(param, "name"), stringField(param, "in"), stringField(param, "description"))
		}
	}
	if body, ok := details["requestBody"].(map[string]any); ok {
		fmt.Fprintf(&b, "Request Body: %s\n", stringField(body, "description"))
	}
	if responses, ok := details["responses"].(map[string]any); ok && len(responses) > 0 {
		b.WriteString("Responses:\n")
		for _, status := range sortedKeys(responses) {
			resp, ok := responses[status].(map[string]any)
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "- %s: %s\n", status, stringField(resp, "description"))
		}
	}

	return Section{
		Text: strings.TrimRight(b.String(), "\n"),
		Meta: map[string]string{
			"section": "paths",
			"method":  strings.ToUpper(method),
			"path":    path,
		},
	}
}

func schemaSection(name string, schema map[string]any) Section {
	var b strings.Builder
	fmt.Fprintf(&b, "Schema: %s\n", name)
	fmt.Fprintf(&b, "Type: %s\n", stringField(schema, "type"))
	fmt.Fprintf(&b, "Description: %s\n", stringField(schema, "description"))

	if props, ok := schema["properties"].(map[string]any); ok && len(props) > 0 {
		b.WriteString("Properties:\n")
		for _, propName := range sortedKeys(props) {
			prop, ok := props[propName].(map[string]any)
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "- %s (%s): %s\n",
				propName, stringField(prop, "type"), stringField(prop, "description"))
		}
	}

	return Section{
		Text: strings.TrimRight(b.String(), "\n"),
		Meta: map[string]string{
			"section": "components/schemas",
			"schema":  name,
		},
	}
}

func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return "N/A"
	}
	s := fmt.Sprintf("%v", v)
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// sortedKeys keeps section order deterministic across runs; yaml.v3
// decodes mappings into unordered maps.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
