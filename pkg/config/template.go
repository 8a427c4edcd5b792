package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// TemplateOptions controls configuration template generation.
type TemplateOptions struct {
	// Full writes every setting with its documentation.
	// If false, generates a minimal template.
	Full bool

	// Format is the output format: "yaml" or "json".
	Format string
}

// fieldDocs documents settings in the full template, keyed by dotted path.
//
//nolint:gochecknoglobals // Read-only documentation table.
var fieldDocs = map[string]string{
	"backend":                          "Primary text-generation-inference (TGI) backend.",
	"backend.base_url":                 "TGI server root; requests go to /generate and /health.",
	"backend.timeout":                  "Per-request timeout.",
	"fallback":                         "OpenAI-compatible fallback, used when TGI is unhealthy or fails.\nSet api_key (or DOCQA_FALLBACK_API_KEY) to enable it.",
	"generation":                       "Sampling parameters sent to every backend.",
	"generation.stop_sequences":        "Generation stops before these strings.",
	"review":                           "Edit validation.",
	"review.retries_on_malformed":      "Extra model calls after a malformed tool call.",
	"review.code_edit_threshold_ratio": "Allow edits inside fenced code when at least this fraction\nof the document is fenced code.",
	"review.verify_diff":               "Re-apply every diff to check it reproduces the edited document.",
	"review.max_doc_bytes":             "Reject larger documents (0 = unlimited).",
	"linter":                           "Built-in prose linter. Findings are sent to the model and\nsuppress model edits that restate them.",
	"server":                           "HTTP API (docqa serve).",
	"server.redirect_url":              "Target for / and unknown routes.",
	"server.read_header_timeout":       "Time allowed for a client to send request headers.",
	"log":                              "Logging: level debug|info|warn|error, format text|json.",
	"backups":                          "Backups written by docqa check --write.",
}

// GenerateTemplate creates a configuration file template.
func GenerateTemplate(opts TemplateOptions) ([]byte, error) {
	var (
		out []byte
		err error
	)
	if opts.Full {
		out, err = generateFullTemplate()
	} else {
		out = []byte(minimalTemplate)
	}
	if err != nil {
		return nil, err
	}

	if opts.Format == "json" {
		return templateToJSON(out)
	}
	return out, nil
}

const minimalTemplate = `# docqa configuration
# See: https://github.com/yaklabco/docqa

backend:
  base_url: http://tgi:80
  timeout: 60s

# fallback:
#   base_url: https://openrouter.ai/api/v1
#   model: openrouter/auto
#   api_key: ""   # prefer DOCQA_FALLBACK_API_KEY

review:
  retries_on_malformed: 1
  code_edit_threshold_ratio: 0.15

linter:
  enabled: true
  language: en-US

# server:
#   host: 0.0.0.0
#   port: 8000
#   cors_allow_origins: ["*"]
`

// generateFullTemplate encodes the defaults and attaches documentation comments.
func generateFullTemplate() ([]byte, error) {
	var doc yaml.Node
	if err := doc.Encode(NewConfig()); err != nil {
		return nil, fmt.Errorf("encode defaults: %w", err)
	}
	annotate(&doc, "")

	var buf bytes.Buffer
	buf.WriteString(DefaultTemplateHeader())
	buf.WriteString("\n#\n# Every setting below is shown with its default value.\n\n")

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(YAMLIndent())
	if err := encoder.Encode(&doc); err != nil {
		return nil, fmt.Errorf("encode template: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("close encoder: %w", err)
	}

	return buf.Bytes(), nil
}

// annotate walks mapping nodes and sets head comments from fieldDocs.
func annotate(node *yaml.Node, prefix string) {
	if node.Kind != yaml.MappingNode {
		return
	}
	for idx := 0; idx+1 < len(node.Content); idx += 2 {
		key, value := node.Content[idx], node.Content[idx+1]
		path := key.Value
		if prefix != "" {
			path = prefix + "." + key.Value
		}
		if doc, ok := fieldDocs[path]; ok {
			key.HeadComment = "# " + strings.ReplaceAll(doc, "\n", "\n# ")
		}
		annotate(value, path)
	}
}

// templateToJSON converts a YAML template to indented JSON, dropping comments.
func templateToJSON(yamlContent []byte) ([]byte, error) {
	var tree map[string]any
	if err := yaml.Unmarshal(yamlContent, &tree); err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	jsonBytes, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal JSON: %w", err)
	}
	return append(jsonBytes, '\n'), nil
}

// DefaultTemplateHeader returns the default header for generated configs.
func DefaultTemplateHeader() string {
	return `# docqa configuration
# See: https://github.com/yaklabco/docqa`
}
