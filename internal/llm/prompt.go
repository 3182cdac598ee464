package llm

import (
	"fmt"
	"strings"
)

// ResponseSchema describes the JSON object a prompt asks the model to return.
type ResponseSchema struct {
	Name        string
	Description string
	Fields      []SchemaField
}

// SchemaField is one top-level field of a ResponseSchema.
type SchemaField struct {
	Name        string
	Type        string // "string", "number", "array"
	Description string
	Required    bool
}

// BuildPrompt assembles a prompt from task instructions, the expected response shape and
// the input sections. Sections are rendered in the order given.
func BuildPrompt(schema ResponseSchema, instructions string, sections []PromptSection) string {
	var sb strings.Builder

	sb.WriteString(strings.TrimSpace(instructions))
	sb.WriteString("\n\n")

	for _, s := range sections {
		fmt.Fprintf(&sb, "%s:\n%s\n\n", s.Title, strings.TrimSpace(s.Body))
	}

	fmt.Fprintf(&sb, "Respond with a single JSON object (%s", schema.Name)
	if schema.Description != "" {
		fmt.Fprintf(&sb, ": %s", schema.Description)
	}
	sb.WriteString(") with these fields:\n")
	for _, field := range schema.Fields {
		req := ""
		if field.Required {
			req = " (required)"
		}
		fmt.Fprintf(&sb, "- %s (%s)%s: %s\n", field.Name, field.Type, req, field.Description)
	}
	sb.WriteString("\nReturn only the JSON object, no markdown fences and no commentary.")

	return sb.String()
}

// PromptSection is a titled block of input text.
type PromptSection struct {
	Title string
	Body  string
}

// Truncate shortens s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
