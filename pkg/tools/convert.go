package tools

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/genai"
)

// OpenAISpec returns the tool in the OpenAI Realtime tool format. Realtime
// tools are flat objects, not nested under a "function" key.
func (t *Tool) OpenAISpec() map[string]any {
	return map[string]any{
		"type":        "function",
		"name":        t.Name,
		"description": t.Description,
		"parameters":  t.Parameters,
	}
}

// GeminiDeclaration returns the tool as a Gemini function declaration.
func (t *Tool) GeminiDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  genaiSchema(t.Parameters),
	}
}

// genaiSchema converts a JSON schema to the genai schema subset.
func genaiSchema(schema *jsonschema.Schema) *genai.Schema {
	if schema == nil {
		return nil
	}

	enums := make([]string, 0, len(schema.Enum))
	for _, v := range schema.Enum {
		enums = append(enums, fmt.Sprintf("%v", v))
	}

	gs := genai.Schema{
		Format:      schema.Format,
		Description: schema.Description,
		Enum:        enums,
		Items:       genaiSchema(schema.Items),
		Required:    schema.Required,
	}

	if n := len(schema.Properties); n > 0 {
		gs.Properties = make(map[string]*genai.Schema, n)
		for k, prop := range schema.Properties {
			gs.Properties[k] = genaiSchema(prop)
		}
	}

	switch schema.Type {
	case "object":
		gs.Type = genai.TypeObject
	case "array":
		gs.Type = genai.TypeArray
	case "string":
		gs.Type = genai.TypeString
	case "number":
		gs.Type = genai.TypeNumber
	case "integer":
		gs.Type = genai.TypeInteger
	case "boolean":
		gs.Type = genai.TypeBoolean
	}
	return &gs
}
