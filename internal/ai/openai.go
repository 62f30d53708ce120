package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/ergomap/risk-map/internal/model"
)

// maxHazards bounds the hazard list the model may return.  The layout
// grid is designed for single digits to low tens of markers.
const maxHazards = 10

const diagramSystemPrompt = "You are an architectural illustrator. " +
	"Given a description of a workspace, respond with exactly one SVG document " +
	"that sketches its floor plan from above: walls, door openings, furniture " +
	"and equipment as simple labelled shapes. Use muted fill colors, no scripts, " +
	"no external references. Output only the SVG, nothing else."

const hazardSystemPrompt = "You are an occupational health and safety expert. " +
	"Given a description of a workspace, identify the concrete occupational " +
	"hazards present in it. Keep labels short (a few words) and descriptions " +
	"one or two sentences."

// OpenAIGenerator implements Generator against the OpenAI chat
// completion API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator builds a generator for the given API key and model
// name.  The key is required; the model falls back to gpt-4o-mini.
func NewOpenAIGenerator(apiKey, modelName string) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is empty")
	}
	if modelName == "" {
		modelName = "gpt-4o-mini"
		log.Printf("ai: OPENAI_MODEL not set, defaulting to %s", modelName)
	}
	return &OpenAIGenerator{client: openai.NewClient(apiKey), model: modelName}, nil
}

// GenerateDiagram requests a floor plan and extracts the single SVG
// fragment from the raw model output.  A response without a well-formed
// fragment is a hard ErrBadFormat; there is no retry at this layer.
func (g *OpenAIGenerator) GenerateDiagram(ctx context.Context, description string, width, height int) (*Diagram, error) {
	if width <= 0 {
		width = model.DefaultCanvasWidth
	}
	if height <= 0 {
		height = model.DefaultCanvasHeight
	}
	prompt := fmt.Sprintf("Workspace description:\n%s\n\nDraw the floor plan on a %dx%d canvas (set the SVG viewBox to \"0 0 %d %d\").",
		description, width, height, width, height)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: diagramSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("diagram completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: diagram response has no choices", ErrBadFormat)
	}
	svg, ok := extractSVGFragment(resp.Choices[0].Message.Content)
	if !ok {
		return nil, fmt.Errorf("%w: no <svg> fragment in diagram response", ErrBadFormat)
	}
	return &Diagram{SVG: svg, Width: width, Height: height}, nil
}

// hazardSchema constrains the hazard-identification response so it can
// be parsed directly as structured data with no free-text extraction.
// The enum lists are built from the model package so validation here and
// validation there never diverge.
func hazardSchema() jsonschema.Definition {
	categories := make([]string, len(model.Categories))
	for i, c := range model.Categories {
		categories[i] = string(c)
	}
	severities := make([]string, len(model.Severities))
	for i, s := range model.Severities {
		severities[i] = string(s)
	}
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"hazards": {
				Type: jsonschema.Array,
				Items: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"category":    {Type: jsonschema.String, Enum: categories},
						"severity":    {Type: jsonschema.String, Enum: severities},
						"label":       {Type: jsonschema.String},
						"description": {Type: jsonschema.String},
					},
					Required: []string{"category", "severity", "label", "description"},
				},
			},
		},
		Required: []string{"hazards"},
	}
}

// IdentifyHazards requests the hazard list with a JSON-schema response
// format and validates the parsed result.  Schema-invalid output is a
// hard ErrBadFormat, never silently coerced.
func (g *OpenAIGenerator) IdentifyHazards(ctx context.Context, description string) ([]Hazard, error) {
	schema := hazardSchema()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: hazardSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Workspace description:\n" + description},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "occupational_hazards",
				Schema: &schema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("hazard completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: hazard response has no choices", ErrBadFormat)
	}
	return parseHazards(resp.Choices[0].Message.Content)
}

// extractSVGFragment finds the single <svg ...>...</svg> fragment in raw
// model output.  Models habitually wrap answers in prose or code fences;
// only the fragment itself is kept.
func extractSVGFragment(raw string) (string, bool) {
	start := strings.Index(raw, "<svg")
	if start < 0 {
		return "", false
	}
	end := strings.Index(raw[start:], "</svg>")
	if end < 0 {
		return "", false
	}
	return raw[start : start+end+len("</svg>")], true
}

// parseHazards decodes and validates the structured hazard response.
func parseHazards(raw string) ([]Hazard, error) {
	var payload struct {
		Hazards []Hazard `json:"hazards"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	if n := len(payload.Hazards); n < 1 || n > maxHazards {
		return nil, fmt.Errorf("%w: hazard count %d outside [1,%d]", ErrBadFormat, n, maxHazards)
	}
	for i, h := range payload.Hazards {
		if !h.Category.Valid() {
			return nil, fmt.Errorf("%w: hazard %d has unknown category %q", ErrBadFormat, i, h.Category)
		}
		if !h.Severity.Valid() {
			return nil, fmt.Errorf("%w: hazard %d has unknown severity %q", ErrBadFormat, i, h.Severity)
		}
		if strings.TrimSpace(h.Label) == "" {
			return nil, fmt.Errorf("%w: hazard %d has empty label", ErrBadFormat, i)
		}
	}
	return payload.Hazards, nil
}
