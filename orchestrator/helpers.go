package orchestrator

import (
	"encoding/json"

	"github.com/maastricht-university/patient-pulse/clients"
	"github.com/maastricht-university/patient-pulse/entities"
	"github.com/maastricht-university/patient-pulse/timeline"
)

const systemPrompt = "You are a clinical trial expert. Read this call transcript. " +
	"Identify all drugs, diseases, and symptoms mentioned. " +
	"Return a JSON that lists each one along with the transcript line numbers it occurs in. Example:\n" +
	"```json\n" +
	"{\n" +
	"  \"symptoms\": [\n" +
	"    {\"name\": \"...\", \"lines\": [1, 4]},\n" +
	"    {\"name\": \"...\", \"lines\": [8]}\n" +
	"  ],\n" +
	"  \"drugs\": [\n" +
	"    {\"name\": \"...\", \"lines\": [6]}\n" +
	"  ],\n" +
	"  \"diseases\": [\n" +
	"    {\"name\": \"...\", \"lines\": [9]}\n" +
	"  ]\n" +
	"}\n" +
	"```\n"

func chatRequest(model string, tl timeline.Timeline) clients.ChatReq {
	return clients.ChatReq{
		Model: model,
		Messages: []clients.ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: timeline.Numbered(tl)},
		},
		ResponseFormat: &clients.ResponseFormat{
			Type: "json_schema",
			JSONSchema: &clients.JSONSchemaFormat{
				Name:   "extraction",
				Strict: true,
				Schema: json.RawMessage(entities.SchemaJSON),
			},
		},
	}
}

// parseChat pulls the extraction out of a completion body.
func parseChat(raw []byte) (entities.Set, error) {
	resp := &clients.ChatResp{Raw: raw}
	content, err := resp.Content()
	if err != nil {
		return nil, &ExtractionParseError{Err: err, Raw: string(raw)}
	}
	set, err := entities.Parse([]byte(content))
	if err != nil {
		return nil, &ExtractionParseError{Err: err, Raw: string(raw)}
	}
	return set, nil
}
