package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/maastricht-university/patient-pulse/timeline"
)

// SchemaJSON is the structured-output schema sent with the extraction request
// and used to validate its response.
const SchemaJSON = `{
  "type": "object",
  "properties": {
    "symptoms": {"$ref": "#/$defs/items"},
    "drugs": {"$ref": "#/$defs/items"},
    "diseases": {"$ref": "#/$defs/items"}
  },
  "required": ["symptoms", "drugs", "diseases"],
  "additionalProperties": false,
  "$defs": {
    "items": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "lines": {"type": "array", "items": {"type": "integer"}}
        },
        "required": ["name", "lines"],
        "additionalProperties": false
      }
    }
  }
}`

var schema = jsonschema.MustCompileString("extraction.json", SchemaJSON)

// wireEntity keeps line numbers as json.Number so that integral decimals
// such as 2.0, which the schema accepts as integers, still decode.
type wireEntity struct {
	Name  string        `json:"name"`
	Lines []json.Number `json:"lines"`
}

type wire struct {
	Symptoms []wireEntity `json:"symptoms"`
	Drugs    []wireEntity `json:"drugs"`
	Diseases []wireEntity `json:"diseases"`
}

// Parse decodes and validates an extraction response body. Markdown code
// fences around the JSON are tolerated. Line numbers below 1 are dropped,
// entities left without lines are skipped, and entities of one kind that
// share a name are merged so the name identifies the entity.
func Parse(content []byte) (Set, error) {
	content = stripFences(content)

	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("extraction json: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("extraction schema: %w", err)
	}

	var w wire
	dec = json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("extraction decode: %w", err)
	}
	set := Set{}
	for k, list := range map[Kind][]wireEntity{Symptoms: w.Symptoms, Drugs: w.Drugs, Diseases: w.Diseases} {
		ents, err := clean(list)
		if err != nil {
			return nil, err
		}
		set[k] = ents
	}
	return set, nil
}

func clean(in []wireEntity) ([]Entity, error) {
	out := make([]Entity, 0, len(in))
	byName := map[string]int{}
	for _, e := range in {
		name := strings.TrimSpace(e.Name)
		lines := []timeline.LineNumber{}
		if i, ok := byName[name]; ok {
			lines = out[i].Lines
		}
		for _, raw := range e.Lines {
			n, err := lineNumber(raw)
			if err != nil {
				return nil, err
			}
			if n >= 1 && !slices.Contains(lines, n) {
				lines = append(lines, n)
			}
		}
		if i, ok := byName[name]; ok {
			out[i].Lines = lines
			continue
		}
		if len(lines) == 0 {
			continue
		}
		byName[name] = len(out)
		out = append(out, Entity{Name: name, Lines: lines})
	}
	return out, nil
}

func lineNumber(raw json.Number) (timeline.LineNumber, error) {
	if n, err := raw.Int64(); err == nil {
		return timeline.LineNumber(n), nil
	}
	f, err := raw.Float64()
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("extraction decode: line %q is not an integer", raw)
	}
	return timeline.LineNumber(f), nil
}

func stripFences(b []byte) []byte {
	s := strings.TrimSpace(string(b))
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return []byte(strings.TrimSpace(s))
}
