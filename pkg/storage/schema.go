package storage

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// stateSchemaJSON describes the structural shape of a persisted state
// document across all supported versions. Validation catches truncated or
// hand-mangled files before unmarshalling guesses at them.
const stateSchemaJSON = `{
  "type": "object",
  "required": ["version", "tasks"],
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "owner": {
      "type": "object",
      "properties": {
        "id": {"type": "integer", "minimum": 0},
        "name": {"type": "string"}
      }
    },
    "tasks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["key"],
        "properties": {
          "key": {"type": "string"},
          "name": {"type": "string"},
          "category": {"type": "string"},
          "cadence": {"type": "string"},
          "mode": {"type": "string"},
          "enabled": {"type": "boolean"},
          "completed": {"type": "boolean"},
          "completed_at": {"type": "string"},
          "manual_override": {"type": "boolean"},
          "current_count": {"type": "integer"},
          "max_count": {"type": "integer"}
        }
      }
    },
    "resets": {
      "type": "object",
      "properties": {
        "daily": {"type": "string"},
        "grand_company": {"type": "string"},
        "weekly": {"type": "string"},
        "jumbo_cactpot": {"type": "string"}
      }
    },
    "last_save_time": {"type": "string"}
  }
}`

var stateSchemaLoader = gojsonschema.NewStringLoader(stateSchemaJSON)

// validateDocument checks the raw document against the state schema.
func validateDocument(data []byte) error {
	result, err := gojsonschema.Validate(stateSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("state document is not valid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var issues []string
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return fmt.Errorf("state document failed schema validation: %s", strings.Join(issues, "; "))
}
