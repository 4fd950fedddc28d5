// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// Find returns the activity with the given id, or nil.
func (r *ActivityRegistry) Find(id string) *Activity {
	for i := range r.Activities {
		if r.Activities[i].ID == id {
			return &r.Activities[i]
		}
	}
	return nil
}

// Validate checks the registry for structural problems: duplicate ids or
// task types, and input/output schemas that are not valid JSON Schema.
func (r *ActivityRegistry) Validate() error {
	seenIDs := make(map[string]bool)
	seenTaskTypes := make(map[string]bool)

	for _, a := range r.Activities {
		if a.ID == "" {
			return fmt.Errorf("activity with empty id")
		}
		if seenIDs[a.ID] {
			return fmt.Errorf("duplicate activity id: %s", a.ID)
		}
		seenIDs[a.ID] = true

		if a.TaskType == "" {
			return fmt.Errorf("activity %s has no task type", a.ID)
		}
		if seenTaskTypes[a.TaskType] {
			return fmt.Errorf("duplicate task type: %s", a.TaskType)
		}
		seenTaskTypes[a.TaskType] = true

		for name, schema := range map[string]map[string]interface{}{
			"inputSchema":  a.InputSchema,
			"outputSchema": a.OutputSchema,
		} {
			if len(schema) == 0 {
				continue
			}
			if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema)); err != nil {
				return fmt.Errorf("activity %s has invalid %s: %w", a.ID, name, err)
			}
		}
	}
	return nil
}

// ValidateInput checks a job variable payload against the activity's input
// schema. An activity without a schema accepts anything.
func (a *Activity) ValidateInput(input map[string]interface{}) error {
	if len(a.InputSchema) == 0 {
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(a.InputSchema),
		gojsonschema.NewGoLoader(input),
	)
	if err != nil {
		return fmt.Errorf("validate input for %s: %w", a.ID, err)
	}
	if !result.Valid() {
		errs := result.Errors()
		if len(errs) > 0 {
			return fmt.Errorf("input for %s invalid: %s", a.ID, errs[0].String())
		}
		return fmt.Errorf("input for %s invalid", a.ID)
	}
	return nil
}
