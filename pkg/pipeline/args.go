package pipeline

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecodeArgs maps a stage's raw construction arguments onto a typed config
// struct. Unknown keys are rejected so a typo in a pipeline file fails at
// construction rather than silently defaulting.
func DecodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
		TagName:     "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("failed to build args decoder: %w", err)
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("failed to decode stage args: %w", err)
	}
	return nil
}
