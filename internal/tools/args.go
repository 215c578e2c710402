package tools

import (
	"fmt"

	"github.com/baalimago/miniagent/internal/models"
	"github.com/mitchellh/mapstructure"
)

// decodeInput into out. Models are sloppy with types, so "5" and 5.0 both
// decode into an int field.
func decodeInput(input models.Input, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(input)); err != nil {
		return fmt.Errorf("failed to decode input: %w", err)
	}
	return nil
}
