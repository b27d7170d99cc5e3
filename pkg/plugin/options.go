package plugin

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"firestige.xyz/ngtrace/internal/core"
)

// DecodeOptions decodes a plugin option map into out, a pointer to a struct
// with mapstructure tags. Durations and comma-separated lists may be given
// as strings. Unknown keys are rejected. Errors wrap
// core.ErrConfigInvalid.
func DecodeOptions(name string, options map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", core.ErrConfigInvalid, name, err)
	}
	if err := dec.Decode(options); err != nil {
		return fmt.Errorf("%w: %s: %v", core.ErrConfigInvalid, name, err)
	}
	return nil
}
