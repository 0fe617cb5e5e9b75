package steps

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var errNoJSON = errors.New("response contains no JSON object")

// decodeModelJSON extracts the first JSON object from a model response and
// decodes it into out. Models routinely wrap their JSON in prose or code
// fences, so everything outside the outermost braces is discarded. Decoding
// is weakly typed because models also emit numbers as strings and vice
// versa.
func decodeModelJSON(raw string, out any) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return errNoJSON
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(payload); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
