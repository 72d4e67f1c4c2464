package upstream

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ranger-finance/ranger-agent-kit/internal/schema"
)

// Decode validates raw against the output contract of endpoint on api and
// decodes it into T. Malformed JSON is a ProtocolError; a payload that breaks the
// contract is a ShapeError. A nil validator skips the contract check.
func Decode[T any](raw json.RawMessage, v *schema.Validator, api API, endpoint string) (T, error) {
	var out T

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return out, &ProtocolError{API: api, Cause: fmt.Errorf("decode %s response: %w", endpoint, err)}
	}

	if v != nil {
		if err := v.Validate(schema.DropNulls(value)); err != nil {
			var ve *schema.ValidationError
			if errors.As(err, &ve) {
				return out, &ShapeError{Endpoint: endpoint, Reason: ve.Error()}
			}
			return out, &ProtocolError{API: api, Cause: fmt.Errorf("validate %s response: %w", endpoint, err)}
		}
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &ShapeError{Endpoint: endpoint, Reason: err.Error()}
	}
	return out, nil
}
