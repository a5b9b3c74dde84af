package upstream

import (
	"encoding/json"
	"fmt"

	"anybridge/pkg/apierr"
)

// envelopeKeys are the wrapper keys the upstream has used across API
// versions, in priority order. "data" is the current paginated envelope;
// the resource-named keys appear in create/get responses.
var envelopeKeys = []string{
	"data",
	"spaces", "objects", "members", "types", "templates", "tags", "views",
	"space", "object", "member", "type", "template", "tag",
}

// Normalize absorbs the envelope drift across upstream API versions and
// returns the payload as a flat list of mappings, so callers never
// branch on the wrapping shape.
//
// Rules, in priority order:
//   - nil, empty mapping or empty string fails with ErrEmptyResponse
//     (an empty list is a valid empty result, not an error)
//   - a string payload is re-parsed as JSON; parse failure fails with
//     ErrInvalidJSONString
//   - a mapping with an "error" value fails with the upstream's message
//   - a mapping with a recognized envelope key unwraps that key, and a
//     non-list payload becomes a single-element list
//   - a mapping with no envelope key is itself the single result
//   - a list passes through element-wise; non-mapping elements coerce
//     to {"id": <string form>}
//   - any other scalar becomes {"value": <string form>}
func Normalize(decoded any) ([]map[string]any, error) {
	switch v := decoded.(type) {
	case nil:
		return nil, apierr.ErrEmptyResponse
	case string:
		if v == "" {
			return nil, apierr.ErrEmptyResponse
		}
		var parsed any
		if err := json.Unmarshal([]byte(v), &parsed); err != nil {
			return nil, apierr.ErrInvalidJSONString
		}
		return Normalize(parsed)
	case map[string]any:
		if len(v) == 0 {
			return nil, apierr.ErrEmptyResponse
		}
		if errVal, ok := v["error"]; ok && errVal != nil {
			return nil, upstreamErrorFromValue(errVal)
		}
		for _, key := range envelopeKeys {
			payload, ok := v[key]
			if !ok {
				continue
			}
			if list, isList := payload.([]any); isList {
				return coerceList(list), nil
			}
			if m, isMap := payload.(map[string]any); isMap {
				return []map[string]any{m}, nil
			}
			// Envelope key holding a scalar; fall through to treating the
			// whole mapping as the result.
			break
		}
		return []map[string]any{v}, nil
	case []any:
		return coerceList(v), nil
	default:
		return []map[string]any{{"value": fmt.Sprintf("%v", decoded)}}, nil
	}
}

// NormalizeOne is Normalize for operations expecting exactly one result.
// An empty normalized list fails with ErrEmptyResponse.
func NormalizeOne(decoded any) (map[string]any, error) {
	items, err := Normalize(decoded)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apierr.ErrEmptyResponse
	}
	return items[0], nil
}

func coerceList(list []any) []map[string]any {
	result := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			result = append(result, m)
			continue
		}
		result = append(result, map[string]any{"id": fmt.Sprintf("%v", item)})
	}
	return result
}

func upstreamErrorFromValue(errVal any) error {
	switch v := errVal.(type) {
	case string:
		return apierr.NewUpstreamError(0, v)
	case map[string]any:
		if msg, ok := v["message"].(string); ok {
			return apierr.NewUpstreamError(0, msg)
		}
	}
	return apierr.NewUpstreamError(0, fmt.Sprintf("%v", errVal))
}
