package merge

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/tailscale/hujson"
)

// identityKeys are the object fields that identify an entry inside a list.
var identityKeys = []string{"name", "id", "module"}

// MergePermissionsJSON structurally merges a permissions document. Both
// inputs may contain comments and trailing commas. Objects merge key by key
// with the live value winning on conflicts; lists keep the live entries in
// order and append new entries whose identity is not present yet.
func MergePermissionsJSON(live, staged []byte) ([]byte, error) {
	liveValue, err := decodeJSONC(live)
	if err != nil {
		return nil, fmt.Errorf("parse current document: %w", err)
	}

	stagedValue, err := decodeJSONC(staged)
	if err != nil {
		return nil, fmt.Errorf("parse new document: %w", err)
	}

	merged, err := mergeValues(liveValue, stagedValue)
	if err != nil {
		return nil, err
	}

	out, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode merged document: %w", err)
	}

	return append(out, '\n'), nil
}

// decodeJSONC strips comments and trailing commas, then decodes keeping numbers
// verbatim. Standardize already rejects trailing data after the top-level value.
func decodeJSONC(data []byte) (any, error) {
	standard, err := hujson.Standardize(data)
	if err != nil {
		return nil, err
	}

	decoder := json.NewDecoder(bytes.NewReader(standard))
	decoder.UseNumber()

	var value any
	if err = decoder.Decode(&value); err != nil {
		return nil, err
	}

	return value, nil
}

// mergeValues merges staged defaults into the live value.
func mergeValues(live, staged any) (any, error) {
	switch liveTyped := live.(type) {
	case map[string]any:
		stagedTyped, ok := staged.(map[string]any)
		if !ok {
			return live, nil
		}

		return mergeObjects(liveTyped, stagedTyped)
	case []any:
		stagedTyped, ok := staged.([]any)
		if !ok {
			return live, nil
		}

		return mergeLists(liveTyped, stagedTyped)
	default:
		return live, nil
	}
}

func mergeObjects(live, staged map[string]any) (map[string]any, error) {
	merged := make(map[string]any, len(live)+len(staged))
	for key, value := range live {
		merged[key] = value
	}

	for key, stagedValue := range staged {
		liveValue, ok := live[key]
		if !ok {
			merged[key] = stagedValue
			continue
		}

		value, err := mergeValues(liveValue, stagedValue)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}

		merged[key] = value
	}

	return merged, nil
}

func mergeLists(live, staged []any) ([]any, error) {
	merged := make([]any, 0, len(live)+len(staged))
	known := make(map[string]struct{}, len(live)+len(staged))

	for _, entry := range live {
		id, err := entryIdentity(entry)
		if err != nil {
			return nil, err
		}

		known[id] = struct{}{}
		merged = append(merged, entry)
	}

	for _, entry := range staged {
		id, err := entryIdentity(entry)
		if err != nil {
			return nil, err
		}

		if _, ok := known[id]; ok {
			continue
		}

		known[id] = struct{}{}
		merged = append(merged, entry)
	}

	return merged, nil
}

// entryIdentity returns the key a list entry is matched by: the string itself,
// the first identifying field of an object, or its canonical JSON form.
func entryIdentity(entry any) (string, error) {
	switch typed := entry.(type) {
	case string:
		return "string:" + typed, nil
	case map[string]any:
		for _, key := range identityKeys {
			if value, ok := typed[key].(string); ok {
				return "field:" + key + "=" + value, nil
			}
		}
	}

	// Map keys are sorted on encode, so the output is canonical.
	canonical, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("encode list entry: %w", err)
	}

	return "json:" + string(canonical), nil
}
