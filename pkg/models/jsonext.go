package models

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

// knownKeyCache memoizes the json field names of the typed regions.
var knownKeyCache sync.Map // reflect.Type → map[string]struct{}

// knownKeys returns the json names of the exported, serialized fields of t.
func knownKeys(t reflect.Type) map[string]struct{} {
	if cached, ok := knownKeyCache.Load(t); ok {
		return cached.(map[string]struct{})
	}
	keys := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}
		keys[name] = struct{}{}
	}
	knownKeyCache.Store(t, keys)
	return keys
}

// decodeWithExtra decodes data into v (a pointer to a struct) and returns
// every top-level key that v does not hold. A declared key also stays in
// the extras when its value does not fit the field type (Plotly accepts
// "hovermode": false or "tickangle": "auto") or when re-encoding the field
// would omit it (null, "" and []), so no source key is lost.
func decodeWithExtra(data []byte, v any) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	t := reflect.TypeOf(v).Elem()
	known := knownKeys(t)

	typed := make(map[string]json.RawMessage, len(all))
	for k, raw := range all {
		if _, ok := known[k]; !ok || omitted(raw) || !fits(t, k, raw) {
			continue
		}
		typed[k] = raw
		delete(all, k)
	}
	if len(typed) > 0 {
		obj, err := json.Marshal(typed)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(obj, v); err != nil {
			return nil, err
		}
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// fits reports whether raw decodes into the field of t named key.
func fits(t reflect.Type, key string, raw json.RawMessage) bool {
	obj, err := json.Marshal(map[string]json.RawMessage{key: raw})
	if err != nil {
		return false
	}
	return json.Unmarshal(obj, reflect.New(t).Interface()) == nil
}

// omitted reports whether raw is a value an omitempty field drops on
// encode.
func omitted(raw json.RawMessage) bool {
	switch s := string(bytes.TrimSpace(raw)); {
	case s == "null", s == `""`:
		return true
	case strings.HasPrefix(s, "["):
		var items []json.RawMessage
		return json.Unmarshal(raw, &items) == nil && len(items) == 0
	}
	return false
}

// encodeWithExtra marshals v and folds extra keys in. An extra key holds
// the source's verbatim value and wins over a declared field of the same
// name.
func encodeWithExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		all[k] = raw
	}
	return json.Marshal(all)
}

// MergeExtra returns a new map holding every key of src plus the keys of
// def that src lacks. Raw values are treated as immutable and shared.
func MergeExtra(src, def map[string]json.RawMessage) map[string]json.RawMessage {
	if len(src) == 0 && len(def) == 0 {
		return nil
	}
	out := make(map[string]json.RawMessage, len(src)+len(def))
	for k, v := range def {
		out[k] = v
	}
	for k, v := range src {
		out[k] = v
	}
	return out
}
