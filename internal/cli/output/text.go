// Package output provides output formatting for quiescectl.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"
)

// TextFormatter formats data as aligned key/value lines.
type TextFormatter struct{}

// Format renders structs and maps as one "key: value" line per field.
// Struct field names honor json tags. Other types fall back to JSON.
func (f *TextFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}

	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		return writePairs(w, structPairs(v))
	case reflect.Map:
		return writePairs(w, mapPairs(v))
	default:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	}
}

type pair struct {
	key   string
	value any
}

func structPairs(v reflect.Value) []pair {
	t := v.Type()
	pairs := make([]pair, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name := field.Name
		if tag := field.Tag.Get("json"); tag != "" && tag != "-" {
			name = strings.Split(tag, ",")[0]
		}
		pairs = append(pairs, pair{key: name, value: v.Field(i).Interface()})
	}
	return pairs
}

func mapPairs(v reflect.Value) []pair {
	keys := make([]string, 0, v.Len())
	byKey := make(map[string]any, v.Len())
	for _, k := range v.MapKeys() {
		key := fmt.Sprint(k.Interface())
		keys = append(keys, key)
		byKey[key] = v.MapIndex(k).Interface()
	}
	sort.Strings(keys)

	pairs := make([]pair, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, pair{key: key, value: byKey[key]})
	}
	return pairs
}

func writePairs(w io.Writer, pairs []pair) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range pairs {
		fmt.Fprintf(tw, "%s:\t%v\n", p.key, p.value)
	}
	return tw.Flush()
}
