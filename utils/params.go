package utils

import (
	"fmt"
	"strings"

	"github.com/elliotchance/orderedmap/v2"
)

// OrderedMapToString formats the map as "[key=value key=value]" in insertion order.
func OrderedMapToString(data *orderedmap.OrderedMap[string, any]) string {
	if data == nil {
		return "[]"
	}

	var sb strings.Builder
	sb.WriteByte('[')
	for el := data.Front(); el != nil; el = el.Next() {
		if sb.Len() > 1 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s=%v", el.Key, el.Value)
	}
	sb.WriteByte(']')
	return sb.String()
}

// Params builds an ordered map out of alternating keys and values. A trailing key without a value is
// ignored.
func Params(kv ...any) *orderedmap.OrderedMap[string, any] {
	m := orderedmap.NewOrderedMap[string, any]()
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		m.Set(key, kv[i+1])
	}
	return m
}

// PrettyParams converts the given parameters to a readable string.
func PrettyParams(kv ...any) string {
	return OrderedMapToString(Params(kv...))
}
