package realtime

import (
	"encoding/json"
	"strings"
)

// firstPayload coerces the first socket.io event argument into a map.
// Clients may send objects, JSON strings or raw bytes.
func firstPayload(args ...any) map[string]interface{} {
	if len(args) == 0 || args[0] == nil {
		return map[string]interface{}{}
	}

	switch raw := args[0].(type) {
	case map[string]interface{}:
		return raw
	case string:
		out := map[string]interface{}{}
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return map[string]interface{}{}
		}
		return out
	case []byte:
		out := map[string]interface{}{}
		if err := json.Unmarshal(raw, &out); err != nil {
			return map[string]interface{}{}
		}
		return out
	default:
		data, err := json.Marshal(raw)
		if err != nil {
			return map[string]interface{}{}
		}
		out := map[string]interface{}{}
		if err := json.Unmarshal(data, &out); err != nil {
			return map[string]interface{}{}
		}
		return out
	}
}

func strField(payload map[string]interface{}, key string) string {
	switch v := payload[key].(type) {
	case string:
		return strings.TrimSpace(v)
	default:
		return ""
	}
}

func boolField(payload map[string]interface{}, key string) (bool, bool) {
	v, ok := payload[key].(bool)
	return v, ok
}

func intField(payload map[string]interface{}, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	default:
		return 0
	}
}

func mapField(payload map[string]interface{}, key string) map[string]interface{} {
	if m, ok := payload[key].(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}
