package client

import (
	"encoding/json"
	"fmt"
	"strings"
)

func ParseCommand(input string) (string, []string, error) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return "", nil, fmt.Errorf("empty command")
	}
	return strings.ToUpper(parts[0]), parts[1:], nil
}

// parseValue reads a SET argument as JSON, falling back to a plain string so
// that `SET name bob` works without quoting.
func parseValue(args []string) any {
	raw := strings.Join(args, " ")
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
