package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// enumName returns names[v] or a diagnostic placeholder for out-of-range values.
func enumName[T ~int](names []string, v T) string {
	if int(v) < 0 || int(v) >= len(names) {
		return fmt.Sprintf("%T(%d)", v, int(v))
	}
	return names[v]
}

// parseEnum matches s case-insensitively against names.
func parseEnum[T ~int](kind string, names []string, s string) (T, error) {
	s = strings.TrimSpace(s)
	for i, n := range names {
		if strings.EqualFold(n, s) {
			return T(i), nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, s)
}

func unmarshalEnum[T ~int](kind string, names []string, data []byte, dst *T) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%s must be a string: %w", kind, err)
	}
	v, err := parseEnum[T](kind, names, s)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}
