package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// parseFields turns key=value arguments into a request body. Values that parse
// as finite numbers are sent as numbers; everything else, NaN and Inf
// included, is sent as a string for the server to judge.
func parseFields(args []string) (map[string]any, error) {
	fields := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q, want key=value", arg)
		}
		if _, dup := fields[key]; dup {
			return nil, fmt.Errorf("field %q given twice", key)
		}
		if n, err := strconv.ParseFloat(value, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
			fields[key] = n
		} else {
			fields[key] = value
		}
	}
	return fields, nil
}
