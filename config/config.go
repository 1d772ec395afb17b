package config // CLI configuration file

import (
	"fmt"
	"strings"
)

// ParseVars turns "key=value" tokens into a lookup table for template
// placeholders. Every token must carry an '='.
func ParseVars(tokens []string) (map[string]string, error) {
	vars := make(map[string]string, len(tokens))
	for _, token := range tokens {
		if !strings.ContainsRune(token, '=') {
			return nil, fmt.Errorf("variables must be in the format key=value, got %q", token)
		}
		kv := splitOption(token)
		if kv[0] == "" {
			return nil, fmt.Errorf("variable %q has an empty name", token)
		}
		vars[kv[0]] = kv[1]
	}
	return vars, nil
}

// Splits on the first '='
func splitOption(arg string) [2]string {
	var kv [2]string
	for i, ch := range arg {
		if ch == '=' {
			kv[0] = arg[:i]
			kv[1] = arg[i+1:]
			return kv
		}
	}
	kv[0] = arg
	kv[1] = ""
	return kv
}
