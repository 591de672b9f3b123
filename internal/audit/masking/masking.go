package masking

import "strings"

const maskToken = "****"

// MaskSecret redacts a secret while keeping a short suffix for auditing.
// A lowercase prefix such as "acct_" is preserved.
func MaskSecret(value string) string {
	trimmed := strings.Join(strings.Fields(value), "")
	if trimmed == "" {
		return ""
	}
	if IsMasked(trimmed) {
		return trimmed
	}

	prefix, remainder := splitPrefix(trimmed)
	if len(remainder) <= 4 {
		return prefix + maskToken
	}
	return prefix + maskToken + remainder[len(remainder)-4:]
}

func IsMasked(value string) bool {
	return strings.Contains(value, maskToken)
}

// MaskFields returns a copy of input with the string values of keys masked.
func MaskFields(input map[string]any, keys ...string) map[string]any {
	if len(input) == 0 {
		return nil
	}
	sensitive := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		sensitive[key] = struct{}{}
	}

	out := make(map[string]any, len(input))
	for key, value := range input {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, ok := sensitive[key]; ok {
			if str, isString := value.(string); isString {
				value = MaskSecret(str)
			}
		}
		out[key] = value
	}
	return out
}

func splitPrefix(value string) (string, string) {
	lastUnderscore := strings.LastIndex(value, "_")
	if lastUnderscore == -1 || lastUnderscore == len(value)-1 {
		return "", value
	}
	return value[:lastUnderscore+1], value[lastUnderscore+1:]
}
