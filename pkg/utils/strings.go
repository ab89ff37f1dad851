package utils

import "strings"

// RemoveBlankStrings drops empty and whitespace-only entries, trimming the rest.
func RemoveBlankStrings(slice []string) []string {
	var result []string

	for _, s := range slice {
		if t := strings.TrimSpace(s); t != "" {
			result = append(result, t)
		}
	}

	return result
}
