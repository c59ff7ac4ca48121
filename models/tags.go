// ABOUTME: Tag normalization helpers
// ABOUTME: Deduplicates tags case-insensitively while keeping the first spelling
package models

import "strings"

// NormalizeTags trims tags, drops empties, and removes case-insensitive duplicates.
// The first spelling of a tag wins. Returns nil for an empty result.
func NormalizeTags(tags []string) []string {
	var out []string
	seen := make(map[string]bool, len(tags))

	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}

	return out
}

// ParseTags splits a comma-separated tag list and normalizes it.
func ParseTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return NormalizeTags(strings.Split(s, ","))
}
