package llm

import "strings"

// CleanJSONBlock strips markdown code fences that models sometimes wrap
// around JSON output despite being asked not to.
func CleanJSONBlock(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
