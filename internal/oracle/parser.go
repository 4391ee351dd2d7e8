// File: internal/oracle/parser.go
package oracle

import (
	"fmt"
	"regexp"
	"strings"

	json "github.com/json-iterator/go"
)

var (
	// Regex definitions use \x60 for backticks because Go raw strings cannot contain backticks.

	// jsonObjectRegex extracts a JSON object when the model wraps it in markdown.
	jsonObjectRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*({.*})\\s*\x60\x60\x60")
	// braceRegex grabs the outermost object from otherwise noisy output.
	braceRegex = regexp.MustCompile(`(?s)\{.*\}`)
)

// parseJSONResponse parses a model response into a target type, tolerating
// the usual formatting noise: markdown fences, prose before or after the
// object, stray whitespace.
func parseJSONResponse[T any](response string) (*T, error) {
	response = strings.TrimSpace(response)
	candidate := response

	if m := jsonObjectRegex.FindStringSubmatch(response); len(m) == 2 {
		candidate = m[1]
	} else if !strings.HasPrefix(response, "{") {
		if m := braceRegex.FindString(response); m != "" {
			candidate = m
		}
	}

	var out T
	if err := json.Unmarshal([]byte(candidate), &out); err != nil {
		return nil, fmt.Errorf("failed to parse oracle response as JSON: %w", err)
	}
	return &out, nil
}
