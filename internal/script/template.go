package script

import (
	"fmt"
	"regexp"
	"strings"
)

var variablePattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Render replaces {{variable}} placeholders in tmpl with values from vars.
// Every placeholder must have a value; unknown variables are an error.
func Render(tmpl string, vars map[string]string) (string, error) {
	missing := findMissingVars(tmpl, vars)
	if len(missing) > 0 {
		return "", fmt.Errorf("missing template variables: %s", strings.Join(missing, ", "))
	}

	result := variablePattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		return vars[match[2:len(match)-2]]
	})

	return result, nil
}

// Variables returns the distinct placeholder names in tmpl, in order of
// first appearance.
func Variables(tmpl string) []string {
	matches := variablePattern.FindAllStringSubmatch(tmpl, -1)
	seen := make(map[string]bool)
	var vars []string
	for _, m := range matches {
		if len(m) > 1 && !seen[m[1]] {
			vars = append(vars, m[1])
			seen[m[1]] = true
		}
	}
	return vars
}

func findMissingVars(tmpl string, vars map[string]string) []string {
	var missing []string
	for _, v := range Variables(tmpl) {
		if _, ok := vars[v]; !ok {
			missing = append(missing, v)
		}
	}
	return missing
}
