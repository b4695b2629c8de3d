// internal/service/template_service.go
package service

import (
	"regexp"
	"strings"
)

const defaultTemplateKey = "default"

var placeholderPattern = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// RenderTemplate substitutes {{key}} (spaces inside the braces allowed) with
// data[key] in a single pass. Unknown placeholders render as empty.
func RenderTemplate(template string, data map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		return data[key]
	})
}

// SelectTemplate picks the template for language, falling back to "default".
// Language keys match case-insensitively.
func SelectTemplate(templates map[string]string, language string) (string, bool) {
	lang := strings.ToLower(strings.TrimSpace(language))
	for k, t := range templates {
		if k != defaultTemplateKey && strings.ToLower(k) == lang && strings.TrimSpace(t) != "" {
			return t, true
		}
	}
	t, ok := templates[defaultTemplateKey]
	if !ok || strings.TrimSpace(t) == "" {
		return "", false
	}
	return t, true
}
