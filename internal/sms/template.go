package sms

import "strings"

// Render substitutes {{name}} placeholders in a template body. Unknown
// placeholders are left in place so a bad send is visible rather than
// silently blank.
func Render(text string, vars map[string]string) string {
	for k, v := range vars {
		text = strings.ReplaceAll(text, "{{"+k+"}}", v)
	}
	return text
}
