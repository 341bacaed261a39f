package llm

import (
	"fmt"
	"regexp"
	"strings"
)

// fenceRegex matches a reply wrapped in a single Markdown code fence.
var fenceRegex = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n(.*?)\\n?```$")

// PostProcess trims the reply and unwraps a surrounding code fence.
// Models often wrap HTML in ```html ... ``` despite instructions.
func PostProcess(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if m := fenceRegex.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}
	if text == "" {
		return "", fmt.Errorf("model returned empty content")
	}
	return text, nil
}
