package prompt

import (
	"slices"
	"unicode/utf8"
)

// LintResult describes placeholder usage in a template.
type LintResult struct {
	Valid       bool
	Unknown     []string // names outside Variables, in first-seen order
	Unused      []string // vocabulary names the template never references
	ActualChars int
	MaxChars    int
	TooLarge    bool
}

// Lint checks a template before it is saved. Unlike FromTemplate it does not
// stop at the first unknown name. maxChars <= 0 disables the size check.
func Lint(tmpl string, maxChars int) *LintResult {
	result := &LintResult{
		Valid:       true,
		ActualChars: utf8.RuneCountInString(tmpl),
		MaxChars:    maxChars,
	}

	if maxChars > 0 && result.ActualChars > maxChars {
		result.TooLarge = true
		result.Valid = false
	}

	seen := map[string]bool{}
	_ = scan(tmpl, func(string) {}, func(name string) error {
		if seen[name] {
			return nil
		}
		seen[name] = true
		if !slices.Contains(Variables, name) {
			result.Unknown = append(result.Unknown, name)
		}
		return nil
	})
	if len(result.Unknown) > 0 {
		result.Valid = false
	}

	for _, v := range Variables {
		if !seen[v] {
			result.Unused = append(result.Unused, v)
		}
	}

	return result
}
