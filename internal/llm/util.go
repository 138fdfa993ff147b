// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import (
	"encoding/json"
	"strings"
)

// maxCandidates bounds how many opening brackets ExtractJSON will try.
const maxCandidates = 64

// CleanJSONBlock removes markdown code block wrappers and surrounding prose from JSON responses.
// LLMs often wrap JSON in ```json ... ``` blocks even when instructed not to.
// If no JSON value can be located the first fenced block, or else the trimmed
// text, is returned.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if leading := extractLeading(text); leading != "" && json.Valid([]byte(leading)) {
		return leading
	}
	if extracted, err := ExtractJSON(text); err == nil {
		return extracted
	}
	if blocks := fencedBlocks(text); len(blocks) > 0 {
		return blocks[0]
	}
	return text
}

// ExtractJSON locates the first top-level JSON object or array in text.
// Markdown fences and prose before or after the value are ignored. Brackets
// inside JSON strings do not count towards nesting.
//
// The raw text is scanned first. Fenced blocks are only tried, in order,
// when that finds no valid value.
//
// It returns ErrNoJSON when text holds no opening bracket and ErrUnbalanced
// when no opening bracket has a matching, correctly nested closer.
func ExtractJSON(text string) (string, error) {
	extracted, err := scanJSON(text)
	if err == nil && json.Valid([]byte(extracted)) {
		return extracted, nil
	}

	for _, block := range fencedBlocks(text) {
		if candidate, blockErr := scanJSON(block); blockErr == nil && json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}
	return extracted, err
}

// scanJSON returns the first balanced bracket pair that is valid JSON.
// A balanced pair that is not JSON is skipped as a whole. An opener that
// never balances is skipped when it reads as prose ("[as requested"), and
// ends the search when it starts a JSON value, because everything after it
// is then nested inside a truncated document.
func scanJSON(text string) (string, error) {
	firstBalanced := ""

	for i, tried := 0, 0; i < len(text) && tried < maxCandidates; i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		tried++

		end, ok := matchBrackets(text, i)
		if !ok {
			if opensJSON(text, i) {
				break
			}
			continue
		}
		candidate := text[i : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
		if firstBalanced == "" {
			firstBalanced = candidate
		}
		i = end
	}

	if firstBalanced != "" {
		// balanced but not valid JSON; let the caller's decoder report why
		return firstBalanced, nil
	}
	if strings.ContainsAny(text, "{[") {
		return "", ErrUnbalanced
	}
	return "", ErrNoJSON
}

// opensJSON reports whether the bracket at i is followed by a JSON token.
// Text that ends right after the bracket counts as JSON.
func opensJSON(text string, i int) bool {
	rest := strings.TrimLeft(text[i+1:], " \t\r\n")
	if rest == "" {
		return true
	}

	c := rest[0]
	if text[i] == '{' {
		return c == '"' || c == '}'
	}
	switch {
	case c == '{', c == '[', c == '"', c == ']', c == '-', c >= '0' && c <= '9':
		return true
	default:
		return strings.HasPrefix(rest, "true") || strings.HasPrefix(rest, "false") || strings.HasPrefix(rest, "null")
	}
}

// matchBrackets scans from the opener at start and returns the index of the
// closer that balances it. ok is false on a mismatched closer or when the
// text ends first.
func matchBrackets(text string, start int) (end int, ok bool) {
	var stack []byte
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		ch := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != ch {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// fencedBlocks returns the bodies of ``` fenced blocks in order, without a
// leading language tag. An unterminated last fence still yields its body.
func fencedBlocks(text string) []string {
	parts := strings.Split(text, "```")
	var blocks []string
	for i := 1; i < len(parts); i += 2 {
		body := parts[i]

		// Skip potential language identifier on first line
		if idx := strings.Index(body, "\n"); idx >= 0 {
			tag := strings.TrimSpace(body[:idx])
			if len(tag) < 20 && !strings.Contains(tag, " ") && !strings.ContainsAny(tag, "{[") {
				body = body[idx+1:]
			}
		}
		blocks = append(blocks, strings.TrimSpace(body))
	}
	return blocks
}

// extractLeading returns the balanced object or array at the start of text,
// or "" if text does not start with one.
func extractLeading(text string) string {
	if len(text) == 0 || (text[0] != '{' && text[0] != '[') {
		return ""
	}
	end, ok := matchBrackets(text, 0)
	if !ok {
		return ""
	}
	return text[:end+1]
}
