// Package expr evaluates the small boolean filter language applied to
// event header fields: comparisons, contains, and/or/not, parentheses.
// Evaluation failures are ordinary errors for the caller to swallow; a
// bad expression must never take the index down.
package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Eval evaluates expression against a field map and returns whether it
// matches. A bare field reference is truthy when the field is present and
// not false/empty.
func Eval(expression string, fields map[string]any) (bool, error) {
	p := &parser{tokens: tokenize(expression)}
	v, err := p.parseOr(fields)
	if err != nil {
		return false, err
	}
	if !p.atEnd() {
		return false, fmt.Errorf("unexpected token %q", p.peek())
	}
	return v, nil
}

type tokenKind int

const (
	tokWord tokenKind = iota // identifier or keyword
	tokString
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
}

func tokenize(s string) []token {
	var out []token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
		case c == '(':
			out = append(out, token{tokLParen, "("})
			i++
		case c == ')':
			out = append(out, token{tokRParen, ")"})
			i++
		case c == '\'' || c == '"':
			quote := c
			j := i + 1
			for j < len(s) && s[j] != quote {
				j++
			}
			if j >= len(s) {
				// Unterminated string; surface it as a word so parsing fails.
				out = append(out, token{tokWord, s[i:]})
				i = len(s)
				break
			}
			out = append(out, token{tokString, s[i+1 : j]})
			i = j + 1
		case strings.ContainsRune("=!<>", rune(c)):
			j := i + 1
			if j < len(s) && s[j] == '=' {
				j++
			}
			out = append(out, token{tokOp, s[i:j]})
			i = j
		default:
			j := i
			for j < len(s) && !strings.ContainsRune(" \t\n()='\"<>!", rune(s[j])) {
				j++
			}
			out = append(out, token{tokWord, s[i:j]})
			i = j
		}
	}
	return out
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) atEnd() bool { return p.pos >= len(p.tokens) }

func (p *parser) peek() string {
	if p.atEnd() {
		return ""
	}
	return p.tokens[p.pos].text
}

func (p *parser) match(kind tokenKind, text string) bool {
	if p.atEnd() {
		return false
	}
	t := p.tokens[p.pos]
	if t.kind != kind {
		return false
	}
	if text != "" && !strings.EqualFold(t.text, text) {
		return false
	}
	p.pos++
	return true
}

func (p *parser) parseOr(fields map[string]any) (bool, error) {
	left, err := p.parseAnd(fields)
	if err != nil {
		return false, err
	}
	for p.match(tokWord, "or") {
		right, err := p.parseAnd(fields)
		if err != nil {
			return false, err
		}
		left = left || right
	}
	return left, nil
}

func (p *parser) parseAnd(fields map[string]any) (bool, error) {
	left, err := p.parseUnary(fields)
	if err != nil {
		return false, err
	}
	for p.match(tokWord, "and") {
		right, err := p.parseUnary(fields)
		if err != nil {
			return false, err
		}
		left = left && right
	}
	return left, nil
}

func (p *parser) parseUnary(fields map[string]any) (bool, error) {
	if p.match(tokWord, "not") {
		v, err := p.parseUnary(fields)
		if err != nil {
			return false, err
		}
		return !v, nil
	}
	if p.match(tokLParen, "") {
		v, err := p.parseOr(fields)
		if err != nil {
			return false, err
		}
		if !p.match(tokRParen, "") {
			return false, fmt.Errorf("missing closing parenthesis")
		}
		return v, nil
	}
	return p.parseComparison(fields)
}

func (p *parser) parseComparison(fields map[string]any) (bool, error) {
	left, leftIsField, err := p.parseOperand()
	if err != nil {
		return false, err
	}

	if p.atEnd() || (p.tokens[p.pos].kind != tokOp && !strings.EqualFold(p.peek(), "contains")) {
		// Bare operand: field truthiness.
		if !leftIsField {
			return false, fmt.Errorf("literal %q is not a boolean expression", left)
		}
		return truthy(fields, left), nil
	}

	var op string
	if p.tokens[p.pos].kind == tokOp {
		op = p.tokens[p.pos].text
	} else {
		op = "contains"
	}
	p.pos++

	right, rightIsField, err := p.parseOperand()
	if err != nil {
		return false, err
	}

	lv := resolve(fields, left, leftIsField)
	rv := resolve(fields, right, rightIsField)
	return compare(op, lv, rv)
}

// parseOperand returns the raw text and whether it is a field reference
// (bare word) rather than a literal.
func (p *parser) parseOperand() (string, bool, error) {
	if p.atEnd() {
		return "", false, fmt.Errorf("unexpected end of expression")
	}
	t := p.tokens[p.pos]
	switch t.kind {
	case tokString:
		p.pos++
		return t.text, false, nil
	case tokWord:
		switch strings.ToLower(t.text) {
		case "and", "or", "not", "contains":
			return "", false, fmt.Errorf("unexpected keyword %q", t.text)
		}
		p.pos++
		return t.text, true, nil
	}
	return "", false, fmt.Errorf("unexpected token %q", t.text)
}

func resolve(fields map[string]any, text string, isField bool) any {
	if !isField {
		return text
	}
	if _, err := strconv.ParseFloat(text, 64); err == nil {
		// Bare numbers are literals, not field names.
		return text
	}
	if v, ok := fields[text]; ok {
		return v
	}
	return nil
}

func truthy(fields map[string]any, key string) bool {
	v, ok := fields[key]
	if !ok || v == nil {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.TrimSpace(b) != "" && !strings.EqualFold(b, "false")
	case int:
		return b != 0
	case float64:
		return b != 0
	}
	return true
}

func compare(op string, left, right any) (bool, error) {
	if op == "contains" {
		return contains(left, right), nil
	}

	ln, lok := asNumber(left)
	rn, rok := asNumber(right)
	if lok && rok {
		return compareOrdered(op, ln, rn)
	}
	return compareOrdered(op, asString(left), asString(right))
}

func compareOrdered[T string | float64](op string, a, b T) (bool, error) {
	switch op {
	case "==", "=":
		return a == b, nil
	case "!=":
		return a != b, nil
	case "<":
		return a < b, nil
	case "<=":
		return a <= b, nil
	case ">":
		return a > b, nil
	case ">=":
		return a >= b, nil
	}
	return false, fmt.Errorf("unknown operator %q", op)
}

func contains(left, right any) bool {
	needle := asString(right)
	switch list := left.(type) {
	case []any:
		for _, item := range list {
			if strings.EqualFold(asString(item), needle) {
				return true
			}
		}
		return false
	case []string:
		for _, item := range list {
			if strings.EqualFold(item, needle) {
				return true
			}
		}
		return false
	}
	return strings.Contains(strings.ToLower(asString(left)), strings.ToLower(needle))
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
