package frontmatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// delimiter is the YAML frontmatter fence line.
const delimiter = "---"

// Extract splits a note's content into its frontmatter field map and the
// markdown body. ok is false when no frontmatter block is present or the
// YAML is malformed; malformed input never panics or errors the caller.
func Extract(content []byte) (fields map[string]any, body string, ok bool) {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")

	if !strings.HasPrefix(text, delimiter+"\n") && text != delimiter {
		return nil, text, false
	}

	rest := strings.TrimPrefix(text, delimiter+"\n")
	end := -1
	if strings.HasPrefix(rest, delimiter+"\n") || rest == delimiter {
		end = 0
	} else if idx := strings.Index(rest, "\n"+delimiter+"\n"); idx >= 0 {
		end = idx + 1
	} else if strings.HasSuffix(rest, "\n"+delimiter) {
		end = len(rest) - len(delimiter)
	}
	if end < 0 {
		return nil, text, false
	}

	block := rest[:end]
	body = rest[end:]
	if i := strings.Index(body, "\n"); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}

	fields, err := decodeFields([]byte(block))
	if err != nil {
		return nil, text, false
	}
	return fields, body, true
}

// decodeFields unmarshals the YAML block through the node API. Timestamp
// scalars keep their raw text: once yaml resolves them into time.Time, a
// bare date and a genuinely-midnight timestamp are indistinguishable, and
// DateTime needs to tell them apart.
func decodeFields(block []byte) (map[string]any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return nil, err
	}
	fields := make(map[string]any)
	if len(doc.Content) == 0 {
		return fields, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("frontmatter is not a field map")
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		fields[root.Content[i].Value] = nodeValue(root.Content[i+1])
	}
	return fields, nil
}

func nodeValue(n *yaml.Node) any {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!timestamp" {
			return n.Value
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return n.Value
		}
		return v
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			out = append(out, nodeValue(c))
		}
		return out
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			out[n.Content[i].Value] = nodeValue(n.Content[i+1])
		}
		return out
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	}
	return nil
}

// Render marshals a field map back into a full note: frontmatter fence,
// YAML block, fence, body.
func Render(fields map[string]any, body string) ([]byte, error) {
	out, err := yaml.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal frontmatter: %w", err)
	}
	return []byte(delimiter + "\n" + string(out) + delimiter + "\n" + body), nil
}

// String reads a field as a string. Non-string scalars are rendered with
// their YAML-ish representation.
func String(fields map[string]any, key string) (string, bool) {
	v, ok := fields[key]
	if !ok || v == nil {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case bool:
		return strconv.FormatBool(s), true
	case int:
		return strconv.Itoa(s), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case time.Time:
		return s.Format(time.RFC3339), true
	}
	return fmt.Sprint(v), true
}

// Bool reads a field as a boolean. Strings "true"/"yes" count as true.
// Absent or unrecognized values are false.
func Bool(fields map[string]any, key string) bool {
	v, ok := fields[key]
	if !ok || v == nil {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		s := strings.ToLower(strings.TrimSpace(b))
		return s == "true" || s == "yes"
	}
	return false
}

// Int reads a field as an integer, accepting numeric strings.
func Int(fields map[string]any, key string) (int, bool) {
	v, ok := fields[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

// StringList reads a field as a list of strings, accepting either a YAML
// sequence or a comma-separated scalar. Entries are trimmed and empties
// dropped.
func StringList(fields map[string]any, key string) []string {
	v, ok := fields[key]
	if !ok || v == nil {
		return nil
	}
	var raw []string
	switch list := v.(type) {
	case []any:
		for _, item := range list {
			raw = append(raw, fmt.Sprint(item))
		}
	case []string:
		raw = list
	case string:
		raw = strings.Split(list, ",")
	default:
		raw = []string{fmt.Sprint(v)}
	}
	var out []string
	for _, item := range raw {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// dateTimeLayouts are tried in order for string-valued timestamps.
var dateTimeLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

const dateLayout = "2006-01-02"

// DateTime reads a field as a timestamp in loc. dateOnly reports whether
// the value carried no time component: only the bare-date layout counts,
// so a timed event at exactly midnight is still timed. Extract keeps
// timestamp scalars as strings; the time.Time case covers field maps
// built in code.
func DateTime(fields map[string]any, key string, loc *time.Location) (t time.Time, dateOnly bool, ok bool) {
	v, present := fields[key]
	if !present || v == nil {
		return time.Time{}, false, false
	}
	switch val := v.(type) {
	case time.Time:
		return val.In(loc), false, true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false, false
		}
		if parsed, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
			return parsed, true, true
		}
		for _, layout := range dateTimeLayouts {
			if parsed, err := time.ParseInLocation(layout, s, loc); err == nil {
				return parsed, false, true
			}
		}
	}
	return time.Time{}, false, false
}
