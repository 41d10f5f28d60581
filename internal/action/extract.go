package action

import (
	"regexp"
	"strconv"
	"strings"
)

var toolCallRe = regexp.MustCompile(`(?s)<tool_call>(.*?)</tool_call>`)

// Extract finds the first tool-call block in model output and converts it
// to a Record. The boolean is false when there is no block or the block
// does not describe a known tool with an arguments mapping.
//
// Extract never panics on arbitrary input.
func Extract(text string) (Record, bool) {
	m := toolCallRe.FindStringSubmatch(text)
	if m == nil {
		return Record{}, false
	}
	content := strings.TrimSpace(m[1])
	if content == "" {
		return Record{}, false
	}

	v, err := ParseLiteral(content)
	if err != nil {
		return Record{}, false
	}
	return recordFromLiteral(v)
}

func recordFromLiteral(v any) (Record, bool) {
	call, ok := v.(map[string]any)
	if !ok {
		return Record{}, false
	}
	name, ok := call["name"].(string)
	if !ok {
		return Record{}, false
	}
	kind, ok := KindForTool(name)
	if !ok {
		return Record{}, false
	}
	args, ok := call["arguments"].(map[string]any)
	if !ok {
		return Record{}, false
	}

	rec := Record{Kind: kind}
	for key, dst := range map[string]*string{
		FieldDate:  &rec.Date,
		FieldTime:  &rec.Time,
		FieldTitle: &rec.Title,
	} {
		raw, present := args[key]
		if !present {
			continue
		}
		s, ok := scalarString(raw)
		if !ok {
			return Record{}, false
		}
		*dst = s
	}
	return rec, true
}

// scalarString renders a scalar literal value as text. None renders empty.
func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", true
	case string:
		return x, true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true
	case bool:
		if x {
			return "True", true
		}
		return "False", true
	default:
		return "", false
	}
}
