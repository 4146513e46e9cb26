// Package format implements the Formatter described in spec §4.2: an
// optional split-on-delimiter step followed by an optional render-as
// step, applied to external_input and constant values.
package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kjaganathan/adapt/internal/adapterr"
)

// Tag names one of the closed set of render tags.
type Tag string

const (
	Int                Tag = "INT"
	StringUnquoted     Tag = "STRING_UNQUOTED"
	StringSingleQuoted Tag = "STRING_SINGLE_QUOTED"
	StringDoubleQuoted Tag = "STRING_DOUBLE_QUOTED"
	IntList            Tag = "INT_LIST"
	SingleQuotedList   Tag = "SINGLE_QUOTED_LIST"
	DoubleQuotedList   Tag = "DOUBLE_QUOTED_LIST"
)

// Apply runs the formatter: split first, then render. Per spec Design
// Notes §9 ("split → render, nothing more") there is no implicit type
// conversion beyond what the chosen render tag performs. splitOn and
// formatAs are both optional; when neither is set, value passes through
// unchanged.
func Apply(value any, splitOn *string, formatAs *Tag) (any, error) {
	if splitOn != nil {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("format: split_on requires a string value, got %T", value)
		}
		parts := strings.Split(s, *splitOn)
		items := make([]any, len(parts))
		for i, p := range parts {
			items[i] = p
		}
		value = items
	}
	if formatAs == nil {
		return value, nil
	}
	return render(*formatAs, value)
}

func render(tag Tag, value any) (any, error) {
	switch tag {
	case Int:
		return toInt(value)
	case StringUnquoted:
		return toString(value), nil
	case StringSingleQuoted:
		return fmt.Sprintf("'%s'", toString(value)), nil
	case StringDoubleQuoted:
		return fmt.Sprintf("%q", toString(value)), nil
	case IntList:
		items, err := asList(value)
		if err != nil {
			return nil, err
		}
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = toString(it)
		}
		return "(" + strings.Join(parts, ", ") + ")", nil
	case SingleQuotedList:
		items, err := asList(value)
		if err != nil {
			return nil, err
		}
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = fmt.Sprintf("'%s'", toString(it))
		}
		return "(" + strings.Join(parts, ", ") + ")", nil
	case DoubleQuotedList:
		items, err := asList(value)
		if err != nil {
			return nil, err
		}
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = fmt.Sprintf("%q", toString(it))
		}
		return "(" + strings.Join(parts, ", ") + ")", nil
	default:
		return nil, adapterr.NewInvalidFormatTag(string(tag))
	}
}

func asList(value any) ([]any, error) {
	switch v := value.(type) {
	case []any:
		return v, nil
	default:
		return nil, fmt.Errorf("format: %v render tag requires a list value, got %T", value, value)
	}
}

func toString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toInt(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	default:
		return 0, fmt.Errorf("format: cannot convert %T to INT", value)
	}
}

// ParseTag validates a raw string against the closed set of render tags.
func ParseTag(raw string) (Tag, error) {
	switch Tag(raw) {
	case Int, StringUnquoted, StringSingleQuoted, StringDoubleQuoted, IntList, SingleQuotedList, DoubleQuotedList:
		return Tag(raw), nil
	default:
		return "", adapterr.NewInvalidFormatTag(raw)
	}
}
