package transform

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kjaganathan/adapt/internal/adapterr"
	"github.com/kjaganathan/adapt/pkg/confignode"
)

// Transformer is a compiled leaf operation (value) -> value (spec §4.4).
// Transformers are pure and hold their configuration after Compile.
type Transformer interface {
	Transform(value any) (any, error)
}

// Func adapts a plain function to Transformer.
type Func func(value any) (any, error)

func (f Func) Transform(value any) (any, error) { return f(value) }

// --- date { input, output } ----------------------------------------------

type dateTransformer struct {
	inputLayout  string
	outputLayout string
}

func compileDate(node confignode.MappingNode) (Transformer, error) {
	input, err := requiredScalarString(node, "input")
	if err != nil {
		return nil, err
	}
	output, err := requiredScalarString(node, "output")
	if err != nil {
		return nil, err
	}
	return dateTransformer{inputLayout: strftimeToGo(input), outputLayout: strftimeToGo(output)}, nil
}

func (t dateTransformer) Transform(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("transform: date expects a string value, got %T", value)
	}
	parsed, err := time.Parse(t.inputLayout, s)
	if err != nil {
		return nil, fmt.Errorf("transform: date: %w", err)
	}
	return parsed.Format(t.outputLayout), nil
}

// --- date_parser { output } ----------------------------------------------

type dateParserTransformer struct {
	outputLayout string
}

func compileDateParser(node confignode.MappingNode) (Transformer, error) {
	output, err := requiredScalarString(node, "output")
	if err != nil {
		return nil, err
	}
	return dateParserTransformer{outputLayout: strftimeToGo(output)}, nil
}

// bestEffortLayouts are tried in order, mirroring the original's
// dateutil.parser.parse heuristic best-effort behavior without pulling in
// a locale-aware natural-language date parser (none appears anywhere in
// the example pack).
var bestEffortLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

func (t dateParserTransformer) Transform(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("transform: date_parser expects a string value, got %T", value)
	}
	for _, layout := range bestEffortLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.Format(t.outputLayout), nil
		}
	}
	return nil, fmt.Errorf("transform: date_parser: could not parse %q as a date", s)
}

// strftimeToGo converts the common strftime directives configs are
// written with (the system's declarative schemas carry Python
// strftime-style formats, e.g. "%Y-%m-%d") into a Go reference-time
// layout string.
func strftimeToGo(strftime string) string {
	replacer := strings.NewReplacer(
		"%Y", "2006",
		"%y", "06",
		"%m", "01",
		"%d", "02",
		"%H", "15",
		"%M", "04",
		"%S", "05",
		"%B", "January",
		"%b", "Jan",
		"%A", "Monday",
		"%a", "Mon",
		"%z", "-0700",
		"%Z", "MST",
	)
	return replacer.Replace(strftime)
}

// --- float { precision } ---------------------------------------------------

type floatTransformer struct {
	precision int
}

func compileFloat(node confignode.MappingNode) (Transformer, error) {
	precision, err := requiredScalarInt(node, "precision")
	if err != nil {
		return nil, err
	}
	return floatTransformer{precision: int(precision)}, nil
}

func (t floatTransformer) Transform(value any) (any, error) {
	f, err := toFloat(value)
	if err != nil {
		return nil, fmt.Errorf("transform: float: %w", err)
	}
	return roundTo(f, t.precision), nil
}

func roundTo(f float64, precision int) float64 {
	mult := math.Pow(10, float64(precision))
	return math.Round(f*mult) / mult
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to float", value)
	}
}

// --- integer ---------------------------------------------------------------

type integerTransformer struct{}

func compileInteger(confignode.MappingNode) (Transformer, error) { return integerTransformer{}, nil }

func (integerTransformer) Transform(value any) (any, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	default:
		return nil, fmt.Errorf("transform: integer: cannot convert %T", value)
	}
}

// --- bool --------------------------------------------------------------

type boolTransformer struct{}

func compileBool(confignode.MappingNode) (Transformer, error) { return boolTransformer{}, nil }

func (boolTransformer) Transform(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case nil:
		return false, nil
	case string:
		return v != "", nil
	case int64:
		return v != 0, nil
	case int:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case []any:
		return len(v) > 0, nil
	default:
		return true, nil
	}
}

// --- string --------------------------------------------------------------

type stringTransformer struct{}

func compileString(confignode.MappingNode) (Transformer, error) { return stringTransformer{}, nil }

func (stringTransformer) Transform(value any) (any, error) {
	return fmt.Sprintf("%v", value), nil
}

// --- enum { mappings, on_error? } ------------------------------------------

type enumTransformer struct {
	mappings map[string]any
	onError  any
	hasError bool
}

func compileEnum(node confignode.MappingNode) (Transformer, error) {
	mappingsNode, ok := node.Get("mappings")
	if !ok {
		return nil, fmt.Errorf("transform: enum: missing %q", "mappings")
	}
	mappingNode, ok := mappingsNode.(confignode.MappingNode)
	if !ok {
		return nil, fmt.Errorf("transform: enum: %q must be a mapping", "mappings")
	}
	mappings := make(map[string]any, len(mappingNode.Keys))
	for _, k := range mappingNode.Keys {
		v, err := literalFromNode(mappingNode.Entries[k])
		if err != nil {
			return nil, err
		}
		mappings[k] = v
	}
	t := enumTransformer{mappings: mappings}
	if onErrorNode, ok := node.Get("on_error"); ok {
		v, err := literalFromNode(onErrorNode)
		if err != nil {
			return nil, err
		}
		t.onError = v
		t.hasError = true
	}
	return t, nil
}

func (t enumTransformer) Transform(value any) (any, error) {
	key := fmt.Sprintf("%v", value)
	if v, ok := t.mappings[key]; ok {
		return v, nil
	}
	if t.hasError {
		return t.onError, nil
	}
	return nil, adapterr.NewEnumMiss(value, t.mappings)
}

// --- currency { multiplier, rounding=2 } ------------------------------------

type currencyTransformer struct {
	multiplier float64
	rounding   int
}

func compileCurrency(node confignode.MappingNode) (Transformer, error) {
	multiplier, err := requiredScalarFloat(node, "multiplier")
	if err != nil {
		return nil, err
	}
	rounding := 2
	if roundingNode, ok := node.Get("rounding"); ok {
		v, err := literalFromNode(roundingNode)
		if err != nil {
			return nil, err
		}
		if iv, ok := toIntLiteral(v); ok {
			rounding = iv
		}
	}
	return currencyTransformer{multiplier: multiplier, rounding: rounding}, nil
}

func (t currencyTransformer) Transform(value any) (any, error) {
	f, err := toFloat(value)
	if err != nil {
		return nil, fmt.Errorf("transform: currency: %w", err)
	}
	return roundTo(f*t.multiplier, t.rounding), nil
}

// --- constant { value } -----------------------------------------------------

type constantTransformer struct {
	value any
}

func compileConstant(node confignode.MappingNode) (Transformer, error) {
	valueNode, ok := node.Get("value")
	if !ok {
		return nil, fmt.Errorf("transform: constant: missing %q", "value")
	}
	v, err := literalFromNode(valueNode)
	if err != nil {
		return nil, err
	}
	return constantTransformer{value: v}, nil
}

// Transform ignores its argument: constant is conceptually zero-arg.
func (t constantTransformer) Transform(any) (any, error) {
	return t.value, nil
}

// --- shared scalar helpers --------------------------------------------------

func requiredScalarString(node confignode.MappingNode, key string) (string, error) {
	n, ok := node.Get(key)
	if !ok {
		return "", fmt.Errorf("transform: missing %q", key)
	}
	s, ok := n.(confignode.ScalarNode)
	if !ok {
		return "", fmt.Errorf("transform: %q must be a scalar", key)
	}
	str, ok := s.Value.(string)
	if !ok {
		return "", fmt.Errorf("transform: %q must be a string, got %T", key, s.Value)
	}
	return str, nil
}

func requiredScalarInt(node confignode.MappingNode, key string) (int64, error) {
	n, ok := node.Get(key)
	if !ok {
		return 0, fmt.Errorf("transform: missing %q", key)
	}
	v, err := literalFromNode(n)
	if err != nil {
		return 0, err
	}
	iv, ok := toIntLiteral(v)
	if !ok {
		return 0, fmt.Errorf("transform: %q must be an integer, got %T", key, v)
	}
	return int64(iv), nil
}

func requiredScalarFloat(node confignode.MappingNode, key string) (float64, error) {
	n, ok := node.Get(key)
	if !ok {
		return 0, fmt.Errorf("transform: missing %q", key)
	}
	v, err := literalFromNode(n)
	if err != nil {
		return 0, err
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, fmt.Errorf("transform: %q: %w", key, err)
	}
	return f, nil
}

func toIntLiteral(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
