// Package sentinel defines the opaque marker values used for in-band
// control flow across the evaluator and serializer. Sentinels are never
// user-visible in produced output; they exist so handlers can signal
// "ignore this", "not found", "no case matched" etc. without exceptions.
package sentinel

// Kind identifies which sentinel a Value carries.
type Kind int

const (
	// Ignore marks a value that should cause the enclosing list/filter
	// entry to be dropped.
	Ignore Kind = iota
	// NotFound is the poison pill returned by Store.Get for a missing
	// required key.
	NotFound
	// CaseMiss names a `case` branch whose `when.field` is absent from
	// the record. The case transformer skips such a branch directly and
	// does not produce this value.
	CaseMiss
	// ObjectNotFound names a dotted "object" path walk that fell off the
	// record. The serializer reports that case with a boolean and does
	// not produce this value.
	ObjectNotFound
	// DoNotIgnore is returned by an `ignore` transformer when its
	// predicate did not fire; the caller must not treat the field as
	// ignored.
	DoNotIgnore
	// OnError names the "no enum.on_error configured" state. The enum
	// transformer tracks that state with a flag and does not produce
	// this value.
	OnError
)

// token values are the opaque strings that would collide with nothing a
// config author could type; kept only for String() and for round-tripping
// through contexts (like JSON) that can't carry a Kind directly.
var tokens = map[Kind]string{
	Ignore:         "##IGNORE##",
	NotFound:       "##NOT_FOUND##",
	CaseMiss:       "##CASE_PIL",
	ObjectNotFound: "#$OBJECT_NOT_FOUND$",
	DoNotIgnore:    "##$IGNORE_PIL",
	OnError:        "##ON_ERROR_TOKEN##",
}

func (k Kind) String() string {
	if s, ok := tokens[k]; ok {
		return s
	}
	return "##UNKNOWN_SENTINEL##"
}

// Value wraps a Kind so it can travel through `any`-typed record fields
// and evaluator results without being confused with a user string that
// happens to equal one of the legacy poison-pill tokens.
type Value struct {
	Kind Kind
}

// Of constructs a sentinel Value for the given kind.
func Of(k Kind) Value { return Value{Kind: k} }

// Is reports whether v is a sentinel of kind k.
func Is(v any, k Kind) bool {
	sv, ok := v.(Value)
	return ok && sv.Kind == k
}

// IsAny reports whether v is a sentinel Value of any kind.
func IsAny(v any) bool {
	_, ok := v.(Value)
	return ok
}
