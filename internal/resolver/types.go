package resolver

// CommonSection is the reserved key holding values shared by every environment.
const CommonSection = "common"

// Kind describes the shape of a raw settings definition.
type Kind int

const (
	// KindScalar covers every value that is neither a sequence nor a record.
	// Scalars are opaque and always pass through unchanged.
	KindScalar Kind = iota
	// KindSequence is an ordered list. Sequences are never resolved.
	KindSequence
	// KindRecord is a string-keyed mapping which may carry a common section
	// and named environment sections.
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindSequence:
		return "sequence"
	case KindRecord:
		return "record"
	default:
		return "scalar"
	}
}

// Definition is a raw settings value tagged with its shape.
type Definition struct {
	kind     Kind
	sequence []any
	record   map[string]any
	scalar   any
}

// Classify tags raw with its Kind. Records must be map[string]any and
// sequences []any; anything else is a scalar.
func Classify(raw any) Definition {
	switch v := raw.(type) {
	case []any:
		return Definition{kind: KindSequence, sequence: v}
	case map[string]any:
		return Definition{kind: KindRecord, record: v}
	default:
		return Definition{kind: KindScalar, scalar: raw}
	}
}

// Kind reports the shape of the definition.
func (d Definition) Kind() Kind {
	return d.kind
}

// Value returns the untouched raw value.
func (d Definition) Value() any {
	switch d.kind {
	case KindSequence:
		return d.sequence
	case KindRecord:
		return d.record
	default:
		return d.scalar
	}
}

// Resolver describes the behaviour required to turn a raw definition into
// the effective value for one environment.
type Resolver interface {
	Resolve(raw any, environment string) any
}
