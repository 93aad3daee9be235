package core

// Record is a schema-free mapping representing either a user record or a
// single policy rule. Keys are opaque to the engine except when matched
// against the configured candidate key lists.
type Record = map[string]any

// Kind tells the normalizer which wrapper-key and label-key lists apply.
type Kind string

const (
	KindPolicy Kind = "policy"
	KindUser   Kind = "user"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindPolicy, KindUser:
		return true
	default:
		return false
	}
}
