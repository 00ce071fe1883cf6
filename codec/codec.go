// Package codec centralizes dump encoding.
//
// A dump is a value encoded by a Codec and optionally wrapped in a compressed
// block. Blocks are self-describing: the header records the compression so
// readers need not know it up front.
package codec

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}
