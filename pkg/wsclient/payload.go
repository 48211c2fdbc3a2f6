package wsclient

// PayloadKind discriminates the Payload variants.
type PayloadKind int

const (
	PayloadNone PayloadKind = iota
	PayloadObject
	PayloadObjects
	PayloadRaw
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadNone:
		return "none"
	case PayloadObject:
		return "object"
	case PayloadObjects:
		return "objects"
	case PayloadRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Payload is the outgoing request content: an object, an array of objects
// or a raw string. The zero value carries nothing.
type Payload struct {
	kind    PayloadKind
	object  map[string]any
	objects []map[string]any
	raw     string
}

// Object wraps a key/value mapping.
func Object(v map[string]any) Payload {
	return Payload{kind: PayloadObject, object: v}
}

// Objects wraps an array of objects. It is always written as a raw JSON body.
func Objects(v []map[string]any) Payload {
	return Payload{kind: PayloadObjects, objects: v}
}

// Raw wraps a string written verbatim as the UTF-8 body.
func Raw(s string) Payload {
	return Payload{kind: PayloadRaw, raw: s}
}

func (p Payload) Kind() PayloadKind { return p.kind }

// IsZero reports whether p carries no payload.
func (p Payload) IsZero() bool { return p.kind == PayloadNone }

// AsObject returns the object variant.
func (p Payload) AsObject() (map[string]any, bool) {
	return p.object, p.kind == PayloadObject
}

// AsObjects returns the array-of-objects variant.
func (p Payload) AsObjects() ([]map[string]any, bool) {
	return p.objects, p.kind == PayloadObjects
}

// AsRaw returns the raw string variant.
func (p Payload) AsRaw() (string, bool) {
	return p.raw, p.kind == PayloadRaw
}
