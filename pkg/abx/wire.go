package abx

// Magic is the ABX version 0 stream header.
var Magic = [4]byte{0x41, 0x42, 0x58, 0x00}

// MaxUnsignedShort is the largest length a string or blob payload may have.
const MaxUnsignedShort = 0xFFFF

// internSentinel precedes a literal string that becomes a new pool entry.
const internSentinel uint16 = 0xFFFF

// MaxPoolEntries is the number of distinct strings a pool can index.
// Index 0xFFFF is reserved for the sentinel.
const MaxPoolEntries = int(internSentinel)

// Event identifies the structural kind of a token (low nibble of the control byte).
type Event uint8

const (
	EventStartDocument         Event = 0
	EventEndDocument           Event = 1
	EventStartTag              Event = 2
	EventEndTag                Event = 3
	EventText                  Event = 4
	EventCDSect                Event = 5
	EventEntityRef             Event = 6
	EventIgnorableWhitespace   Event = 7
	EventProcessingInstruction Event = 8
	EventComment               Event = 9
	EventDocDecl               Event = 10
	EventAttribute             Event = 15
)

// String returns a stable name for the event, suitable for reports.
func (e Event) String() string {
	switch e {
	case EventStartDocument:
		return "start_document"
	case EventEndDocument:
		return "end_document"
	case EventStartTag:
		return "start_tag"
	case EventEndTag:
		return "end_tag"
	case EventText:
		return "text"
	case EventCDSect:
		return "cdsect"
	case EventEntityRef:
		return "entity_ref"
	case EventIgnorableWhitespace:
		return "ignorable_whitespace"
	case EventProcessingInstruction:
		return "processing_instruction"
	case EventComment:
		return "comment"
	case EventDocDecl:
		return "docdecl"
	case EventAttribute:
		return "attribute"
	default:
		return "unknown"
	}
}

// ValueType identifies the payload encoding of a token (high nibble of the
// control byte). Values are stored pre-shifted.
type ValueType uint8

const (
	TypeNull           ValueType = 1 << 4
	TypeString         ValueType = 2 << 4
	TypeStringInterned ValueType = 3 << 4
	TypeBytesHex       ValueType = 4 << 4
	TypeBytesBase64    ValueType = 5 << 4
	TypeInt            ValueType = 6 << 4
	TypeIntHex         ValueType = 7 << 4
	TypeLong           ValueType = 8 << 4
	TypeLongHex        ValueType = 9 << 4
	TypeFloat          ValueType = 10 << 4
	TypeDouble         ValueType = 11 << 4
	TypeBooleanTrue    ValueType = 12 << 4
	TypeBooleanFalse   ValueType = 13 << 4
)

// String returns a stable name for the value type, suitable for reports.
func (t ValueType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeString:
		return "string"
	case TypeStringInterned:
		return "string_interned"
	case TypeBytesHex:
		return "bytes_hex"
	case TypeBytesBase64:
		return "bytes_base64"
	case TypeInt:
		return "int"
	case TypeIntHex:
		return "int_hex"
	case TypeLong:
		return "long"
	case TypeLongHex:
		return "long_hex"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeBooleanTrue:
		return "boolean_true"
	case TypeBooleanFalse:
		return "boolean_false"
	default:
		return "unknown"
	}
}

// Control packs an event and a value type into a control byte.
// The fields occupy disjoint nibbles, so union is enough.
func Control(e Event, t ValueType) byte {
	return byte(e) | byte(t)
}

// SplitControl unpacks a control byte.
func SplitControl(b byte) (Event, ValueType) {
	return Event(b & 0x0F), ValueType(b & 0xF0)
}
