package dccpkt

// Type tags a decoded Packet by its instruction shape. Packets carry no
// type field of their own; Type is always derived from the bytes by
// DecodeType, matching the wire format itself rather than a struct tag.
type Type int

const (
	Unimplemented Type = iota
	Idle
	Reset
	Broadcast
	Accessory
	Speed128
	Func0  // F0-F4
	Func5  // F5-F8
	Func9  // F9-F12
	Func13 // F13-F20
	Func21 // F21-F28
	Func29 // F29-F36
	Func37 // F37-F44
	Func45 // F45-F52
	Func53 // F53-F60
	Func61 // F61-F68
	CVVerifyByte
	CVWriteByte
	CVBitManip
	SvcVerifyByte
	SvcWriteByte
	SvcBitManip
)

func (t Type) String() string {
	switch t {
	case Idle:
		return "Idle"
	case Reset:
		return "Reset"
	case Broadcast:
		return "Broadcast"
	case Accessory:
		return "Accessory"
	case Speed128:
		return "Speed128"
	case Func0:
		return "Func0"
	case Func5:
		return "Func5"
	case Func9:
		return "Func9"
	case Func13:
		return "Func13"
	case Func21:
		return "Func21"
	case Func29:
		return "Func29"
	case Func37:
		return "Func37"
	case Func45:
		return "Func45"
	case Func53:
		return "Func53"
	case Func61:
		return "Func61"
	case CVVerifyByte:
		return "CVVerifyByte"
	case CVWriteByte:
		return "CVWriteByte"
	case CVBitManip:
		return "CVBitManip"
	case SvcVerifyByte:
		return "SvcVerifyByte"
	case SvcWriteByte:
		return "SvcWriteByte"
	case SvcBitManip:
		return "SvcBitManip"
	default:
		return "Unimplemented"
	}
}

// funcOpcode is the two-byte-instruction opcode for each high function
// group, indexed in ascending group order (F13-F20 first).
var funcOpcode = map[byte]Type{
	0xDE: Func13,
	0xDF: Func21,
	0xD8: Func29,
	0xD9: Func37,
	0xDA: Func45,
	0xDB: Func53,
	0xDC: Func61,
}

var opcodeForFunc = func() map[Type]byte {
	m := make(map[Type]byte, len(funcOpcode))
	for op, t := range funcOpcode {
		m[t] = op
	}
	return m
}()

// DecodeType classifies a raw packet by leading byte ranges, length, and
// payload opcodes. It does not check the XOR byte; call CheckXor
// separately if the source is untrusted.
//
// Tie-break order: Idle, then Reset, then generic broadcast, then
// Service-mode Direct (no address byte, so it must be ruled in or out
// before the remaining bytes are read as an address), then Accessory,
// then addressed loco forms. Unknown shapes classify as Unimplemented.
func DecodeType(data []byte) Type {
	n := len(data)
	if n < 3 || n > 8 {
		return Unimplemented
	}

	if data[0] == 0xFF {
		if n == 3 && data[1] == 0x00 {
			return Idle
		}
		return Unimplemented
	}
	if data[0] == 0x00 {
		if n == 3 && data[1] == 0x00 {
			return Reset
		}
		return Broadcast
	}

	// Service-mode Direct (no address byte) and a short-address
	// Speed128/high-function-group packet (1-byte address, 2 more bytes,
	// XOR) are both exactly 4 bytes with a leading nibble that can fall
	// in 0x70-0x7F for either interpretation: a short address of
	// 112-127, or a Service-mode CC field. There is no way to tell them
	// apart from bytes alone; real decoders rely on which track (service
	// or operations) the packet arrived on. Here the addressed
	// interpretation wins whenever the second byte is a recognised
	// instruction opcode, since a Service CV-address byte only rarely
	// collides with one by chance; otherwise it falls through to the
	// Service-mode check below.
	if n == 4 && data[0]&0xF0 == 0x70 {
		switch instr := data[1]; {
		case instr == 0x3F:
			return Speed128
		default:
			if t, ok := funcOpcode[instr]; ok {
				return t
			}
		}
	}
	if IsSvcDirect(data) {
		switch (data[0] >> 2) & 0x03 {
		case 0x01:
			return SvcVerifyByte
		case 0x03:
			return SvcWriteByte
		case 0x02:
			return SvcBitManip
		default:
			return Unimplemented
		}
	}
	if data[0] >= 0x80 && data[0] <= 0xBF {
		return Accessory
	}

	size, err := AddressSize(data)
	if err != nil || n < size+2 {
		return Unimplemented
	}
	instr := data[size]

	switch {
	case instr == 0x3F:
		return Speed128
	case instr&0xE0 == 0x80:
		return Func0
	case instr&0xF0 == 0xB0:
		return Func5
	case instr&0xF0 == 0xA0:
		return Func9
	case instr&0xF0 == 0xE0:
		switch (instr >> 2) & 0x03 {
		case 0x01:
			return CVVerifyByte
		case 0x03:
			return CVWriteByte
		case 0x02:
			return CVBitManip
		default:
			return Unimplemented
		}
	default:
		if t, ok := funcOpcode[instr]; ok {
			return t
		}
		return Unimplemented
	}
}
