package dccpkt

// NewFunc0 builds a Function Group One packet (F0-F4).
func NewFunc0(address int, f0, f1, f2, f3, f4 bool) (Packet, error) {
	addr, err := encodeAddress(address)
	if err != nil {
		return Packet{}, err
	}
	instr := byte(0x80) | bit(f0)<<4 | bit(f4)<<3 | bit(f3)<<2 | bit(f2)<<1 | bit(f1)
	return build(append(addr, instr)...), nil
}

// DecodeFunc0 extracts F0-F4 from a Func0 packet, in [F0, F1, F2, F3, F4]
// order.
func DecodeFunc0(data []byte) (f [5]bool, ok bool) {
	instr, ok := instrByte(data, Func0)
	if !ok {
		return f, false
	}
	f[0] = instr&0x10 != 0
	f[1] = instr&0x01 != 0
	f[2] = instr&0x02 != 0
	f[3] = instr&0x04 != 0
	f[4] = instr&0x08 != 0
	return f, true
}

// NewFunc5 builds a Function Group Two (S=1) packet (F5-F8).
func NewFunc5(address int, f5, f6, f7, f8 bool) (Packet, error) {
	addr, err := encodeAddress(address)
	if err != nil {
		return Packet{}, err
	}
	instr := byte(0xB0) | bit(f8)<<3 | bit(f7)<<2 | bit(f6)<<1 | bit(f5)
	return build(append(addr, instr)...), nil
}

// DecodeFunc5 extracts F5-F8 in [F5, F6, F7, F8] order.
func DecodeFunc5(data []byte) (f [4]bool, ok bool) {
	instr, ok := instrByte(data, Func5)
	if !ok {
		return f, false
	}
	f[0] = instr&0x01 != 0
	f[1] = instr&0x02 != 0
	f[2] = instr&0x04 != 0
	f[3] = instr&0x08 != 0
	return f, true
}

// NewFunc9 builds a Function Group Two (S=0) packet (F9-F12).
func NewFunc9(address int, f9, f10, f11, f12 bool) (Packet, error) {
	addr, err := encodeAddress(address)
	if err != nil {
		return Packet{}, err
	}
	instr := byte(0xA0) | bit(f12)<<3 | bit(f11)<<2 | bit(f10)<<1 | bit(f9)
	return build(append(addr, instr)...), nil
}

// DecodeFunc9 extracts F9-F12 in [F9, F10, F11, F12] order.
func DecodeFunc9(data []byte) (f [4]bool, ok bool) {
	instr, ok := instrByte(data, Func9)
	if !ok {
		return f, false
	}
	f[0] = instr&0x01 != 0
	f[1] = instr&0x02 != 0
	f[2] = instr&0x04 != 0
	f[3] = instr&0x08 != 0
	return f, true
}

func bit(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// instrByte returns the instruction byte of an addressed packet if it
// classifies as t.
func instrByte(data []byte, t Type) (byte, bool) {
	if DecodeType(data) != t {
		return 0, false
	}
	size, err := AddressSize(data)
	if err != nil || len(data) < size+1 {
		return 0, false
	}
	return data[size], true
}

// funcGroupBase is the lowest function number in each high function
// group (F13-F20 and above).
var funcGroupBase = map[Type]int{
	Func13: 13,
	Func21: 21,
	Func29: 29,
	Func37: 37,
	Func45: 45,
	Func53: 53,
	Func61: 61,
}

// newFuncGroup builds a two-byte high-function-group instruction
// <opcode> <bitmap>, with bit i of the bitmap set when function
// (base+i) is on.
func newFuncGroup(address int, t Type, bits [8]bool) (Packet, error) {
	opcode, ok := opcodeForFunc[t]
	if !ok {
		return Packet{}, ErrInvalidArgument
	}
	addr, err := encodeAddress(address)
	if err != nil {
		return Packet{}, err
	}
	var bitmap byte
	for i, on := range bits {
		if on {
			bitmap |= 1 << uint(i)
		}
	}
	return build(append(addr, opcode, bitmap)...), nil
}

func decodeFuncGroup(data []byte, t Type) (bits [8]bool, ok bool) {
	if DecodeType(data) != t {
		return bits, false
	}
	size, err := AddressSize(data)
	if err != nil || len(data) < size+2 {
		return bits, false
	}
	bitmap := data[size+1]
	for i := range bits {
		bits[i] = bitmap&(1<<uint(i)) != 0
	}
	return bits, true
}

// NewFunc13 builds a high-function-group packet for F13-F20, bits[0]=F13
// through bits[7]=F20.
func NewFunc13(address int, bits [8]bool) (Packet, error) { return newFuncGroup(address, Func13, bits) }

// DecodeFunc13 is the inverse of NewFunc13.
func DecodeFunc13(data []byte) ([8]bool, bool) { return decodeFuncGroup(data, Func13) }

// NewFunc21 builds a high-function-group packet for F21-F28.
func NewFunc21(address int, bits [8]bool) (Packet, error) { return newFuncGroup(address, Func21, bits) }

// DecodeFunc21 is the inverse of NewFunc21.
func DecodeFunc21(data []byte) ([8]bool, bool) { return decodeFuncGroup(data, Func21) }

// NewFunc29 builds a high-function-group packet for F29-F36.
func NewFunc29(address int, bits [8]bool) (Packet, error) { return newFuncGroup(address, Func29, bits) }

// DecodeFunc29 is the inverse of NewFunc29.
func DecodeFunc29(data []byte) ([8]bool, bool) { return decodeFuncGroup(data, Func29) }

// NewFunc37 builds a high-function-group packet for F37-F44.
func NewFunc37(address int, bits [8]bool) (Packet, error) { return newFuncGroup(address, Func37, bits) }

// DecodeFunc37 is the inverse of NewFunc37.
func DecodeFunc37(data []byte) ([8]bool, bool) { return decodeFuncGroup(data, Func37) }

// NewFunc45 builds a high-function-group packet for F45-F52.
func NewFunc45(address int, bits [8]bool) (Packet, error) { return newFuncGroup(address, Func45, bits) }

// DecodeFunc45 is the inverse of NewFunc45.
func DecodeFunc45(data []byte) ([8]bool, bool) { return decodeFuncGroup(data, Func45) }

// NewFunc53 builds a high-function-group packet for F53-F60.
func NewFunc53(address int, bits [8]bool) (Packet, error) { return newFuncGroup(address, Func53, bits) }

// DecodeFunc53 is the inverse of NewFunc53.
func DecodeFunc53(data []byte) ([8]bool, bool) { return decodeFuncGroup(data, Func53) }

// NewFunc61 builds a high-function-group packet for F61-F68.
func NewFunc61(address int, bits [8]bool) (Packet, error) { return newFuncGroup(address, Func61, bits) }

// DecodeFunc61 is the inverse of NewFunc61.
func DecodeFunc61(data []byte) ([8]bool, bool) { return decodeFuncGroup(data, Func61) }

// FuncGroupBase returns the lowest function number in a high function
// group's Type, and false for anything else (including F0/F5/F9).
func FuncGroupBase(t Type) (int, bool) {
	base, ok := funcGroupBase[t]
	return base, ok
}
