package dccpkt

const (
	cvNumMin = 1
	cvNumMax = 1024
	cvValMin = 0
	cvValMax = 255
)

// encodeCVAddr splits a 1-based CV number into the 2-bit high field (AA,
// folded into the instruction byte) and the 8-bit low field (the byte
// following it), both relative to cv-1.
func encodeCVAddr(cv int) (aa, lo byte, err error) {
	if cv < cvNumMin || cv > cvNumMax {
		return 0, 0, ErrInvalidArgument
	}
	n := cv - 1
	return byte(n >> 8 & 0x03), byte(n), nil
}

func decodeCVAddr(instr, lo byte) int {
	return int(instr&0x03)<<8 | int(lo) + 1
}

// NewCVVerifyByte builds an Operations-mode CV Access Long Form "verify
// byte" packet (programming on main).
func NewCVVerifyByte(address, cv, val int) (Packet, error) {
	return newCVByte(address, cv, val, 0x01)
}

// NewCVWriteByte builds an Operations-mode CV Access Long Form "write
// byte" packet (programming on main).
func NewCVWriteByte(address, cv, val int) (Packet, error) {
	return newCVByte(address, cv, val, 0x03)
}

func newCVByte(address, cv, val int, cc byte) (Packet, error) {
	addr, err := encodeAddress(address)
	if err != nil {
		return Packet{}, err
	}
	aa, lo, err := encodeCVAddr(cv)
	if err != nil {
		return Packet{}, err
	}
	if val < cvValMin || val > cvValMax {
		return Packet{}, ErrInvalidArgument
	}
	instr := 0xE0 | cc<<2 | aa
	return build(append(addr, instr, lo, byte(val))...), nil
}

// NewCVBitManip builds an Operations-mode CV Access Long Form bit
// manipulation packet: set or verify a single bit of cv to val (0 or 1).
func NewCVBitManip(address, cv, bitIdx, val int) (Packet, error) {
	addr, err := encodeAddress(address)
	if err != nil {
		return Packet{}, err
	}
	aa, lo, err := encodeCVAddr(cv)
	if err != nil {
		return Packet{}, err
	}
	data, err := bitManipByte(bitIdx, val)
	if err != nil {
		return Packet{}, err
	}
	instr := byte(0xE0) | 0x02<<2 | aa
	return build(append(addr, instr, lo, data)...), nil
}

func bitManipByte(bitIdx, val int) (byte, error) {
	if bitIdx < 0 || bitIdx > 7 || (val != 0 && val != 1) {
		return 0, ErrInvalidArgument
	}
	return 0xE0 | byte(val)<<3 | byte(bitIdx), nil
}

// DecodeCVByte extracts the CV number and data byte from a CVVerifyByte
// or CVWriteByte packet.
func DecodeCVByte(data []byte) (cv, val int, ok bool) {
	t := DecodeType(data)
	if t != CVVerifyByte && t != CVWriteByte {
		return 0, 0, false
	}
	size, err := AddressSize(data)
	if err != nil || len(data) < size+3 {
		return 0, 0, false
	}
	cv = decodeCVAddr(data[size], data[size+1])
	return cv, int(data[size+2]), true
}

// DecodeCVBit extracts the CV number, bit index, and asserted bit value
// from a CVBitManip packet.
func DecodeCVBit(data []byte) (cv, bitIdx, val int, ok bool) {
	if DecodeType(data) != CVBitManip {
		return 0, 0, 0, false
	}
	size, err := AddressSize(data)
	if err != nil || len(data) < size+3 {
		return 0, 0, 0, false
	}
	cv = decodeCVAddr(data[size], data[size+1])
	b := data[size+2]
	return cv, int(b & 0x07), int(b>>3) & 0x01, true
}
