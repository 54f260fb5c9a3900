package dccpkt

// NewSvcVerifyByte builds a Service-mode Direct "verify byte" packet.
// There is no address: Service mode assumes a single decoder on the
// programming track.
func NewSvcVerifyByte(cv, val int) (Packet, error) {
	return newSvcByte(cv, val, 0x01)
}

// NewSvcWriteByte builds a Service-mode Direct "write byte" packet.
func NewSvcWriteByte(cv, val int) (Packet, error) {
	return newSvcByte(cv, val, 0x03)
}

func newSvcByte(cv, val int, cc byte) (Packet, error) {
	aa, lo, err := encodeCVAddr(cv)
	if err != nil {
		return Packet{}, err
	}
	if val < cvValMin || val > cvValMax {
		return Packet{}, ErrInvalidArgument
	}
	instr := 0x70 | cc<<2 | aa
	return build(instr, lo, byte(val)), nil
}

// NewSvcBitManip builds a Service-mode Direct bit manipulation packet
// asserting bit bitIdx of cv as val. The wire form is identical whether
// the caller intends this as a write or a verify; the distinction is
// purely in how the caller interprets an ack (see pkgs/station).
func NewSvcBitManip(cv, bitIdx, val int) (Packet, error) {
	aa, lo, err := encodeCVAddr(cv)
	if err != nil {
		return Packet{}, err
	}
	data, err := bitManipByte(bitIdx, val)
	if err != nil {
		return Packet{}, err
	}
	instr := byte(0x70) | 0x02<<2 | aa
	return build(instr, lo, data), nil
}

// DecodeSvcByte extracts the CV number and data byte from an
// SvcVerifyByte or SvcWriteByte packet.
func DecodeSvcByte(data []byte) (cv, val int, ok bool) {
	t := DecodeType(data)
	if t != SvcVerifyByte && t != SvcWriteByte {
		return 0, 0, false
	}
	cv = decodeCVAddr(data[0], data[1])
	return cv, int(data[2]), true
}

// DecodeSvcBit extracts the CV number, bit index, and asserted bit value
// from a Service-mode Direct bit manipulation packet.
func DecodeSvcBit(data []byte) (cv, bitIdx, val int, ok bool) {
	if DecodeType(data) != SvcBitManip {
		return 0, 0, 0, false
	}
	cv = decodeCVAddr(data[0], data[1])
	b := data[2]
	return cv, int(b & 0x07), int(b>>3) & 0x01, true
}
