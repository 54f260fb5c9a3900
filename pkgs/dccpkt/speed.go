package dccpkt

const (
	speedMin = -127
	speedMax = 127
)

// IntToDcc maps a signed speed in [-127, 127] to the 128-step speed byte:
// the sign selects the direction bit (forward when s >= 0) and the
// magnitude is the speed step code (0 = stop, 1 = emergency stop, 2..127
// = running steps 1..126).
func IntToDcc(s int) (byte, error) {
	if s < speedMin || s > speedMax {
		return 0, ErrInvalidArgument
	}
	var dir byte
	step := s
	if s >= 0 {
		dir = 0x80
	} else {
		step = -s
	}
	return dir | byte(step), nil
}

// DccToInt is the inverse of IntToDcc.
func DccToInt(b byte) int {
	step := int(b & 0x7F)
	if b&0x80 != 0 {
		return step
	}
	return -step
}

// NewSpeed128 builds a 128-step speed packet for address, carrying the
// signed speed s (see IntToDcc for the encoding convention).
func NewSpeed128(address, s int) (Packet, error) {
	addr, err := encodeAddress(address)
	if err != nil {
		return Packet{}, err
	}
	speedByte, err := IntToDcc(s)
	if err != nil {
		return Packet{}, err
	}
	return build(append(append([]byte{}, addr...), 0x3F, speedByte)...), nil
}

// DecodeSpeed128 extracts the signed speed from a Speed128 packet. ok is
// false if data does not classify as Speed128.
func DecodeSpeed128(data []byte) (speed int, ok bool) {
	if DecodeType(data) != Speed128 {
		return 0, false
	}
	size, err := AddressSize(data)
	if err != nil || len(data) < size+2 {
		return 0, false
	}
	return DccToInt(data[size+1]), true
}
