// Package dccpkt builds and parses DCC command packets: address and
// instruction framing, the trailing XOR check byte, and type inference
// from a raw byte string. Packets are cheap value types with inline
// storage; the constructors assemble them from short-lived byte slices.
package dccpkt

import "github.com/jdfin/dccstation/pkgs/dccspec"

const maxLen = 8

// Packet is a DCC packet of 3 to 6 bytes, held in a fixed 8-byte buffer.
// The zero Packet is not a valid packet; use one of the New* constructors.
type Packet struct {
	data [maxLen]byte
	len  uint8
}

// Bytes returns the packet's wire bytes, including the trailing XOR byte.
func (p *Packet) Bytes() []byte {
	return p.data[:p.len]
}

// Len returns the packet length in bytes, including the XOR byte.
func (p *Packet) Len() int {
	return int(p.len)
}

// Type classifies the packet the same way DecodeType classifies a raw
// byte string.
func (p *Packet) Type() Type {
	return DecodeType(p.Bytes())
}

// PreambleBits returns the preamble length this packet expects ahead of it
// on the wire: 20 one-bits for a Service-mode template (Reset or one of the
// Svc* forms), 14 otherwise. pkgs/bitstream does not consult this; it uses
// the preamble length of the mode it was started in (StartOps or StartSvc).
func (p *Packet) PreambleBits() int {
	switch p.Type() {
	case Reset, SvcVerifyByte, SvcWriteByte, SvcBitManip:
		return dccspec.SvcPreambleBits
	default:
		return dccspec.OpsPreambleBits
	}
}

func build(bytes ...byte) Packet {
	var p Packet
	p.len = uint8(copy(p.data[:maxLen-1], bytes)) + 1
	p.SetXor()
	return p
}

// SetXor rewrites the packet's final byte so that the XOR of every byte,
// including the new final byte, is zero.
func (p *Packet) SetXor() {
	if p.len == 0 {
		return
	}
	var x byte
	for _, b := range p.data[:p.len-1] {
		x ^= b
	}
	p.data[p.len-1] = x
}

// CheckXor reports whether the XOR of all bytes in data is zero. An empty
// slice is not a valid packet and reports false.
func CheckXor(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	var x byte
	for _, b := range data {
		x ^= b
	}
	return x == 0
}

// CheckXor reports whether p's trailing byte satisfies the XOR invariant.
func (p *Packet) CheckXor() bool {
	return CheckXor(p.Bytes())
}

// IsSvcDirect reports whether data has the Service-mode Direct shape: a
// leading byte of the form 0b0111_xxxx and a total length of 4 bytes
// (no address byte). It does not validate the XOR byte.
func IsSvcDirect(data []byte) bool {
	return len(data) == 4 && data[0]&0xF0 == 0x70
}

// AddressSize reports whether data's leading address is encoded in one
// byte (short, 1-127) or two bytes (long, 128-10239), based solely on
// the high bits of byte 0. It does not distinguish broadcast, Service
// Direct, or Accessory forms from loco addresses; callers that care
// about those should check DecodeType first.
func AddressSize(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, ErrTruncatedPacket
	}
	if data[0]&0xC0 == 0xC0 {
		return 2, nil
	}
	return 1, nil
}

// GetAddress decodes the loco address from the leading 1 or 2 bytes of
// data.
func GetAddress(data []byte) (int, error) {
	size, err := AddressSize(data)
	if err != nil {
		return 0, err
	}
	if len(data) < size {
		return 0, ErrTruncatedPacket
	}
	if size == 1 {
		return int(data[0]), nil
	}
	return int(data[0]&0x3F)<<8 | int(data[1]), nil
}

// GetAddress returns the address the packet was built for, or an error
// if the packet carries no address (Idle, Reset, broadcast, or
// Service-mode Direct).
func (p *Packet) GetAddress() (int, error) {
	if !hasAddress(p.Type()) {
		return 0, ErrInvalidArgument
	}
	return GetAddress(p.Bytes())
}

func hasAddress(t Type) bool {
	switch t {
	case Idle, Reset, Broadcast, Accessory, SvcVerifyByte, SvcWriteByte, SvcBitManip, Unimplemented:
		return false
	default:
		return true
	}
}

const (
	addressMin      = 1
	addressShortMax = 127
	addressMax      = 10239
)

// encodeAddress renders a loco address as its 1-byte (short) or 2-byte
// (long) wire form.
func encodeAddress(address int) ([]byte, error) {
	if address < addressMin || address > addressMax {
		return nil, ErrInvalidArgument
	}
	if address <= addressShortMax {
		return []byte{byte(address)}, nil
	}
	return []byte{0xC0 | byte(address>>8), byte(address)}, nil
}

// SetAddress rewrites the packet's address, preserving its instruction
// bytes and recomputing the XOR byte. The address portion of a packet is
// always a prefix ahead of the instruction bytes, so this works for
// every addressed packet type without needing to know which one it is.
// It fails for packets that carry no address field.
func (p *Packet) SetAddress(address int) error {
	if !hasAddress(p.Type()) {
		return ErrInvalidArgument
	}
	oldSize, err := AddressSize(p.Bytes())
	if err != nil {
		return err
	}
	instr := append([]byte(nil), p.data[oldSize:p.len-1]...)
	addrBytes, err := encodeAddress(address)
	if err != nil {
		return err
	}
	newLen := len(addrBytes) + len(instr) + 1
	if newLen > maxLen {
		return ErrInvalidArgument
	}
	n := copy(p.data[:], addrBytes)
	n += copy(p.data[n:], instr)
	p.len = uint8(n + 1)
	p.SetXor()
	return nil
}
