package railcom

// MsgID tags a decoded channel-1 or channel-2 RailCom message.
type MsgID int

const (
	Inv MsgID = iota
	Ack
	Nak
	Busy
	Pom
	AHi
	ALo
	Ext
	Dyn
	XPom
)

func (id MsgID) String() string {
	switch id {
	case Ack:
		return "ACK"
	case Nak:
		return "NAK"
	case Busy:
		return "BUSY"
	case Pom:
		return "POM"
	case AHi:
		return "AHI"
	case ALo:
		return "ALO"
	case Ext:
		return "EXT"
	case Dyn:
		return "DYN"
	case XPom:
		return "XPOM"
	default:
		return "INV"
	}
}

// Msg is a decoded RailCom message. Only the fields relevant to ID are
// meaningful; Go has no tagged union, and every message here is small
// enough that a flat struct costs nothing a union would save.
type Msg struct {
	ID MsgID

	Val byte // Pom, AHi, ALo, Dyn

	Typ byte // Ext: 6-bit sub-type
	Pos byte // Ext: 8-bit position

	DynID DynID // Dyn: identifies the dynamic variable

	SS   byte    // XPom: 2-bit sequence number
	XVal [4]byte // XPom: four packed 8-bit values
}

// pktID channel-2 packet IDs, carried in the high 4 bits of the first
// decoded byte of a channel-2 sub-message.
const (
	pktPom   = 0
	pktAHi   = 1
	pktALo   = 2
	pktExt   = 3
	pktDyn   = 7
	pktXPom0 = 8
	pktXPom3 = 11
)

// parseOne consumes one channel-2 sub-message (or one atomic Ack/Nak/Busy
// symbol) from the front of syms, returning the message and how many
// symbols it consumed. ok is false if syms does not begin with a
// recognised message shape, or doesn't hold enough symbols to complete
// one; the caller discards the whole channel on failure.
func parseOne(syms []byte) (m Msg, consumed int, ok bool) {
	if len(syms) == 0 {
		return Msg{}, 0, false
	}
	switch syms[0] {
	case DecAck:
		return Msg{ID: Ack}, 1, true
	case DecNak:
		return Msg{ID: Nak}, 1, true
	case DecBsy:
		return Msg{ID: Busy}, 1, true
	}
	if syms[0] >= DecMax {
		return Msg{}, 0, false
	}

	pktID := syms[0] >> 2
	switch {
	case pktID == pktPom || pktID == pktAHi || pktID == pktALo:
		if len(syms) < 2 || syms[1] >= DecMax {
			return Msg{}, 0, false
		}
		val := syms[0]&0x03<<6 | syms[1]
		id := Pom
		if pktID == pktAHi {
			id = AHi
		} else if pktID == pktALo {
			id = ALo
		}
		return Msg{ID: id, Val: val}, 2, true

	case pktID == pktExt:
		if len(syms) < 3 || syms[1] >= DecMax || syms[2] >= DecMax {
			return Msg{}, 0, false
		}
		v := uint32(syms[0]&0x03)<<12 | uint32(syms[1])<<6 | uint32(syms[2])
		return Msg{ID: Ext, Typ: byte(v >> 8 & 0x3F), Pos: byte(v)}, 3, true

	case pktID == pktDyn:
		if len(syms) < 3 || syms[1] >= DecMax || syms[2] >= DecMax {
			return Msg{}, 0, false
		}
		v := uint32(syms[0]&0x03)<<12 | uint32(syms[1])<<6 | uint32(syms[2])
		return Msg{ID: Dyn, Val: byte(v >> 6), DynID: DynID(v & 0x3F)}, 3, true

	case pktID >= pktXPom0 && pktID <= pktXPom3:
		if len(syms) < 6 {
			return Msg{}, 0, false
		}
		for _, s := range syms[:6] {
			if s >= DecMax {
				return Msg{}, 0, false
			}
		}
		data := uint32(syms[0]&0x03)<<30 | uint32(syms[1])<<24 | uint32(syms[2])<<18 |
			uint32(syms[3])<<12 | uint32(syms[4])<<6 | uint32(syms[5])
		return Msg{
			ID: XPom,
			SS: pktID & 0x03,
			XVal: [4]byte{
				byte(data >> 24), byte(data >> 16), byte(data >> 8), byte(data),
			},
		}, 6, true

	default:
		return Msg{}, 0, false
	}
}
