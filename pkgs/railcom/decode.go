// Package railcom decodes RailCom 4/8-coded telemetry bytes and parses
// the channel-1/channel-2 message structure carried in the post-packet
// cutout window.
package railcom

// Era selects which RailCom line-code table revision a Frame was
// captured under. The two revisions differ only in three symbol slots.
type Era int

const (
	Era2012 Era = iota
	Era2021
)

// Decoded 4/8 symbols. Values below DecMax are 6-bit data; values at or
// above it are out-of-band indications that never carry data.
const (
	DecMax = 0x40
	DecAck = 0x41
	DecNak = 0x42
	DecBsy = 0x43
	DecRes = 0x44
	DecInv = 0xFF
)

// decodePending marks the three table slots whose meaning depends on
// Era; it is patched away by init and never observed by callers.
const decodePending = 0x45

// decodeBase is RailComSpec::decode, the literal 256-entry 8-to-6 line
// code table, transcribed byte for byte. The three cells whose meaning
// differs between the 2012 and 2021 encoding revisions are left as
// decodePending and patched into decode2012/decode2021 below.
var decodeBase = [256]byte{
	DecInv, DecInv, DecInv, DecInv, DecInv, DecInv, DecInv, DecInv, // 0x00-0x07
	DecInv, DecInv, DecInv, DecInv, DecInv, DecInv, DecInv, // 0x08-0x0e
	decodePending, // 0x0f
	DecInv, DecInv, DecInv, DecInv, DecInv, DecInv, DecInv, 0x33, // 0x10-0x17
	DecInv, DecInv, DecInv, 0x34, DecInv, 0x35, 0x36, DecInv, // 0x18-0x1f
	DecInv, DecInv, DecInv, DecInv, DecInv, DecInv, DecInv, 0x3a, // 0x20-0x27
	DecInv, DecInv, DecInv, 0x3b, DecInv, 0x3c, 0x37, DecInv, // 0x28-0x2f
	DecInv, DecInv, DecInv, 0x3f, DecInv, 0x3d, 0x38, DecInv, // 0x30-0x37
	DecInv, 0x3e, 0x39, DecInv, // 0x38-0x3b
	decodePending, // 0x3c
	DecInv, DecInv, DecInv, // 0x3d-0x3f
	DecInv, DecInv, DecInv, DecInv, DecInv, DecInv, DecInv, 0x24, // 0x40-0x47
	DecInv, DecInv, DecInv, 0x23, DecInv, 0x22, 0x21, DecInv, // 0x48-0x4f
	DecInv, DecInv, DecInv, 0x1f, DecInv, 0x1e, 0x20, DecInv, // 0x50-0x57
	DecInv, 0x1d, 0x1c, DecInv, 0x1b, DecInv, DecInv, DecInv, // 0x58-0x5f
	DecInv, DecInv, DecInv, 0x19, DecInv, 0x18, 0x1a, DecInv, // 0x60-0x67
	DecInv, 0x17, 0x16, DecInv, 0x15, DecInv, DecInv, DecInv, // 0x68-0x6f
	DecInv, 0x25, 0x14, DecInv, 0x13, DecInv, DecInv, DecInv, // 0x70-0x77
	0x32, DecInv, DecInv, DecInv, DecInv, DecInv, DecInv, DecInv, // 0x78-0x7f
	DecInv, DecInv, DecInv, DecInv, DecInv, DecInv, DecInv, DecRes, // 0x80-0x87
	DecInv, DecInv, DecInv, 0x0e, DecInv, 0x0d, 0x0c, DecInv, // 0x88-0x8f
	DecInv, DecInv, DecInv, 0x0a, DecInv, 0x09, 0x0b, DecInv, // 0x90-0x97
	DecInv, 0x08, 0x07, DecInv, 0x06, DecInv, DecInv, DecInv, // 0x98-0x9f
	DecInv, DecInv, DecInv, 0x04, DecInv, 0x03, 0x05, DecInv, // 0xa0-0xa7
	DecInv, 0x02, 0x01, DecInv, 0x00, DecInv, DecInv, DecInv, // 0xa8-0xaf
	DecInv, 0x0f, 0x10, DecInv, 0x11, DecInv, DecInv, DecInv, // 0xb0-0xb7
	0x12, DecInv, DecInv, DecInv, DecInv, DecInv, DecInv, DecInv, // 0xb8-0xbf
	DecInv, DecInv, DecInv, DecRes, DecInv, 0x2b, 0x30, DecInv, // 0xc0-0xc7
	DecInv, 0x2a, 0x2f, DecInv, 0x31, DecInv, DecInv, DecInv, // 0xc8-0xcf
	DecInv, 0x29, 0x2e, DecInv, 0x2d, DecInv, DecInv, DecInv, // 0xd0-0xd7
	0x2c, DecInv, DecInv, DecInv, DecInv, DecInv, DecInv, DecInv, // 0xd8-0xdf
	DecInv,        // 0xe0
	decodePending, // 0xe1
	0x28, DecInv, 0x27, DecInv, DecInv, DecInv, // 0xe2-0xe7
	0x26, DecInv, DecInv, DecInv, DecInv, DecInv, DecInv, DecInv, // 0xe8-0xef
	DecAck, DecInv, DecInv, DecInv, DecInv, DecInv, DecInv, DecInv, // 0xf0-0xf7
	DecInv, DecInv, DecInv, DecInv, DecInv, DecInv, DecInv, DecInv, // 0xf8-0xff
}

var decode2012, decode2021 [256]byte

func init() {
	decode2012 = decodeBase
	decode2012[0x0f] = DecNak
	decode2012[0x3c] = DecRes
	decode2012[0xe1] = DecBsy

	decode2021 = decodeBase
	decode2021[0x0f] = DecAck
	decode2021[0x3c] = DecNak
	decode2021[0xe1] = DecRes
}

func table(era Era) *[256]byte {
	if era == Era2012 {
		return &decode2012
	}
	return &decode2021
}

// Decode maps one raw RailCom line-code byte to its 6-bit data value
// (0x00-0x3F) or one of the DecAck/DecNak/DecBsy/DecRes/DecInv symbols.
func Decode(era Era, b byte) byte {
	return table(era)[b]
}
