package railcom

import (
	"fmt"
	"strings"
)

// Frame holds the raw bytes received during one RailCom cutout, together
// with the parsed channel-1 and channel-2 messages.
type Frame struct {
	Era Era
	Raw []byte

	Channel1 []Msg
	Channel2 []Msg
}

// Parse decodes raw (up to 8 RailCom-coded bytes) and splits it into
// channel-1 and channel-2 messages.
//
// Channel-1 is tried first against the leading up-to-2 bytes: it is
// accepted only as exactly one AHi or ALo message. If that fails, byte 0
// belongs to channel-2 instead. Channel-2 is accepted only if exactly 6
// decoded symbols remain and every sub-message consumes all of them; any
// parse failure discards the whole channel.
func Parse(era Era, raw []byte) Frame {
	f := Frame{Era: era, Raw: append([]byte(nil), raw...)}

	decoded := make([]byte, len(raw))
	for i, b := range raw {
		decoded[i] = Decode(era, b)
	}

	rest := decoded
	if len(decoded) >= 2 {
		if m, consumed, ok := parseOne(decoded[:2]); ok && consumed == 2 && (m.ID == AHi || m.ID == ALo) {
			f.Channel1 = []Msg{m}
			rest = decoded[2:]
		}
	}

	if len(rest) == 6 {
		var msgs []Msg
		pos := 0
		for pos < len(rest) {
			m, consumed, ok := parseOne(rest[pos:])
			if !ok {
				msgs = nil
				break
			}
			msgs = append(msgs, m)
			pos += consumed
		}
		if pos == 6 {
			f.Channel2 = msgs
		}
	}

	return f
}

// Dump renders the raw 4/8-coded bytes as a human-readable trace:
// 8 binary digits for valid data, "AK"/"NK"/"BZ" for the out-of-band
// ack/nak/busy symbols, and hex for anything invalid. It reflects what
// was actually on the wire even when Parse discarded the channel.
func (f Frame) Dump() string {
	var sb strings.Builder
	for i, b := range f.Raw {
		if i > 0 {
			sb.WriteByte(' ')
		}
		switch Decode(f.Era, b) {
		case DecAck:
			sb.WriteString("AK")
		case DecNak:
			sb.WriteString("NK")
		case DecBsy:
			sb.WriteString("BZ")
		case DecRes, DecInv:
			fmt.Fprintf(&sb, "%02x", b)
		default:
			fmt.Fprintf(&sb, "%08b", b)
		}
	}
	return sb.String()
}

// Show renders the parsed channel-1 and channel-2 messages, collapsing
// runs of consecutive identical messages with a trailing "#count".
func (f Frame) Show() string {
	var sb strings.Builder
	writeRuns(&sb, f.Channel1)
	if len(f.Channel1) > 0 && len(f.Channel2) > 0 {
		sb.WriteByte(' ')
	}
	writeRuns(&sb, f.Channel2)
	return sb.String()
}

func writeRuns(sb *strings.Builder, msgs []Msg) {
	for i := 0; i < len(msgs); {
		j := i + 1
		for j < len(msgs) && msgs[j] == msgs[i] {
			j++
		}
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(formatMsg(msgs[i]))
		if j-i > 1 {
			fmt.Fprintf(sb, "#%d", j-i)
		}
		i = j
	}
}

func formatMsg(m Msg) string {
	switch m.ID {
	case Pom, AHi, ALo:
		return fmt.Sprintf("%s=%02x", m.ID, m.Val)
	case Ext:
		return fmt.Sprintf("EXT type=%d pos=%d", m.Typ, m.Pos)
	case Dyn:
		return fmt.Sprintf("DYN %s=%d", DynName(m.DynID), m.Val)
	case XPom:
		return fmt.Sprintf("XPOM ss=%d %02x%02x%02x%02x", m.SS, m.XVal[0], m.XVal[1], m.XVal[2], m.XVal[3])
	default:
		return m.ID.String()
	}
}
