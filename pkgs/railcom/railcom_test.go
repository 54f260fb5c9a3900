package railcom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawFor scans the line-code table for a byte that decodes to want under
// era, so tests build frames out of symbols without hand-transcribing
// codewords from the table a second time.
func rawFor(t *testing.T, era Era, want byte) byte {
	t.Helper()
	for b := 0; b < 256; b++ {
		if Decode(era, byte(b)) == want {
			return byte(b)
		}
	}
	t.Fatalf("no raw byte decodes to %#x under era %v", want, era)
	return 0
}

func TestDecodeTableEraDifferences(t *testing.T) {
	raw0f := byte(0x0f)
	assert.Equal(t, byte(DecNak), Decode(Era2012, raw0f))
	assert.Equal(t, byte(DecAck), Decode(Era2021, raw0f))

	raw3c := byte(0x3c)
	assert.Equal(t, byte(DecRes), Decode(Era2012, raw3c))
	assert.Equal(t, byte(DecNak), Decode(Era2021, raw3c))

	rawE1 := byte(0xe1)
	assert.Equal(t, byte(DecBsy), Decode(Era2012, rawE1))
	assert.Equal(t, byte(DecRes), Decode(Era2021, rawE1))

	// 0xf0 is ACK under both eras.
	assert.Equal(t, byte(DecAck), Decode(Era2012, 0xf0))
	assert.Equal(t, byte(DecAck), Decode(Era2021, 0xf0))
}

func TestDecodeTableIsPermutationOfValidCodes(t *testing.T) {
	counts := map[byte]int{}
	for b := 0; b < 256; b++ {
		v := Decode(Era2021, byte(b))
		if v < DecMax {
			counts[v]++
		}
	}
	for v := byte(0); v < DecMax; v++ {
		assert.Equalf(t, 1, counts[v], "data value %#x should decode from exactly one byte", v)
	}
}

func TestParseAtomicChannel2(t *testing.T) {
	ack := rawFor(t, Era2021, DecAck)
	raw := []byte{ack, ack, ack, ack, ack, ack}
	f := Parse(Era2021, raw)
	require.Len(t, f.Channel2, 6)
	for _, m := range f.Channel2 {
		assert.Equal(t, Ack, m.ID)
	}
	assert.Empty(t, f.Channel1)
}

func TestParseChannel1AHi(t *testing.T) {
	s0 := rawFor(t, Era2021, 0x05) // top 4 bits = pktAHi (1)
	s1 := rawFor(t, Era2021, 0x2A)
	raw := []byte{s0, s1}
	f := Parse(Era2021, raw)
	require.Len(t, f.Channel1, 1)
	assert.Equal(t, AHi, f.Channel1[0].ID)
	assert.Equal(t, byte(0x01<<6|0x2A), f.Channel1[0].Val)
	assert.Empty(t, f.Channel2)
}

func TestParsePomThenAckAck(t *testing.T) {
	// pom: 2 symbols, then 4 atomic acks (2+4=6).
	pomHi := rawFor(t, Era2021, 0x02) // pktID = 0 (pom)
	pomLo := rawFor(t, Era2021, 0x15)
	ack := rawFor(t, Era2021, DecAck)
	raw := []byte{pomHi, pomLo, ack, ack, ack, ack}
	f := Parse(Era2021, raw)
	require.Len(t, f.Channel2, 5)
	assert.Equal(t, Pom, f.Channel2[0].ID)
	assert.Equal(t, byte(0x02&0x03<<6|0x15), f.Channel2[0].Val)
	for _, m := range f.Channel2[1:] {
		assert.Equal(t, Ack, m.ID)
	}
}

func TestParseDynMessage(t *testing.T) {
	hi := rawFor(t, Era2021, byte(pktDyn<<2)|0x01) // pktID=7, low 2 bits feed val
	mid := rawFor(t, Era2021, 0x3F)
	lo := rawFor(t, Era2021, byte(DynStatus)&0x3F|0x00)
	ack := rawFor(t, Era2021, DecAck)
	raw := []byte{hi, mid, lo, ack, ack, ack}
	f := Parse(Era2021, raw)
	require.Len(t, f.Channel2, 4)
	assert.Equal(t, Dyn, f.Channel2[0].ID)
	assert.Equal(t, DynStatus, f.Channel2[0].DynID)
}

func TestParseXPom(t *testing.T) {
	s0 := rawFor(t, Era2021, byte(pktXPom0<<2)) // ss=0
	s1 := rawFor(t, Era2021, 0x01)
	s2 := rawFor(t, Era2021, 0x02)
	s3 := rawFor(t, Era2021, 0x03)
	s4 := rawFor(t, Era2021, 0x04)
	s5 := rawFor(t, Era2021, 0x05)
	raw := []byte{s0, s1, s2, s3, s4, s5}
	f := Parse(Era2021, raw)
	require.Len(t, f.Channel2, 1)
	assert.Equal(t, XPom, f.Channel2[0].ID)
	assert.Equal(t, byte(0), f.Channel2[0].SS)
}

func TestParseDiscardsMalformedChannel2(t *testing.T) {
	inv := rawFor(t, Era2021, DecInv)
	ack := rawFor(t, Era2021, DecAck)
	raw := []byte{inv, ack, ack, ack, ack, ack}
	f := Parse(Era2021, raw)
	assert.Nil(t, f.Channel2)
}

func TestParseWrongChannel2LengthDiscarded(t *testing.T) {
	ack := rawFor(t, Era2021, DecAck)
	raw := []byte{ack, ack, ack} // only 3, channel-2 needs exactly 6
	f := Parse(Era2021, raw)
	assert.Nil(t, f.Channel2)
}

func TestDumpRendersAckTokens(t *testing.T) {
	ack := rawFor(t, Era2021, DecAck)
	f := Parse(Era2021, []byte{ack})
	assert.Contains(t, f.Dump(), "AK")
}

func TestDynNameTable(t *testing.T) {
	assert.Equal(t, "SPD", DynName(DynSpeed1))
	assert.Equal(t, "STATS", DynName(DynStats))
	assert.Equal(t, "ADRS", DynName(DynAddress))
	assert.Equal(t, "ODOM", DynName(DynOdom))
	assert.Equal(t, "?", DynName(DynID(999)))
}
