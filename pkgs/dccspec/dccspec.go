// Package dccspec holds the DCC wire-timing and protocol constants shared by
// the packet codec, the bit decoder, the bitstream transmitter and the
// command controller. Nothing here depends on any other package in this
// module.
package dccspec

// Transmit half-bit windows, in microseconds (DCC Std S-9.1).
const (
	T1MinUs = 55
	T1NomUs = 58
	T1MaxUs = 61

	T1DMaxUs = 3 // max asymmetry between the two halves of a one-bit

	T0MinUs = 95
	T0NomUs = 100
	T0MaxUs = 9900
)

// Receive half-bit windows, in microseconds. Wider than the transmit
// tolerances to accommodate decoder clock drift.
const (
	TR1MinUs = 52
	TR1NomUs = 58
	TR1MaxUs = 64

	TR1DMaxUs = 6

	TR0MinUs = 90
	TR0NomUs = 100
	TR0MaxUs = 10000
)

// Preamble lengths, in one-bits.
const (
	OpsPreambleBits = 14
	SvcPreambleBits = 20
)

// PreambleMinHalfOnes is the minimum run of half-one edges the bit decoder
// requires before it will start assembling a packet (10 complete one-bits).
const PreambleMinHalfOnes = 20

// Service-mode packet-count budget (DCC Std S-9.2.3, section E).
const (
	SvcReset1Count  = 20
	SvcCommandCount = 5
	SvcReset2Count  = 5
)

// AckIncMa is added to the long-average current reading to form the
// adaptive ack-detection threshold.
const AckIncMa = 60

// RailCom cutout timing, in microseconds.
const (
	CutoutStartMinUs = 26
	CutoutStartMaxUs = 32
	CutoutTotalMinUs = 454
	CutoutTotalMaxUs = 488
)

// RailComBaud is the UART baud rate used for the 4/8-encoded RailCom
// channel.
const RailComBaud = 250000
