package dccpkt

import "errors"

// Sentinel errors returned by the packet codec. None of these ever
// propagate out of the bitstream transmitter; they are value-level
// failures surfaced to the caller that asked for an out-of-range packet
// or handed the decoder a malformed byte string.
var (
	ErrInvalidArgument = errors.New("dccpkt: invalid argument")
	ErrBadXor          = errors.New("dccpkt: bad xor")
	ErrUnknownType     = errors.New("dccpkt: unknown type")
	ErrTruncatedPacket = errors.New("dccpkt: truncated packet")
)
