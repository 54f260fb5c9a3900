package dccpkt

// NewIdle builds the Idle packet, sent whenever the controller has no
// throttle traffic or Service operation to send.
func NewIdle() Packet {
	return build(0xFF, 0x00)
}

// NewReset builds the broadcast Reset packet, used throughout Service
// mode and to stop all decoders in an emergency.
func NewReset() Packet {
	return build(0x00, 0x00)
}
