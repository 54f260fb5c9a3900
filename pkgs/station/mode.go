package station

// Mode is the command controller's top-level state.
type Mode int

const (
	ModeOff Mode = iota
	ModeOps
	ModeSvc
)

func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "Off"
	case ModeOps:
		return "Ops"
	case ModeSvc:
		return "Svc"
	default:
		return "Unknown"
	}
}

// SvcState is the Service sub-state, meaningful only while Mode == ModeSvc.
type SvcState int

const (
	SvcNone SvcState = iota
	SvcWriteCv
	SvcWriteBit
	SvcReadCv
	SvcReadBit
)

func (s SvcState) String() string {
	switch s {
	case SvcNone:
		return "None"
	case SvcWriteCv:
		return "WriteCv"
	case SvcWriteBit:
		return "WriteBit"
	case SvcReadCv:
		return "ReadCv"
	case SvcReadBit:
		return "ReadBit"
	default:
		return "Unknown"
	}
}
