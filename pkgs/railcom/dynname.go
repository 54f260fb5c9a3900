package railcom

// DynID identifies a RailCom dynamic variable reported in a Dyn message.
type DynID int

const (
	DynSpeed1 DynID = 0
	DynSpeed2 DynID = 1
	DynFlag   DynID = 5
	DynInput  DynID = 6
	DynStats  DynID = 7
	DynCont1  DynID = 8
	DynCont12 DynID = 19
	DynAddress DynID = 20
	DynStatus  DynID = 21
	DynOdom    DynID = 22
	DynTime    DynID = 23
	DynMax     DynID = 64
	DynInv     DynID = 255
)

var dynNames = [DynMax]string{
	"SPD", "SPD2", "ID2", "ID3", "ID4", "ID5", "INPUT", "STATS", // 0..7
	"CONT1", "CONT2", "CONT3", "CONT4", "CONT5", "CONT6", "CONT7", "CONT8", // 8..15
	"CONT9", "CONT10", "CONT11", "CONT12", "ADRS", "STATUS", "ODOM", "ID23", // 16..23
	"ID24", "ID25", "ID26", "ID27", "ID28", "ID29", "ID30", "ID31", // 24..31
	"ID32", "ID33", "ID34", "ID35", "ID36", "ID37", "ID38", "ID39", // 32..39
	"ID40", "ID41", "ID42", "ID43", "ID44", "ID45", "ID46", "ID47", // 40..47
	"ID48", "ID49", "ID50", "ID51", "ID52", "ID53", "ID54", "ID55", // 48..55
	"ID56", "ID57", "ID58", "ID59", "ID60", "ID61", "ID62", "ID63", // 56..63
}

// DynName returns the dynamic variable's name, or "?" if id is out of
// range.
func DynName(id DynID) string {
	if id < 0 || id >= DynMax {
		return "?"
	}
	return dynNames[id]
}
