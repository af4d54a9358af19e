package flags

// Bit indices of item flags.
const (
	ItemInvisible uint = iota
)

// Bit indices of transaction flags.
const (
	TransactionRemoved uint = iota
)

// ItemTable names the item flags.
var ItemTable = Table{
	"invisible": ItemInvisible,
}

// TransactionTable names the transaction flags.
var TransactionTable = Table{
	"removed": TransactionRemoved,
}

// ItemFlags is the decoded form of an item bitfield.
type ItemFlags struct {
	Invisible bool `json:"invisible"`
}

// ItemFlagsFrom decodes an item bitfield.
func ItemFlagsFrom(bits *int64) ItemFlags {
	return ItemFlags{Invisible: Decode(bits, ItemTable)["invisible"]}
}

// TransactionFlags is the decoded form of a transaction bitfield.
type TransactionFlags struct {
	Removed bool `json:"removed"`
}

// TransactionFlagsFrom decodes a transaction bitfield.
func TransactionFlagsFrom(bits *int64) TransactionFlags {
	return TransactionFlags{Removed: Decode(bits, TransactionTable)["removed"]}
}
