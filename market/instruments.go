// market/instruments.go
package market

// InstrumentMeta describes one tradable instrument in the catalog.
// IDs are stable keys; everything else is display metadata plus the
// seed price used before any quote update arrives.
type InstrumentMeta struct {
	ID        string
	Symbol    string
	Name      string
	SeedPrice float64
}

var Instruments = map[string]InstrumentMeta{
	"bitcoin": {
		ID:        "bitcoin",
		Symbol:    "BTC",
		Name:      "Bitcoin",
		SeedPrice: 65000,
	},
	"ethereum": {
		ID:        "ethereum",
		Symbol:    "ETH",
		Name:      "Ethereum",
		SeedPrice: 3450,
	},
	"solana": {
		ID:        "solana",
		Symbol:    "SOL",
		Name:      "Solana",
		SeedPrice: 152,
	},
	"cardano": {
		ID:        "cardano",
		Symbol:    "ADA",
		Name:      "Cardano",
		SeedPrice: 0.45,
	},
	"ripple": {
		ID:        "ripple",
		Symbol:    "XRP",
		Name:      "XRP",
		SeedPrice: 0.62,
	},
	"dogecoin": {
		ID:        "dogecoin",
		Symbol:    "DOGE",
		Name:      "Dogecoin",
		SeedPrice: 0.14,
	},
}

// IDs returns the catalog keys in no particular order.
func IDs() []string {
	out := make([]string, 0, len(Instruments))
	for id := range Instruments {
		out = append(out, id)
	}
	return out
}
