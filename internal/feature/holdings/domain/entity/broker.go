// Package entity defines the holdings-import domain model: brokers, import
// transactions and the user's stock holdings.
package entity

// Broker is a stock broker supported for holdings import.
type Broker string

const (
	BrokerKite         Broker = "KITE"
	BrokerGroww        Broker = "GROWW"
	BrokerUpstox       Broker = "UPSTOX"
	BrokerFivePaisa    Broker = "FIVE_PAISA"
	BrokerAngelBroking Broker = "ANGEL_BROKING"
	BrokerDhan         Broker = "DHAN"
	BrokerFisdom       Broker = "FISDOM"
	BrokerIIFL         Broker = "IIFL"
	BrokerMotilal      Broker = "MOTILAL"
	BrokerTrustline    Broker = "TRUSTLINE"
)

// brokerByVendorCode maps the import vendor's lowercase broker codes onto
// our enum.
var brokerByVendorCode = map[string]Broker{
	"kite":         BrokerKite,
	"groww":        BrokerGroww,
	"upstox":       BrokerUpstox,
	"fivepaisa":    BrokerFivePaisa,
	"angelbroking": BrokerAngelBroking,
	"dhan":         BrokerDhan,
	"fisdom":       BrokerFisdom,
	"iifl":         BrokerIIFL,
	"motilal":      BrokerMotilal,
	"trustline":    BrokerTrustline,
}

// BrokerFromVendorCode resolves a vendor broker code (e.g. "fivepaisa").
func BrokerFromVendorCode(code string) (Broker, bool) {
	b, ok := brokerByVendorCode[code]
	return b, ok
}

// ParseBroker resolves a broker by enum name (e.g. "FIVE_PAISA").
func ParseBroker(name string) (Broker, bool) {
	switch Broker(name) {
	case BrokerKite, BrokerGroww, BrokerUpstox, BrokerFivePaisa, BrokerAngelBroking,
		BrokerDhan, BrokerFisdom, BrokerIIFL, BrokerMotilal, BrokerTrustline:
		return Broker(name), true
	default:
		return "", false
	}
}
