package generator

// Config drives the synthetic data generator.
type Config struct {
	NumUsers           int
	NumTransactions    int
	EmailShareChance   float64
	PhoneShareChance   float64
	AddressShareChance float64
	PaymentShareChance float64
	IPShareChance      float64
	DeviceShareChance  float64
	SharedEmailPool    int
	SharedPhonePool    int
	SharedAddressPool  int
	SharedPaymentPool  int
	SharedIPPool       int
	SharedDevicePool   int
	Seed               int64
}

// DefaultConfig returns baseline settings that produce a dataset with enough
// attribute sharing to make the relationship graph interesting.
func DefaultConfig() Config {
	return Config{
		NumUsers:           510,
		NumTransactions:    100000,
		EmailShareChance:   0.30,
		PhoneShareChance:   0.25,
		AddressShareChance: 0.20,
		PaymentShareChance: 0.20,
		IPShareChance:      0.15,
		DeviceShareChance:  0.10,
		SharedEmailPool:    20,
		SharedPhonePool:    20,
		SharedAddressPool:  15,
		SharedPaymentPool:  15,
		SharedIPPool:       50,
		SharedDevicePool:   50,
		Seed:               42,
	}
}
