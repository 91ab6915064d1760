package generator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rachitv/framl/backend/internal/domain"
)

// Dataset contains the generated users and transactions.
type Dataset struct {
	Users        []domain.User        `json:"users"`
	Transactions []domain.Transaction `json:"transactions"`
}

// Generator produces synthetic Indian-locale graph data. A portion of users
// share emails, phones, addresses and payment methods, and a portion of
// transactions share IPs and devices, so the derived graph contains the
// suspicious clusters the engine exists to surface.
type Generator struct {
	cfg   Config
	rand  *rand.Rand
	pools attributePools
}

type attributePools struct {
	emails    []string
	phones    []string
	addresses []string
	payments  []string
	ips       []string
	devices   []string
	ipSet     map[string]struct{}
	deviceSet map[string]struct{}
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumUsers <= 0 {
		cfg.NumUsers = def.NumUsers
	}
	if cfg.NumTransactions <= 0 {
		cfg.NumTransactions = def.NumTransactions
	}
	if cfg.EmailShareChance <= 0 {
		cfg.EmailShareChance = def.EmailShareChance
	}
	if cfg.PhoneShareChance <= 0 {
		cfg.PhoneShareChance = def.PhoneShareChance
	}
	if cfg.AddressShareChance <= 0 {
		cfg.AddressShareChance = def.AddressShareChance
	}
	if cfg.PaymentShareChance <= 0 {
		cfg.PaymentShareChance = def.PaymentShareChance
	}
	if cfg.IPShareChance <= 0 {
		cfg.IPShareChance = def.IPShareChance
	}
	if cfg.DeviceShareChance <= 0 {
		cfg.DeviceShareChance = def.DeviceShareChance
	}
	if cfg.SharedEmailPool <= 0 {
		cfg.SharedEmailPool = def.SharedEmailPool
	}
	if cfg.SharedPhonePool <= 0 {
		cfg.SharedPhonePool = def.SharedPhonePool
	}
	if cfg.SharedAddressPool <= 0 {
		cfg.SharedAddressPool = def.SharedAddressPool
	}
	if cfg.SharedPaymentPool <= 0 {
		cfg.SharedPaymentPool = def.SharedPaymentPool
	}
	if cfg.SharedIPPool <= 0 {
		cfg.SharedIPPool = def.SharedIPPool
	}
	if cfg.SharedDevicePool <= 0 {
		cfg.SharedDevicePool = def.SharedDevicePool
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	g := &Generator{
		cfg:  cfg,
		rand: rand.New(rand.NewSource(cfg.Seed)),
	}
	g.fillPools()
	return g
}

func (g *Generator) fillPools() {
	g.pools.ipSet = make(map[string]struct{}, g.cfg.SharedIPPool)
	g.pools.deviceSet = make(map[string]struct{}, g.cfg.SharedDevicePool)

	for i := 0; i < g.cfg.SharedEmailPool; i++ {
		g.pools.emails = append(g.pools.emails, g.randomEmail())
	}
	for i := 0; i < g.cfg.SharedPhonePool; i++ {
		g.pools.phones = append(g.pools.phones, g.randomPhone())
	}
	for i := 0; i < g.cfg.SharedAddressPool; i++ {
		g.pools.addresses = append(g.pools.addresses, g.randomAddress())
	}
	for i := 0; i < g.cfg.SharedPaymentPool; i++ {
		g.pools.payments = append(g.pools.payments, g.randomPaymentMethod())
	}
	for i := 0; i < g.cfg.SharedIPPool; i++ {
		ip := g.randomIP()
		g.pools.ips = append(g.pools.ips, ip)
		g.pools.ipSet[ip] = struct{}{}
	}
	for i := 0; i < g.cfg.SharedDevicePool; i++ {
		device := g.randomDeviceID()
		g.pools.devices = append(g.pools.devices, device)
		g.pools.deviceSet[device] = struct{}{}
	}
}

// Generate synthesises users and transactions. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	users := make([]domain.User, g.cfg.NumUsers)
	for i := 0; i < g.cfg.NumUsers; i++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		users[i] = domain.User{
			ID:            fmt.Sprintf("U-%05d", i+1),
			Name:          g.randomName(),
			Email:         g.maybeShared(g.pools.emails, g.cfg.EmailShareChance, g.randomEmail),
			Phone:         g.maybeShared(g.pools.phones, g.cfg.PhoneShareChance, g.randomPhone),
			Address:       g.maybeShared(g.pools.addresses, g.cfg.AddressShareChance, g.randomAddress),
			PaymentMethod: g.maybeShared(g.pools.payments, g.cfg.PaymentShareChance, g.randomPaymentMethod),
		}
	}

	start := time.Now().UTC().Add(-365 * 24 * time.Hour)
	transactions := make([]domain.Transaction, g.cfg.NumTransactions)
	for i := 0; i < g.cfg.NumTransactions; i++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}

		senderIdx := g.rand.Intn(len(users))
		receiverIdx := g.rand.Intn(len(users))
		if senderIdx == receiverIdx {
			receiverIdx = (receiverIdx + 1) % len(users)
		}

		ip := g.maybeShared(g.pools.ips, g.cfg.IPShareChance, g.randomIP)
		device := g.maybeShared(g.pools.devices, g.cfg.DeviceShareChance, g.randomDeviceID)

		// Rupee amounts from ₹500 up to ₹50 lakh.
		amount := round2(g.rand.Float64()*(5000000-500) + 500)
		risk := g.riskScore(ip, device, amount)

		transactions[i] = domain.Transaction{
			ID:         fmt.Sprintf("TX-%06d", i+1),
			SenderID:   users[senderIdx].ID,
			ReceiverID: users[receiverIdx].ID,
			Amount:     amount,
			Currency:   domain.DefaultCurrency,
			Timestamp:  start.Add(time.Duration(g.rand.Intn(365*24*3600)) * time.Second),
			IPAddress:  ip,
			DeviceID:   device,
			Status:     statusForRisk(risk),
			RiskScore:  risk,
		}
	}

	return Dataset{Users: users, Transactions: transactions}, nil
}

func (g *Generator) riskScore(ip, device string, amount float64) float64 {
	risk := 0.05
	if _, shared := g.pools.ipSet[ip]; shared {
		risk += 0.4
	}
	if _, shared := g.pools.deviceSet[device]; shared {
		risk += 0.3
	}
	if amount > 1000000 {
		risk += 0.2
	}
	return round2(math.Min(risk, 1.0))
}

func statusForRisk(risk float64) string {
	switch {
	case risk > 0.7:
		return domain.StatusFlagged
	case risk > 0.4:
		return domain.StatusReview
	default:
		return domain.StatusClear
	}
}

func (g *Generator) maybeShared(pool []string, chance float64, newValue func() string) string {
	if len(pool) > 0 && g.rand.Float64() < chance {
		return pool[g.rand.Intn(len(pool))]
	}
	return newValue()
}

func (g *Generator) randomName() string {
	return fmt.Sprintf("%s %s",
		firstNames[g.rand.Intn(len(firstNames))],
		lastNames[g.rand.Intn(len(lastNames))])
}

func (g *Generator) randomEmail() string {
	return fmt.Sprintf("%s.%s%d@%s",
		strings.ToLower(firstNames[g.rand.Intn(len(firstNames))]),
		strings.ToLower(lastNames[g.rand.Intn(len(lastNames))]),
		g.rand.Intn(1000),
		emailDomains[g.rand.Intn(len(emailDomains))])
}

// randomPhone yields an Indian mobile number formatted +91-XXXXX-XXXXX.
func (g *Generator) randomPhone() string {
	first := []byte{'6', '7', '8', '9'}[g.rand.Intn(4)]
	rest := g.rand.Intn(1000000000)
	number := fmt.Sprintf("%c%09d", first, rest)
	return fmt.Sprintf("+91-%s-%s", number[:5], number[5:])
}

func (g *Generator) randomAddress() string {
	return fmt.Sprintf("%s No. %d, %s, %s - %03d%03d",
		buildingKinds[g.rand.Intn(len(buildingKinds))],
		g.rand.Intn(999)+1,
		streets[g.rand.Intn(len(streets))],
		cities[g.rand.Intn(len(cities))],
		g.rand.Intn(900)+100,
		g.rand.Intn(900)+100)
}

func (g *Generator) randomPaymentMethod() string {
	return fmt.Sprintf("card_%04d", g.rand.Intn(9000)+1000)
}

func (g *Generator) randomIP() string {
	return fmt.Sprintf("%d.%d.%d.%d",
		g.rand.Intn(223)+1, g.rand.Intn(256), g.rand.Intn(256), g.rand.Intn(256))
}

// randomDeviceID draws UUID bytes from the seeded source so datasets stay
// reproducible per seed.
func (g *Generator) randomDeviceID() string {
	id, err := uuid.NewRandomFromReader(g.rand)
	if err != nil {
		id = uuid.New()
	}
	return id.String()[:8]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var firstNames = []string{
	"Aarav", "Vivaan", "Aditya", "Arjun", "Reyansh", "Ishaan", "Kabir",
	"Ananya", "Diya", "Saanvi", "Aadhya", "Kiara", "Priya", "Meera",
	"Rohan", "Karan", "Nikhil", "Pooja", "Sneha", "Rahul",
}

var lastNames = []string{
	"Sharma", "Verma", "Patel", "Reddy", "Nair", "Iyer", "Gupta",
	"Singh", "Mehta", "Joshi", "Desai", "Kulkarni", "Banerjee", "Das",
}

var emailDomains = []string{
	"example.com", "mail.com", "framl.io", "payments.net", "securepay.org",
}

var buildingKinds = []string{"Flat", "House", "Shop", "Plot", "Block"}

var streets = []string{
	"MG Road", "Linking Road", "Brigade Road", "Anna Salai",
	"Park Street", "SV Road", "Nehru Nagar", "Gandhi Colony",
	"Sector 18", "Model Town", "Vasant Vihar", "Koramangala",
	"Andheri West", "Bandra East", "Whitefield", "Indiranagar",
	"Juhu Beach Road", "Connaught Place", "Karol Bagh", "Lajpat Nagar",
}

var cities = []string{
	"Mumbai, Maharashtra", "Delhi, Delhi", "Bengaluru, Karnataka",
	"Hyderabad, Telangana", "Chennai, Tamil Nadu", "Kolkata, West Bengal",
	"Pune, Maharashtra", "Ahmedabad, Gujarat", "Jaipur, Rajasthan",
	"Surat, Gujarat", "Lucknow, Uttar Pradesh", "Kanpur, Uttar Pradesh",
	"Nagpur, Maharashtra", "Indore, Madhya Pradesh", "Thane, Maharashtra",
	"Bhopal, Madhya Pradesh", "Visakhapatnam, Andhra Pradesh", "Patna, Bihar",
	"Vadodara, Gujarat", "Ghaziabad, Uttar Pradesh",
}
