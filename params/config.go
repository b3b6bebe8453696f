package params

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Node struct {
	// AdminAddress is the only account allowed to register tokens.
	// The registry receives it at construction; there is no ambient admin.
	AdminAddress string

	// ExchangeAddress is the custody account on the external asset
	// ledger. Deposits pull into it, withdrawals push out of it.
	ExchangeAddress string

	QuoteSymbol string
	DBPath      string
	LogFile     string
}

type API struct {
	Addr string
}

type Devnet struct {
	// Enabled seeds the in-memory asset bank with SeedTokens and gives
	// every faucet call FaucetAmount units. Off in any real deployment.
	Enabled      bool
	SeedTokens   []string
	FaucetAmount int64
}

type Config struct {
	Node   Node
	API    API
	Devnet Devnet
}

func Default() Config {
	return Config{
		Node: Node{
			AdminAddress:    "0x0000000000000000000000000000000000000001",
			ExchangeAddress: "0x00000000000000000000000000000000000d0e0c",
			QuoteSymbol:     "DAI",
			DBPath:          "data/dex",
			LogFile:         "data/dex.log",
		},
		API: API{
			Addr: ":8080",
		},
		Devnet: Devnet{
			Enabled:      true,
			SeedTokens:   []string{"DAI", "BAT", "REP", "ZRX"},
			FaucetAmount: 1000,
		},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	// Try to load .env file (optional - won't fail if not exists)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // loads .env from current directory
	}

	cfg.Node.AdminAddress = getEnv("ADMIN_ADDRESS", cfg.Node.AdminAddress)
	cfg.Node.ExchangeAddress = getEnv("EXCHANGE_ADDRESS", cfg.Node.ExchangeAddress)
	cfg.Node.QuoteSymbol = getEnv("QUOTE_SYMBOL", cfg.Node.QuoteSymbol)
	cfg.Node.DBPath = getEnv("DB_PATH", cfg.Node.DBPath)
	cfg.Node.LogFile = getEnv("LOG_FILE", cfg.Node.LogFile)
	cfg.API.Addr = getEnv("API_ADDR", cfg.API.Addr)

	if devnet := os.Getenv("DEVNET"); devnet != "" {
		cfg.Devnet.Enabled = devnet == "true"
	}

	// Seed tokens from comma-separated list, e.g. "DAI,BAT,REP,ZRX"
	if toks := os.Getenv("SEED_TOKENS"); toks != "" {
		cfg.Devnet.SeedTokens = strings.Split(toks, ",")
	}

	if amt := os.Getenv("FAUCET_AMOUNT"); amt != "" {
		if n, err := strconv.ParseInt(amt, 10, 64); err == nil && n > 0 {
			cfg.Devnet.FaucetAmount = n
		}
	}

	return cfg
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
