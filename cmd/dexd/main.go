package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Shivam78288/Orderbook-Based-DEX/params"
	"github.com/Shivam78288/Orderbook-Based-DEX/pkg/api"
	"github.com/Shivam78288/Orderbook-Based-DEX/pkg/asset"
	"github.com/Shivam78288/Orderbook-Based-DEX/pkg/dex/engine"
	"github.com/Shivam78288/Orderbook-Based-DEX/pkg/dex/ledger"
	"github.com/Shivam78288/Orderbook-Based-DEX/pkg/dex/store"
	"github.com/Shivam78288/Orderbook-Based-DEX/pkg/dex/token"
	"github.com/Shivam78288/Orderbook-Based-DEX/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("")

	// Setup logging (write to both console and file)
	logger, err := util.NewLoggerWithFile(cfg.Node.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.Node.LogFile)

	admin := common.HexToAddress(cfg.Node.AdminAddress)
	exchangeAddr := common.HexToAddress(cfg.Node.ExchangeAddress)

	// ---- Persistence ----
	st, err := store.Open(cfg.Node.DBPath)
	if err != nil {
		sugar.Fatalw("store_open_failed", "path", cfg.Node.DBPath, "err", err)
	}
	defer st.Close()

	// ---- External asset ledger ----
	// The in-process bank stands in for the chain the real tokens live
	// on. A deployment against real contracts swaps this for an
	// implementation of ledger.AssetBackend backed by RPC.
	bank := asset.NewBank()

	// ---- Exchange core ----
	registry := token.NewRegistry(admin)
	led := ledger.New(exchangeAddr, bank, st, sugar)

	recs, err := st.LoadBalances()
	if err != nil {
		sugar.Fatalw("balance_load_failed", "err", err)
	}
	led.Load(recs)

	ex := engine.New(cfg.Node.QuoteSymbol, registry, led, st, sugar)
	if err := ex.Restore(); err != nil {
		sugar.Fatalw("book_restore_failed", "err", err)
	}

	// ---- Devnet seeding ----
	// Issue the configured tokens on the bank, register them, and fund
	// the admin so a demo deposit works out of the box.
	if cfg.Devnet.Enabled {
		for _, sym := range cfg.Devnet.SeedTokens {
			handle := bank.Issue(token.Normalize(sym))
			if err := ex.RegisterToken(admin, sym, handle); err != nil {
				sugar.Fatalw("seed_token_failed", "symbol", sym, "err", err)
			}
			if err := bank.Faucet(handle, admin, cfg.Devnet.FaucetAmount); err != nil {
				sugar.Fatalw("faucet_failed", "symbol", sym, "err", err)
			}
			if err := bank.Approve(handle, admin, exchangeAddr, cfg.Devnet.FaucetAmount); err != nil {
				sugar.Fatalw("approve_failed", "symbol", sym, "err", err)
			}
		}
		sugar.Infow("devnet_seeded",
			"tokens", cfg.Devnet.SeedTokens,
			"faucet_amount", cfg.Devnet.FaucetAmount,
			"quote", ex.Quote())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- API Server ----
	apiServer := api.NewServer(ex)
	go func() {
		sugar.Infow("api_server_starting", "addr", cfg.API.Addr)
		if err := apiServer.Start(cfg.API.Addr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	sugar.Infow("dexd_started",
		"admin", admin.Hex(),
		"exchange", exchangeAddr.Hex(),
		"quote", ex.Quote(),
		"db", cfg.Node.DBPath)

	<-ctx.Done()
	sugar.Info("shutting down")
}
