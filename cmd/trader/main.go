package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/vistara-dev/agentipy/internal/config"
	"github.com/vistara-dev/agentipy/internal/logger"
	"github.com/vistara-dev/agentipy/internal/solclient"
	"github.com/vistara-dev/agentipy/internal/submit"
	"github.com/vistara-dev/agentipy/internal/trade"
	"github.com/vistara-dev/agentipy/internal/wallet"
)

const usage = `usage: trader -config <path> <command> [args]

commands:
  buy <mint> <lamports>        buy a bonding-curve token with lamports
  sell <mint> [tokens]         sell tokens back to the curve (all if omitted)
  cleanup <account> [...]      burn balances and close token accounts
`

func main() {
	configPath := flag.String("config", "configs/config.json", "path to config file")
	slippage := flag.Uint64("slippage", 0, "slippage tolerance in basis points (0 = config default)")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.LogLevel,
		LogFile:    cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: 7,
		Compress:   true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, *slippage, flag.Args()); err != nil {
		log.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, slippageBps uint64, args []string) error {
	w, err := wallet.New(cfg.PrivateKey)
	if err != nil {
		return err
	}
	client := solclient.New(cfg.RPCURL, rpc.CommitmentType(cfg.Commitment), log)
	submitter := submit.New(client, w, submit.Config{
		ComputeUnitLimit:    cfg.ComputeUnitLimit,
		ComputeUnitPrice:    cfg.ComputeUnitPrice,
		PollInterval:        cfg.PollInterval(),
		MaxPollAttempts:     cfg.MaxPollAttempts,
		BroadcastMaxElapsed: cfg.BroadcastTimeout(),
	}, log, nil)
	svc := trade.NewService(client, w, submitter, trade.Options{
		DefaultSlippageBps: cfg.DefaultSlippageBps,
		AmmFeeBps:          cfg.AmmFeeBps,
		CurveFeeBps:        cfg.CurveFeeBps,
	}, log)

	if slippageBps == 0 {
		slippageBps = svc.DefaultSlippageBps()
	}

	command, args := args[0], args[1:]
	log = logger.WithOperation(log, command)
	log.Info("trader ready", zap.String("wallet", w.PublicKey.String()))
	switch command {
	case "buy":
		if len(args) != 2 {
			return errors.New("buy requires <mint> <lamports>")
		}
		mint, err := solana.PublicKeyFromBase58(args[0])
		if err != nil {
			return fmt.Errorf("mint: %w", err)
		}
		lamports, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("lamports: %w", err)
		}
		receipt, err := svc.BuyOnCurve(ctx, mint, lamports, slippageBps)
		report(log, receipt)
		return err

	case "sell":
		if len(args) < 1 || len(args) > 2 {
			return errors.New("sell requires <mint> [tokens]")
		}
		mint, err := solana.PublicKeyFromBase58(args[0])
		if err != nil {
			return fmt.Errorf("mint: %w", err)
		}
		var tokens uint64
		if len(args) == 2 {
			tokens, err = strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("tokens: %w", err)
			}
		}
		receipt, err := svc.SellOnCurve(ctx, mint, tokens, slippageBps)
		report(log, receipt)
		return err

	case "cleanup":
		if len(args) == 0 {
			return errors.New("cleanup requires at least one token account")
		}
		accounts := make([]solana.PublicKey, 0, len(args))
		for _, raw := range args {
			pk, err := solana.PublicKeyFromBase58(raw)
			if err != nil {
				return fmt.Errorf("token account %q: %w", raw, err)
			}
			accounts = append(accounts, pk)
		}
		results, err := svc.BurnAndCloseAll(ctx, accounts)
		for _, r := range results {
			if r.Err != nil {
				log.Warn("cleanup failed",
					zap.String("account", r.TokenAccount.String()),
					zap.Error(r.Err))
				continue
			}
			report(log, r.Receipt)
		}
		return err

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func report(log *zap.Logger, receipt submit.Receipt) {
	fields := []zap.Field{
		zap.String("signature", receipt.Signature.String()),
		zap.String("status", string(receipt.Status)),
		zap.Int("attempts", receipt.Attempts),
	}
	if receipt.Slot != 0 {
		fields = append(fields, zap.Uint64("slot", receipt.Slot))
	}
	if receipt.Err != "" {
		fields = append(fields, zap.String("ledger_error", receipt.Err))
	}
	log.Info("submission finished", fields...)
}
