// Command blossom-authz evaluates one plan document against a session
// ledger mirror and prints the policy verdict as JSON.
//
// Exit codes: 0 allow, 1 deny, 2 fault (could not determine the answer).
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/blossom-labs/blossom/core/pkg/audit"
	"github.com/blossom-labs/blossom/core/pkg/config"
	"github.com/blossom-labs/blossom/core/pkg/plan"
	"github.com/blossom-labs/blossom/core/pkg/policy"
	"github.com/blossom-labs/blossom/core/pkg/risk"
	"github.com/blossom-labs/blossom/core/pkg/session"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		planPath  = flag.String("plan", "", "path to plan JSON document")
		sessionID = flag.String("session", "", "session id")
		userAddr  = flag.String("user", "", "user address")
		adapters  = flag.String("adapters", "", "comma-separated adapter allow-list")
	)
	flag.Parse()

	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if *planPath == "" || *sessionID == "" || *userAddr == "" {
		fmt.Fprintln(os.Stderr, "usage: blossom-authz -plan plan.json -session <id> -user <address> [-adapters 0x...,0x...]")
		return 2
	}

	raw, err := os.ReadFile(*planPath)
	if err != nil {
		logger.Error("plan read failed", "error", err)
		return 2
	}
	p, err := plan.ParseDocument(raw)
	if err != nil {
		printResult(&policy.Result{
			Allowed: false,
			Code:    policy.CodePlanInvalid,
			Message: err.Error(),
		})
		return 1
	}

	ledger, cleanup, err := openLedger(cfg)
	if err != nil {
		logger.Error("ledger open failed", "error", err)
		return 2
	}
	defer cleanup()

	limits := risk.DefaultLimits()
	if cfg.LimitsProfile != "" {
		limits, err = config.LoadLimitsProfile(cfg.LimitsProfile)
		if err != nil {
			logger.Error("limits profile load failed", "error", err)
			return 2
		}
	}

	gate := risk.NewPlanGate(limits, openStateStore(cfg), nil)

	evaluator := policy.New(ledger,
		policy.WithDomainGate(gate),
		policy.WithAuditor(audit.NewRecorderWithWriter(os.Stderr)),
		policy.WithLogger(logger),
	)

	res, err := evaluator.Evaluate(context.Background(), policy.Request{
		SessionID:       *sessionID,
		UserAddress:     *userAddr,
		Plan:            *p,
		AllowedAdapters: parseAdapters(*adapters),
	})
	if err != nil {
		logger.Error("evaluation fault", "error", err)
		return 2
	}

	printResult(res)
	if res.Allowed {
		return 0
	}
	return 1
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func openLedger(cfg *config.Config) (session.Ledger, func(), error) {
	switch cfg.LedgerBackend {
	case "memory":
		return session.NewMemoryLedger(), func() {}, nil
	case "sqlite":
		db, err := sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		ledger, err := session.NewSQLiteLedger(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return ledger, func() { db.Close() }, nil
	case "postgres":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		return session.NewPostgresLedger(db), func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
	}
}

func openStateStore(cfg *config.Config) risk.StateStore {
	if cfg.RedisAddr == "" {
		return risk.NewMemoryStateStore()
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return risk.NewRedisStateStore(client)
}

func parseAdapters(list string) map[string]bool {
	allowed := make(map[string]bool)
	for _, a := range strings.Split(list, ",") {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" {
			allowed[a] = true
		}
	}
	return allowed
}

func printResult(res *policy.Result) {
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal result: %v\n", err)
		return
	}
	fmt.Println(string(out))
}
