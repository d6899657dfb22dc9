// accountctl provisions and maintains game accounts. The game server never
// writes credentials, so this is the only path that touches salt/verifier.
//
// Usage:
//
//	go run ./cmd/accountctl <command> [flags]
//
// Commands: create, passwd
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wsgo/server/internal/auth"
	"github.com/wsgo/server/internal/config"
	"github.com/wsgo/server/internal/persist"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	configPath := fs.String("config", "config/server.toml", "server config (for the database DSN)")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(os.Args[2:])

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "accountctl: -email and -password are required")
		os.Exit(2)
	}

	if err := run(cmd, *configPath, strings.ToLower(*email), *password); err != nil {
		fmt.Fprintf(os.Stderr, "accountctl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: accountctl <create|passwd> -email EMAIL -password PASSWORD [-config PATH]`)
}

func run(cmd, configPath, email, password string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := zap.NewNop()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	repo := persist.NewAccountRepo(db)

	salt, err := auth.NewSalt()
	if err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}
	verifier := auth.GenerateVerifier(email, password, salt)

	switch cmd {
	case "create":
		existing, err := repo.ByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("account %s already exists", email)
		}
		id, err := repo.Create(ctx, email, salt, verifier)
		if err != nil {
			return err
		}
		fmt.Printf("帳號建立完成: %s (id %d)\n", email, id)
		return nil

	case "passwd":
		existing, err := repo.ByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("account %s not found", email)
		}
		if err := repo.UpdateVerifier(ctx, existing.AccountID, salt, verifier); err != nil {
			return err
		}
		// Invalidate any session minted with the old credentials.
		if err := repo.DeleteSession(ctx, existing.AccountID); err != nil {
			return err
		}
		fmt.Printf("密碼已更新: %s\n", email)
		return nil

	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}
