// Package main mints a bearer token for local testing against the ReadList API.
//
// Flags after "--" are passed to the server configuration loader, so the
// token is signed with the same key file the server uses.
//
// Usage:
//
//	go run ./cmd/devtoken -user usr-local -name Ada
//	go run ./cmd/devtoken -user usr-local -save -- -data-path ~/ReadList
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/listenupapp/readlist/internal/auth"
	"github.com/listenupapp/readlist/internal/config"
	"github.com/listenupapp/readlist/internal/domain"
	"github.com/listenupapp/readlist/internal/id"
	"github.com/listenupapp/readlist/internal/store/sqlite"
)

func main() {
	fs := flag.NewFlagSet("devtoken", flag.ExitOnError)
	userID := fs.String("user", "", "User ID to embed (default: a freshly generated usr- id)")
	name := fs.String("name", "", "Display name to embed")
	save := fs.Bool("save", false, "Also record the user in the database")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs.Args())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *userID == "" {
		*userID = id.MustGenerate("usr")
	}

	if err := os.MkdirAll(cfg.Data.BasePath, 0o750); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	key, err := auth.LoadOrGenerateKey(cfg.Data.KeyPath())
	if err != nil {
		log.Fatalf("Failed to load auth key: %v", err)
	}

	tokens, err := auth.NewTokenService(key, cfg.Auth.AccessTokenDuration)
	if err != nil {
		log.Fatalf("Failed to create token service: %v", err)
	}

	user := &domain.User{Syncable: domain.Syncable{ID: *userID}, DisplayName: *name}

	if *save {
		st, err := sqlite.Open(cfg.Data.DatabasePath(), nil)
		if err != nil {
			log.Fatalf("Failed to open store: %v", err)
		}
		defer st.Close()

		if err := st.UpsertUser(context.Background(), user); err != nil {
			log.Fatalf("Failed to save user: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Saved user %s to %s\n", user.ID, cfg.Data.DatabasePath())
	}

	token, err := tokens.GenerateAccessToken(user)
	if err != nil {
		log.Fatalf("Failed to mint token: %v", err)
	}

	fmt.Fprintf(os.Stderr, "User: %s (valid for %s)\n", user.ID, tokens.AccessTokenDuration())
	fmt.Println(token)
}
