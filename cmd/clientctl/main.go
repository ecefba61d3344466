package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"
	config "github.com/maheshrc27/omni-publisher/configs"
	"github.com/maheshrc27/omni-publisher/internal/repository"
	"github.com/maheshrc27/omni-publisher/internal/service"
)

const usage = `usage:
  clientctl register -name NAME [-ttl DURATION]
  clientctl token -id ID [-ttl DURATION]
  clientctl list`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := repository.EnsureSchema(db); err != nil {
		log.Fatalf("Failed to prepare database schema: %v", err)
	}

	clients := service.NewClientService(repository.NewClientRepository(db), cfg.SecretKey)
	ctx := context.Background()

	fs := flag.NewFlagSet(os.Args[1], flag.ExitOnError)
	name := fs.String("name", "", "client name")
	id := fs.Int64("id", 0, "client id")
	ttl := fs.Duration("ttl", 365*24*time.Hour, "token lifetime")
	_ = fs.Parse(os.Args[2:])

	switch os.Args[1] {
	case "register":
		client, token, err := clients.Register(ctx, *name, *ttl)
		if err != nil {
			log.Fatalf("Failed to register client: %v", err)
		}
		fmt.Printf("client %d (%s)\ntoken: %s\n", client.ID, client.Name, token)

	case "token":
		token, err := clients.IssueToken(ctx, *id, *ttl)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(token)

	case "list":
		list, err := clients.List(ctx)
		if err != nil {
			log.Fatalf("Failed to list clients: %v", err)
		}
		for _, c := range list {
			fmt.Printf("%d\t%s\t%s\n", c.ID, c.Name, c.CreatedAt.Format(time.RFC3339))
		}

	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
}
