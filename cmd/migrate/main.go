package main

import (
	"context"
	"flag"
	"log"
	"os"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/migrate"
	orderrepo "storefront/internal/repository/order"
)

func main() {
	down := flag.Int("down", 0, "roll back this many migrations instead of applying")
	flag.Parse()

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if *down > 0 {
		if err := migrate.Rollback(ctx, pool, *down); err != nil {
			logger.Fatalf("rollback migrations: %v", err)
		}
		logger.Printf("rolled back %d migration(s)", *down)
	} else {
		if err := migrate.Apply(ctx, pool); err != nil {
			logger.Fatalf("apply migrations: %v", err)
		}
		logger.Println("migrations applied")
	}

	if version, dirty, err := migrate.Version(ctx, pool); err == nil {
		logger.Printf("schema version=%d dirty=%t", version, dirty)
	}

	if cfg.OrderStore == "mongo" {
		mdb, err := db.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			logger.Fatalf("connect mongo: %v", err)
		}
		defer mdb.Client().Disconnect(ctx)
		if err := orderrepo.EnsureIndexes(ctx, mdb); err != nil {
			logger.Fatalf("ensure order indexes: %v", err)
		}
		logger.Println("mongo order indexes ensured")
	}
}
