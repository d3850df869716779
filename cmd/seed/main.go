// Command main seeds a demo relationship graph.
package main

import (
	"context"
	"flag"
	"log"

	"socialgraph/internal/cache"
	"socialgraph/internal/config"
	"socialgraph/internal/database"
	"socialgraph/internal/seed"
)

func main() {
	users := flag.Int("users", 50, "Number of user IDs in the mesh")
	follows := flag.Int("follows", 5, "Follows created per user")
	requests := flag.Int("requests", 3, "Friend requests sent per user")
	randSeed := flag.Int64("seed", 0, "Random seed (0 = time based)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	// Accepted requests drop cached friend lists when Redis is configured.
	rdb := cache.Connect(ctx, cfg.RedisURL)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	sum, err := seed.SocialMesh(ctx, seed.NewServices(db, cache.NewStore(rdb, "friends")), seed.Options{
		Users:           *users,
		FollowsPerUser:  *follows,
		RequestsPerUser: *requests,
		RandSeed:        *randSeed,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d follows and %d friend requests (%d accepted, %d rejected, %d viewed)",
		sum.Follows, sum.Requests, sum.Accepted, sum.Rejected, sum.Viewed)
}
