// Command arenabot connects headless players to an arena server for load
// and soak testing.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"arena/internal/client"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	}

	url := flag.String("url", envOr("ARENA_URL", "ws://localhost:3000/ws"), "websocket endpoint")
	room := flag.String("room", envOr("ARENA_ROOM", "room1"), "room to join")
	count := flag.Int("bots", 5, "number of bots")
	origin := flag.String("origin", os.Getenv("ARENA_ORIGIN"), "Origin header to send")
	stagger := flag.Duration("stagger", 200*time.Millisecond, "delay between bot connections")
	flag.Parse()

	log.Printf("🤖 Starting %d bots against %s (room %s)", *count, *url, *room)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for i := range *count {
		cfg := client.DefaultBotConfig(*url, *room, fmt.Sprintf("bot-%d", i+1))
		cfg.Origin = *origin
		cfg.Seed = time.Now().UnixNano() + int64(i)
		bot := client.NewBot(cfg)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := bot.Run(ctx); err != nil {
				log.Printf("❌ %v", err)
			}
		}()

		select {
		case <-ctx.Done():
		case <-time.After(*stagger):
		}
	}

	<-ctx.Done()
	log.Println("🛑 Stopping bots...")
	wg.Wait()
	log.Println("👋 Goodbye!")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
