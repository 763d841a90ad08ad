package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tribalbot/bot/cache"
	"tribalbot/bot/commands"
	"tribalbot/bot/controllers"
	"tribalbot/bot/database"
	"tribalbot/bot/events"
	"tribalbot/bot/handlers"
	"tribalbot/bot/metrics"
	"tribalbot/bot/store"
	"tribalbot/bot/tasks"
	"tribalbot/config"

	"github.com/bwmarrin/discordgo"
)

var (
	REGISTER_COMMANDS = flag.Bool("register-commands", true, "True by default (useful in development)")
	TESTING           = flag.Bool("testing", false, "Load the .env file before reading the environment")
)

func init() { flag.Parse() }

func newCache(cfg *config.Config) *cache.Cache {
	if cfg.RedisURL == "" {
		return cache.New(cache.NewMemoryStore(cfg.AutocompleteTTL))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Printf("Could not connect to redis, using the in-memory cache: %v", err)
		return cache.New(cache.NewMemoryStore(cfg.AutocompleteTTL))
	}

	log.Println("Connected to redis.")

	return cache.New(cache.NewRedisStore(client, cfg.AutocompleteTTL))
}

func main() {
	cfg, err := config.Load(*TESTING)
	if err != nil {
		log.Fatalf("Could not load configuration: %v", err)
	}

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}

	ctrl := controllers.New(store.New(db))
	autocomplete := newCache(cfg)
	defer autocomplete.Close()

	s, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		log.Fatalf("Invalid bot parameters: %v", err)
	}
	s.Identify.Intents |= discordgo.IntentGuildMembers

	s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Printf("Logged in as: %v#%v", s.State.User.Username, s.State.User.Discriminator)
	})
	s.AddHandler(handlers.InteractionCreateHandler(ctrl, autocomplete))
	s.AddHandler(events.GuildMemberRemoveHandler(ctrl, autocomplete))
	s.AddHandler(events.GuildDeleteHandler(ctrl, autocomplete))

	if err := s.Open(); err != nil {
		log.Fatalf("Cannot open the session: %v", err)
	}
	defer s.Close()

	var registeredCommands []*discordgo.ApplicationCommand
	if *REGISTER_COMMANDS {
		log.Println("Adding commands...")

		registeredCommands, err = s.ApplicationCommandBulkOverwrite(s.State.User.ID, cfg.GuildID, commands.Commands)
		if err != nil {
			log.Panicf("Cannot register commands: %v", err)
		}
	}

	scheduler, err := tasks.NewScheduler(cfg, ctrl, s, autocomplete, events.MonitorDepartures(ctrl, autocomplete))
	if err != nil {
		log.Fatalf("Cannot schedule tasks: %v", err)
	}
	scheduler.StartAsync()
	defer scheduler.Stop()

	if cfg.MetricsAddr != "" {
		server := metrics.Serve(cfg.MetricsAddr)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(ctx)
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	log.Println("Press Ctrl+C to exit")
	<-stop

	if cfg.CleanCommandsAfterShutdown {
		log.Println("Removing commands...")

		for _, command := range registeredCommands {
			if err := s.ApplicationCommandDelete(s.State.User.ID, cfg.GuildID, command.ID); err != nil {
				log.Printf("Cannot delete '%v' command: %v", command.Name, err)
			}
		}
	}

	log.Println("Gracefully shutting down.")
}
