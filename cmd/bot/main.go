package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/systemcmd0122/developer-bot/backend"
	"github.com/systemcmd0122/developer-bot/config"
	"github.com/systemcmd0122/developer-bot/discord"
	"github.com/systemcmd0122/developer-bot/gemini"
	"github.com/systemcmd0122/developer-bot/health"
	"github.com/systemcmd0122/developer-bot/instrumentation"
	"github.com/systemcmd0122/developer-bot/registry"
	sessionstore "github.com/systemcmd0122/developer-bot/session"
	"github.com/systemcmd0122/developer-bot/valorant"
	"github.com/systemcmd0122/developer-bot/version"
)

var (
	configPath   string
	printVersion bool
)

func main() {
	flag.StringVar(&configPath, "config", "config.yaml", "Path to config")
	flag.BoolVar(&printVersion, "version", false, "Print version and exit")
	flag.Parse()

	if printVersion {
		version.Print()
		return
	}

	rootCtx := context.Background()

	err := config.Read(configPath)
	if err != nil {
		slog.Error("failed to read config", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if config.Get().Verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	l := slog.New(h).With("version", config.Get().Version)
	slog.SetDefault(l)

	shutdownFns, err := instrumentation.Init(rootCtx)
	if err != nil {
		slog.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownFns(rootCtx); err != nil {
			slog.Error("failed to shut down tracer cleanly", "error", err)
		}
	}()

	engine, err := backend.Backend()
	if err != nil {
		slog.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}

	reg := registry.New(engine)
	if err := reg.Load(rootCtx); err != nil {
		slog.Error("failed to load interaction registry", "error", err)
		os.Exit(1)
	}

	sessions := sessionstore.New(time.Duration(config.Get().Session.TimeoutSeconds) * time.Second)

	var gem *gemini.Client
	if key := config.Get().Gemini.APIKey; key != "" {
		gem = gemini.New(key, config.Get().Gemini.BaseURL, config.Get().Gemini.Model)
	} else {
		slog.Warn("gemini api key missing, ai chat disabled")
	}

	var val *valorant.Client
	if key := config.Get().Valorant.APIKey; key != "" {
		val = valorant.New(key, config.Get().Valorant.BaseURL)
	} else {
		slog.Warn("valorant api key missing, stats lookup disabled")
	}

	discord.Init()
	session, err := discordgo.New("Bot " + config.Get().Discord.Token)
	if err != nil {
		slog.Error("failed to create discord session", "error", err)
		os.Exit(1)
	}

	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	handlers := discord.NewHandlers(reg, sessions, val, gem)

	registeredCommands := make(map[string]*discordgo.ApplicationCommand, 0)
	registeredHandlers := make(map[string]func(), 0)

	registeredHandlers["HandleGuildCreate"] = session.AddHandler(discord.HandleGuildCreate)
	registeredHandlers["HandleGuildDelete"] = session.AddHandler(discord.HandleGuildDelete)
	registeredHandlers["HandleInteraction"] = session.AddHandler(handlers.HandleInteraction)

	commands := discord.Commands()
	guildID := config.Get().Discord.GuildID

	cmdWg := &sync.WaitGroup{}
	session.AddHandler(func(s *discordgo.Session, m *discordgo.Ready) {
		for _, cmd := range commands {
			cmdWg.Add(1)

			go func(c *discordgo.ApplicationCommand) {
				defer cmdWg.Done()

				if _, err := s.ApplicationCommandCreate(s.State.User.ID, guildID, c); err != nil {
					slog.Error("failed to register command", "command", c.Name, "error", err)
					return
				}

				opts := make([]string, 0, len(c.Options))
				for _, opt := range c.Options {
					opts = append(opts, fmt.Sprintf("%s - %s", opt.Name, opt.Type.String()))
				}
				slog.Info("registered command", "command", c.Name, "options", strings.Join(opts, ", "))
				registeredCommands[c.Name] = c
			}(cmd)
		}
	})

	defer func() {
		if session.State != nil && session.State.User != nil {
			for _, v := range registeredHandlers {
				v()
			}

			for _, v := range registeredCommands {
				err := session.ApplicationCommandDelete(session.State.User.ID, guildID, v.ID)
				if err != nil {
					slog.Error("failed to delete command", "command", v.Name, "error", err)
				}
			}
		}

		session.Close()
	}()

	if config.Get().Discord.Verbose {
		session.LogLevel = discordgo.LogDebug
	}

	if err := session.Open(); err != nil {
		slog.Error("failed to open discord session", "error", err)
		os.Exit(1)
	}

	slog.Info("waiting for commands to be registered")
	cmdWg.Wait()

	healthSrv := health.New(config.Get().Health.Port, func() bool {
		return session.DataReady
	})
	go func() {
		if err := healthSrv.Start(); err != nil {
			slog.Error("health server stopped", "error", err)
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := healthSrv.Shutdown(ctx); err != nil {
			slog.Error("failed to shut down health server", "error", err)
		}
	}()

	retention := time.Duration(config.Get().Registry.RetentionHours) * time.Hour
	sweepInterval := time.Duration(config.Get().Registry.SweepIntervalMinutes) * time.Minute

	slog.Debug("starting registry sweep", "interval", sweepInterval.String(), "retention", retention.String())
	tick := time.NewTicker(sweepInterval)
	go func() {
		for range tick.C {
			dropped, err := reg.Cleanup(rootCtx, retention)
			if err != nil {
				slog.Error("registry sweep failed", "error", err)
				continue
			}
			if dropped > 0 {
				slog.Info("registry sweep finished", "dropped", dropped)
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	tick.Stop()
	slog.Info("exiting")
}
