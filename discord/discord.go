package discord

import (
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/systemcmd0122/developer-bot/gemini"
	"github.com/systemcmd0122/developer-bot/registry"
	"github.com/systemcmd0122/developer-bot/session"
	"github.com/systemcmd0122/developer-bot/valorant"
)

var status *State

func Init() {
	status = &State{
		Guilds: make(map[string]Guild, 0),
	}
}

type State struct {
	mx     sync.RWMutex
	Guilds map[string]Guild
}

type Guild struct {
	ID       string
	Name     string
	Channels map[string]Channel
}

type Channel struct {
	ID      string
	GuildID string
	Name    string
	Kind    discordgo.ChannelType
}

func addGuild(g Guild) {
	status.mx.Lock()
	status.Guilds[g.ID] = g
	status.mx.Unlock()
}

func removeGuild(id string) {
	status.mx.Lock()
	delete(status.Guilds, id)
	status.mx.Unlock()
}

func guildChannels(id string) []Channel {
	status.mx.RLock()
	defer status.mx.RUnlock()

	g, ok := status.Guilds[id]
	if !ok {
		return nil
	}

	channels := make([]Channel, 0, len(g.Channels))
	for _, c := range g.Channels {
		channels = append(channels, c)
	}
	return channels
}

// Handlers carries every dependency the command handlers need. One
// instance is built at startup and registered with the session.
type Handlers struct {
	Registry *registry.Registry
	Sessions *session.Store
	Valorant *valorant.Client
	Gemini   *gemini.Client
}

func NewHandlers(reg *registry.Registry, sessions *session.Store, val *valorant.Client, gem *gemini.Client) *Handlers {
	return &Handlers{
		Registry: reg,
		Sessions: sessions,
		Valorant: val,
		Gemini:   gem,
	}
}
