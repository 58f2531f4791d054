// Package bot: used to do the whole bot part
package bot

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"PiBot/adventure"
	"PiBot/api"
	"PiBot/config"
	"PiBot/logger"
	"PiBot/metrics"
	"PiBot/scheduler"
	"PiBot/storage"
	"PiBot/story"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// commandTimeout bounds the work done after a deferred response
const commandTimeout = 15 * time.Second

// ImageSource provides action GIF URLs (bite, kick, blush...)
type ImageSource interface {
	Name() string
	ActionImage(ctx context.Context, category string) (string, error)
}

// storyCatalog is what the bot needs from the story store besides loading
type storyCatalog interface {
	List(ctx context.Context) ([]string, error)
	ReadMedia(ctx context.Context, st *story.Story, ref string) ([]byte, error)
}

// interactionResponder is the subset of *discordgo.Session used by handlers
type interactionResponder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Bot represents the Discord bot
type Bot struct {
	session   *discordgo.Session
	cfg       *config.Config
	stories   storyCatalog
	adventure *adventure.Engine
	sources   []ImageSource
	storage   *storage.Storage
	presence  *scheduler.Rotator

	intn func(n int) int
	now  func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new bot instance from cfg
func New(cfg *config.Config) (*Bot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dg, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds

	storageInstance, err := storage.New(cfg.Storage.File)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	stories := story.NewStore(cfg.Adventure.StoryDir)

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bot{
		session:   dg,
		cfg:       cfg,
		stories:   stories,
		adventure: adventure.NewEngine(stories, adventure.WithTokenLimit(adventure.MaxTokenLength)),
		sources:   newImageSources(cfg.Images),
		storage:   storageInstance,
		intn:      rand.IntN,
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
	b.presence = scheduler.New(b, cfg.Presence.Activities, cfg.Presence.Interval)

	dg.AddHandler(b.readyHandler)
	dg.AddHandler(b.interactionHandler)

	return b, nil
}

func newImageSources(cfg config.ImagesConfig) []ImageSource {
	sources := make([]ImageSource, 0, len(cfg.Sources))
	for _, name := range cfg.Sources {
		switch name {
		case config.SourceWaifu:
			sources = append(sources, api.NewWaifuClient(cfg.WaifuBaseURL, cfg.UserAgent, cfg.Timeout))
		case config.SourceNekos:
			sources = append(sources, api.NewNekosClient(cfg.NekosBaseURL, cfg.UserAgent, cfg.Timeout))
		}
	}
	return sources
}

// Start opens the websocket connection, registers slash commands and
// starts the presence rotation
func (b *Bot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}

	if err := b.registerCommands(); err != nil {
		if cerr := b.session.Close(); cerr != nil {
			logger.WithError(cerr).Warn("failed-to-close-session")
		}
		return fmt.Errorf("failed to register commands: %w", err)
	}

	if err := b.presence.Start(ctx); err != nil {
		logger.WithError(err).Warn("failed-to-start-presence-rotation")
	}

	return nil
}

// Stop stops background work, optionally removes the commands and closes the connection
func (b *Bot) Stop(ctx context.Context) error {
	b.cancel()

	if b.presence.IsRunning() {
		if err := b.presence.Stop(); err != nil {
			logger.WithError(err).Warn("failed-to-stop-presence-rotation")
		}
	}

	if b.cfg.Discord.UnregisterOnExit {
		if err := b.unregisterCommands(); err != nil {
			logger.WithError(err).Warn("failed-to-unregister-commands")
		}
	}

	return b.session.Close()
}

// SetWatching sets a "Watching <activity>" presence
func (b *Bot) SetWatching(activity string) error {
	return b.session.UpdateStatusComplex(discordgo.UpdateStatusData{
		Status: string(discordgo.StatusOnline),
		Activities: []*discordgo.Activity{{
			Name: activity,
			Type: discordgo.ActivityTypeWatching,
		}},
	})
}

// readyHandler is called when the bot is ready
func (b *Bot) readyHandler(s *discordgo.Session, event *discordgo.Ready) {
	logger.WithFields(logrus.Fields{
		"user":   event.User.Username,
		"guilds": len(event.Guilds),
	}).Info("bot-ready")
}

// registerCommands replaces the registered slash commands with ours
func (b *Bot) registerCommands() error {
	cmds, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.cfg.Discord.GuildID, commands())
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"count": len(cmds),
		"guild": b.cfg.Discord.GuildID,
	}).Info("commands-registered")
	return nil
}

// unregisterCommands removes slash commands
func (b *Bot) unregisterCommands() error {
	appID := b.session.State.User.ID
	cmds, err := b.session.ApplicationCommands(appID, b.cfg.Discord.GuildID)
	if err != nil {
		return fmt.Errorf("failed to get commands: %w", err)
	}

	for _, cmd := range cmds {
		if err := b.session.ApplicationCommandDelete(appID, b.cfg.Discord.GuildID, cmd.ID); err != nil {
			logger.WithFields(logrus.Fields{
				"command": cmd.Name,
				"error":   err,
			}).Warn("failed-to-delete-command")
		}
	}
	return nil
}

// interactionHandler handles every interaction sent to the bot
func (b *Bot) interactionHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.handleInteraction(s, i)
}

func (b *Bot) handleInteraction(s interactionResponder, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(s, i)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(s, i)
	}
}

func (b *Bot) handleCommand(s interactionResponder, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()

	logger.WithFields(logrus.Fields{
		"command": data.Name,
		"user":    interactionUser(i.Interaction).ID,
		"guild":   i.GuildID,
	}).Debug("command-received")
	metrics.CommandReceived(data.Name)

	switch data.Name {
	case "ping":
		b.handlePing(s, i)
	case "pi":
		b.handlePi(s, i)
	case "say":
		b.handleSay(s, i, data)
	case "user":
		b.handleUser(s, i, data)
	case "roll":
		b.handleRoll(s, i, data)
	case "defaultroll":
		b.handleDefaultRoll(s, i, data)
	case "help":
		b.handleHelp(s, i)
	case "adventure":
		b.handleAdventureCommand(s, i)
	default:
		if action, ok := findAction(data.Name); ok {
			b.handleAction(s, i, data, action)
			return
		}
		logger.WithField("command", data.Name).Warn("unknown-command")
	}
}

func (b *Bot) handleComponent(s interactionResponder, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()

	if ev, ok := parseAdventureEvent(data); ok {
		b.handleAdventureEvent(s, i, ev)
		return
	}
	logger.WithField("custom_id", data.CustomID).Debug("unhandled-component")
}

// interactionUser returns the invoking user in guilds and in DMs
func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	if i.User != nil {
		return i.User
	}
	return &discordgo.User{}
}

func respondText(s interactionResponder, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{
		Content:         content,
		AllowedMentions: &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers}},
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		logger.WithError(err).Warn("failed-to-respond")
	}
}

func respondEmbed(s interactionResponder, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
	if err != nil {
		logger.WithError(err).Warn("failed-to-respond")
	}
}
