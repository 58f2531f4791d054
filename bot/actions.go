package bot

import (
	"context"
	"errors"
	"fmt"

	"PiBot/logger"
	"PiBot/metrics"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// selfTargetImage is shown when someone aims an action at themselves
const selfTargetImage = "https://media.tenor.com/XkjALAfX6p4AAAAC/omori-kel.gif"

// actionCommand is a slash command answering with a reaction GIF
type actionCommand struct {
	Name        string
	Description string
	// Category is the endpoint asked to the image sources
	Category    string
	NeedsTarget bool
	// Format receives the caller mention, then the target mention when NeedsTarget
	Format   string
	SelfText string
}

var actions = []actionCommand{
	{
		Name:        "bite",
		Description: "Mordre quelqu'un",
		Category:    "bite",
		NeedsTarget: true,
		Format:      "%s a mordu %s  :lips:",
		SelfText:    "You stupid ? Trying to bite yourself ?",
	},
	{
		Name:        "kick",
		Description: "Tacler quelqu'un",
		Category:    "kick",
		NeedsTarget: true,
		Format:      "%s a balayé %s",
		SelfText:    "You stupid ? Trying hiting your self ?",
	},
	{
		Name:        "kill",
		Description: "Assassiner quelqu'un",
		Category:    "kill",
		NeedsTarget: true,
		Format:      "%s a assassiné %s  :skull:",
		SelfText:    "You stupid ? Trying to kill your self ?",
	},
	{
		Name:        "bully",
		Description: "Bully quelqu'un",
		Category:    "bully",
		NeedsTarget: true,
		Format:      "%s a bully %s",
		SelfText:    "You stupid ? Trying to bully yourself ?",
	},
	{
		Name:        "blush",
		Description: "blush",
		Category:    "blush",
		Format:      "%s blush :flushed:",
	},
}

func findAction(name string) (actionCommand, bool) {
	for _, a := range actions {
		if a.Name == name {
			return a, true
		}
	}
	return actionCommand{}, false
}

// handleAction answers an action command with an embed holding a GIF from
// the first image source that delivers one
func (b *Bot) handleAction(s interactionResponder, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData, action actionCommand) {
	user := interactionUser(i.Interaction)

	description := fmt.Sprintf(action.Format, user.Mention())
	if action.NeedsTarget {
		target := optionUser(data, "target")
		if target == nil {
			respondText(s, i, "Il faut choisir une victime.", true)
			return
		}
		if target.ID == user.ID {
			respondEmbed(s, i, &discordgo.MessageEmbed{
				Description: action.SelfText,
				Image:       &discordgo.MessageEmbedImage{URL: selfTargetImage},
			})
			return
		}
		description = fmt.Sprintf(action.Format, user.Mention(), target.Mention())
	}

	// Defer response to avoid timeout
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		logger.WithError(err).Warn("failed-to-defer-interaction")
		return
	}

	ctx, cancel := context.WithTimeout(b.ctx, commandTimeout)
	defer cancel()

	url, err := b.actionImage(ctx, action.Category)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"command": action.Name,
			"error":   err,
		}).Warn("failed-to-fetch-action-image")
		content := "Désolé, impossible de trouver une image pour le moment."
		if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content}); err != nil {
			logger.WithError(err).Warn("failed-to-edit-response")
		}
		return
	}

	embeds := []*discordgo.MessageEmbed{{
		Description: description,
		Image:       &discordgo.MessageEmbedImage{URL: url},
	}}
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Embeds: &embeds}); err != nil {
		logger.WithError(err).Warn("failed-to-edit-response")
	}
}

// actionImage tries every source in order
func (b *Bot) actionImage(ctx context.Context, category string) (string, error) {
	if len(b.sources) == 0 {
		return "", errors.New("no image source configured")
	}

	var errs []error
	for _, src := range b.sources {
		url, err := src.ActionImage(ctx, category)
		metrics.ImageRequest(src.Name(), err)
		if err == nil {
			return url, nil
		}
		logger.WithFields(logrus.Fields{
			"source":   src.Name(),
			"category": category,
			"error":    err,
		}).Debug("image-source-failed")
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
	}
	return "", errors.Join(errs...)
}
