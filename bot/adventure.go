package bot

import (
	"bytes"
	"context"
	"errors"
	"mime"
	"path"
	"strings"
	"unicode/utf8"

	"PiBot/adventure"
	"PiBot/logger"
	"PiBot/metrics"
	"PiBot/story"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

const (
	storySelectID = "adventure:select"

	adventureColor  = 0x0099FF
	maxSelectOption = 25
	maxButtons      = 25
	buttonsPerRow   = 5
	maxButtonLabel  = 80
)

// handleAdventureCommand lists the stories in a select menu
func (b *Bot) handleAdventureCommand(s interactionResponder, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(b.ctx, commandTimeout)
	defer cancel()

	names, err := b.stories.List(ctx)
	if err != nil {
		logger.WithError(err).Warn("failed-to-list-stories")
	}
	if len(names) == 0 {
		respondText(s, i, "Aucune aventure n'est disponible pour le moment.", true)
		return
	}
	if len(names) > maxSelectOption {
		names = names[:maxSelectOption]
	}

	options := make([]discordgo.SelectMenuOption, 0, len(names))
	for _, name := range names {
		options = append(options, discordgo.SelectMenuOption{
			Label: truncate(name, 100),
			Value: name,
		})
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{{
				Title:       "AVENTURE INTERACTIVE",
				Description: "Choisis une histoire pour commencer.",
				Color:       adventureColor,
			}},
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.SelectMenu{
							MenuType:    discordgo.StringSelectMenu,
							CustomID:    storySelectID,
							Placeholder: "Sélectionner",
							Options:     options,
						},
					},
				},
			},
		},
	})
	if err != nil {
		logger.WithError(err).Warn("failed-to-respond")
	}
}

// parseAdventureEvent maps a component interaction to an adventure event
func parseAdventureEvent(data discordgo.MessageComponentInteractionData) (adventure.Event, bool) {
	if data.CustomID == storySelectID {
		if len(data.Values) == 0 {
			return adventure.Event{}, false
		}
		return adventure.Event{Kind: adventure.EventStorySelected, Story: data.Values[0]}, true
	}
	if adventure.IsToken(data.CustomID) {
		return adventure.Event{Kind: adventure.EventEdgeChosen, Token: data.CustomID}, true
	}
	return adventure.Event{}, false
}

func (b *Bot) handleAdventureEvent(s interactionResponder, i *discordgo.InteractionCreate, ev adventure.Event) {
	ctx, cancel := context.WithTimeout(b.ctx, commandTimeout)
	defer cancel()

	fields := logrus.Fields{"user": interactionUser(i.Interaction).ID}
	if i.Message != nil {
		fields["message"] = i.Message.ID
	}

	step, err := b.adventure.Handle(ctx, ev)
	metrics.AdventureStep(ev.Kind.String(), err)
	if err != nil {
		fields["error"] = err
		logger.WithFields(fields).Warn("adventure-step-failed")
		respondText(s, i, adventureErrorMessage(err), true)
		return
	}

	fields["story"] = step.Position.Story
	fields["node"] = step.Position.Node
	fields["state"] = step.Position.State.String()
	logger.WithFields(fields).Debug("adventure-step")

	msgs := b.buildAdventureMessages(ctx, step)

	first := msgs[0]
	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:      first.embeds,
			Files:       first.files,
			Components:  first.components,
			Attachments: &[]*discordgo.MessageAttachment{},
		},
	})
	if err != nil {
		logger.WithError(err).Warn("failed-to-update-adventure-message")
		return
	}

	for _, m := range msgs[1:] {
		_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
			Embeds:     m.embeds,
			Files:      m.files,
			Components: m.components,
		})
		if err != nil {
			logger.WithError(err).Warn("failed-to-send-adventure-followup")
			return
		}
	}
}

type adventureMessage struct {
	embeds     []*discordgo.MessageEmbed
	files      []*discordgo.File
	components []discordgo.MessageComponent
}

// buildAdventureMessages lays a presentation out as Discord messages: the
// title with the primary media, one message per other media, and the choices
// (or the end footer) on the last one.
func (b *Bot) buildAdventureMessages(ctx context.Context, step *adventure.Step) []adventureMessage {
	p := step.Presentation
	title := p.Title()

	head := &discordgo.MessageEmbed{
		Title:       truncate("Histoire : "+title.Title, 256),
		Description: truncate(title.Text, 4096),
		Color:       adventureColor,
	}
	msgs := []adventureMessage{{
		embeds:     []*discordgo.MessageEmbed{head},
		components: []discordgo.MessageComponent{},
	}}

	for _, m := range p.Media() {
		image, file := b.adventureMedia(ctx, step.Story, m.Media)
		if m.Primary {
			head.Image = image
			if file != nil {
				msgs[0].files = append(msgs[0].files, file)
			}
			continue
		}
		if image == nil {
			continue
		}
		msg := adventureMessage{
			embeds: []*discordgo.MessageEmbed{{Color: adventureColor, Image: image}},
		}
		if file != nil {
			msg.files = []*discordgo.File{file}
		}
		msgs = append(msgs, msg)
	}

	last := &msgs[len(msgs)-1]
	if p.Terminal() {
		last.embeds[0].Footer = &discordgo.MessageEmbedFooter{Text: "Fin de l'aventure"}
		last.components = []discordgo.MessageComponent{}
		return msgs
	}
	last.components = choiceRows(p.Choices())
	return msgs
}

// adventureMedia returns the embed image for ref and, for story assets, the
// file to upload with it. Unreadable assets are skipped.
func (b *Bot) adventureMedia(ctx context.Context, st *story.Story, ref string) (*discordgo.MessageEmbedImage, *discordgo.File) {
	if story.IsRemote(ref) {
		return &discordgo.MessageEmbedImage{URL: ref}, nil
	}

	data, err := b.stories.ReadMedia(ctx, st, ref)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"story": st.Name,
			"media": ref,
			"error": err,
		}).Warn("failed-to-read-story-media")
		return nil, nil
	}

	name := attachmentName(ref)
	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &discordgo.MessageEmbedImage{URL: "attachment://" + name}, &discordgo.File{
		Name:        name,
		ContentType: contentType,
		Reader:      bytes.NewReader(data),
	}
}

// choiceRows lays out one button per choice, five per row
func choiceRows(choices []adventure.Choice) []discordgo.MessageComponent {
	seen := make(map[string]bool, len(choices))
	var buttons []discordgo.MessageComponent
	for _, c := range choices {
		if seen[c.Token] || len(buttons) == maxButtons {
			continue
		}
		seen[c.Token] = true
		buttons = append(buttons, discordgo.Button{
			Label:    truncate(c.Label, maxButtonLabel),
			Style:    discordgo.PrimaryButton,
			CustomID: c.Token,
		})
	}

	rows := make([]discordgo.MessageComponent, 0, (len(buttons)+buttonsPerRow-1)/buttonsPerRow)
	for start := 0; start < len(buttons); start += buttonsPerRow {
		end := min(start+buttonsPerRow, len(buttons))
		rows = append(rows, discordgo.ActionsRow{Components: buttons[start:end]})
	}
	return rows
}

func adventureErrorMessage(err error) string {
	switch {
	case errors.Is(err, story.ErrSessionClosed):
		return "Cette aventure est terminée, relance `/adventure` pour rejouer."
	case errors.Is(err, story.ErrNotFound):
		return "Cette histoire (ou ce passage) n'existe plus."
	case errors.Is(err, story.ErrInvalidEdge):
		return "Ce choix n'est pas valide."
	case errors.Is(err, story.ErrMalformedStory):
		return "Cette histoire est mal écrite, préviens un administrateur."
	default:
		return "Une erreur est survenue, réessaie plus tard."
	}
}

// attachmentName turns a story asset path into a name usable in attachment:// URLs
func attachmentName(ref string) string {
	base := path.Base(strings.ReplaceAll(ref, "\\", "/"))
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if name == "" || name == "." || name == "_" {
		return "media"
	}
	return name
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
