package bot

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"PiBot/dice"
	"PiBot/logger"
	"PiBot/storage"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

const (
	defaultFaces = 20
	// highRoll totals are logged
	highRoll = 999
)

// commands returns every slash command the bot registers
func commands() []*discordgo.ApplicationCommand {
	manageGuild := int64(discordgo.PermissionManageGuild)
	noDM := false

	cmds := []*discordgo.ApplicationCommand{
		{
			Name:        "ping",
			Description: "Repond avec un Pong!",
		},
		{
			Name:        "pi",
			Description: "Les decimales de pi !",
		},
		{
			Name:        "say",
			Description: "Fait parler le bot",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "message",
					Description: "votre message",
					Required:    true,
				},
			},
		},
		{
			Name:        "user",
			Description: "Provides information about the user.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "target",
					Description: "vous pouvez le faire pour quelqu'un",
					Required:    false,
				},
			},
		},
		{
			Name:        "roll",
			Description: "Permet de lancer des dés",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "expression",
					Description: "Expression de dés suivie d'un nom, ex. 2d6+3 Goblin",
					Required:    false,
					MaxLength:   dice.MaxInputLength,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "dice",
					Description: "Nombre de dés (1-50)",
					Required:    false,
					MinValue:    &[]float64{1}[0],
					MaxValue:    dice.MaxRolls,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "faces",
					Description: "Nombre de faces",
					Required:    false,
					MinValue:    &[]float64{1}[0],
					MaxValue:    dice.MaxFaces,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "target",
					Description: "Vous pouvez definir un personnage à cibler",
					Required:    false,
				},
			},
		},
		{
			Name:                     "defaultroll",
			Description:              "Définit le jet par défaut de /roll sur ce serveur",
			DefaultMemberPermissions: &manageGuild,
			DMPermission:             &noDM,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "expression",
					Description: "Jet par défaut, ex. 1d20+3 (vide pour revenir à 1d20)",
					Required:    false,
					MaxLength:   storage.MaxDefaultRollLength,
				},
			},
		},
		{
			Name:        "adventure",
			Description: "Lance une aventure interactive",
		},
		{
			Name:        "help",
			Description: "Liste les commandes du bot",
		},
	}

	for _, a := range actions {
		cmd := &discordgo.ApplicationCommand{
			Name:        a.Name,
			Description: a.Description,
		}
		if a.NeedsTarget {
			cmd.Options = []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "target",
					Description: "qui sera votre victime ?",
					Required:    true,
				},
			}
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

// handlePing answers with the time elapsed since the interaction was created
func (b *Bot) handlePing(s interactionResponder, i *discordgo.InteractionCreate) {
	content := "Pong!"
	if created, err := discordgo.SnowflakeTimestamp(i.ID); err == nil {
		content = fmt.Sprintf("Pong! `%dms`", b.now().Sub(created).Milliseconds())
	}
	respondText(s, i, content, false)
}

func (b *Bot) handlePi(s interactionResponder, i *discordgo.InteractionCreate) {
	respondText(s, i, strconv.FormatFloat(math.Pi, 'f', -1, 64), false)
}

func (b *Bot) handleSay(s interactionResponder, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	var message string
	for _, opt := range data.Options {
		if opt.Name == "message" {
			message = opt.StringValue()
		}
	}
	if strings.TrimSpace(message) == "" {
		respondText(s, i, "Il faut me donner quelque chose à dire.", true)
		return
	}
	respondText(s, i, message, false)
}

func (b *Bot) handleUser(s interactionResponder, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if target := optionUser(data, "target"); target != nil {
		respondText(s, i, fmt.Sprintf("C'est %s, tu ne le savais pas ?", target.Mention())+b.rollStats(target.ID), false)
		return
	}
	user := interactionUser(i.Interaction)
	respondText(s, i, fmt.Sprintf("Tu es %s, mais tu le sais déjà, non ?", user.Mention())+b.rollStats(user.ID), false)
}

// rollStats is the dice counter line appended to /user, empty without rolls
func (b *Bot) rollStats(userID string) string {
	if b.storage == nil {
		return ""
	}
	if n := b.storage.DiceRolls(userID); n > 0 {
		return fmt.Sprintf("\n🎲 Dés lancés : %d fois", n)
	}
	return ""
}

func (b *Bot) handleRoll(s interactionResponder, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	var (
		input  string
		count  int
		faces  int
		target string
	)
	for _, opt := range data.Options {
		switch opt.Name {
		case "expression":
			input = strings.TrimSpace(opt.StringValue())
		case "dice":
			count = int(opt.IntValue())
		case "faces":
			faces = int(opt.IntValue())
		case "target":
			target = strings.TrimSpace(opt.StringValue())
		}
	}

	var expr dice.Expression
	switch {
	case input != "":
		text, name := dice.SplitTarget(input)
		parsed, err := dice.Parse(text)
		if err != nil {
			respondText(s, i, fmt.Sprintf("❌ Expression invalide (%v). Exemple : 2d6+3 Goblin", err), true)
			return
		}
		expr = parsed
		if target == "" {
			target = name
		}
	case count > 0 || faces > 0:
		if faces < 1 {
			faces = defaultFaces
		}
		expr = dice.Expression{Dice: []dice.Term{{
			Count: min(max(count, 1), dice.MaxRolls),
			Faces: min(faces, dice.MaxFaces),
			Sign:  1,
		}}}
	default:
		expr = b.defaultRoll(i.GuildID)
	}

	user := interactionUser(i.Interaction)
	if target == "" {
		target = user.Mention()
	}

	result := expr.Roll(b.intn)
	if result.Total > highRoll {
		logger.WithFields(logrus.Fields{
			"user":       user.ID,
			"expression": expr.String(),
			"total":      result.Total,
		}).Info("high-dice-roll")
	}
	if b.storage != nil {
		if _, err := b.storage.RecordDiceRoll(user.ID); err != nil {
			logger.WithError(err).Warn("failed-to-record-dice-roll")
		}
	}

	respondText(s, i, formatRoll(target, result), false)
}

// defaultRoll is the guild default roll, or 1d20
func (b *Bot) defaultRoll(guildID string) dice.Expression {
	fallback := dice.Expression{Dice: []dice.Term{{Count: 1, Faces: defaultFaces, Sign: 1}}}
	if b.storage == nil {
		return fallback
	}
	stored := b.storage.DefaultRoll(guildID)
	if stored == "" {
		return fallback
	}
	expr, err := dice.Parse(stored)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"guild":        guildID,
			"default_roll": stored,
			"error":        err,
		}).Warn("invalid-default-roll")
		return fallback
	}
	return expr
}

func (b *Bot) handleDefaultRoll(s interactionResponder, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if i.Member == nil || i.Member.Permissions&discordgo.PermissionManageGuild == 0 {
		respondText(s, i, "Il faut la permission *Gérer le serveur* pour faire ça.", true)
		return
	}

	input := ""
	for _, opt := range data.Options {
		if opt.Name == "expression" {
			input = strings.TrimSpace(opt.StringValue())
		}
	}

	stored := ""
	if input != "" {
		expr, err := dice.Parse(input)
		if err != nil {
			respondText(s, i, fmt.Sprintf("❌ Expression invalide (%v). Exemple : 1d20+3", err), true)
			return
		}
		stored = expr.String()
	}

	if err := b.storage.SetDefaultRoll(i.GuildID, stored); err != nil {
		logger.WithFields(logrus.Fields{
			"guild": i.GuildID,
			"error": err,
		}).Warn("failed-to-set-default-roll")
		respondText(s, i, fmt.Sprintf("❌ Impossible d'enregistrer : %v", err), true)
		return
	}

	if stored == "" {
		respondText(s, i, fmt.Sprintf("🎲 /roll lance de nouveau 1d%d sur ce serveur.", defaultFaces), false)
		return
	}
	respondText(s, i, fmt.Sprintf("🎲 /roll lance maintenant %s sur ce serveur.", stored), false)
}

func (b *Bot) handleHelp(s interactionResponder, i *discordgo.InteractionCreate) {
	var sb strings.Builder
	sb.WriteString("## 🥧 PiBot\n\n")
	sb.WriteString("**Général**\n")
	sb.WriteString("├ `/ping` - latence du bot\n")
	sb.WriteString("├ `/pi` - les décimales de pi\n")
	sb.WriteString("├ `/say <message>` - fait parler le bot\n")
	sb.WriteString("└ `/user [target]` - qui est qui\n\n")
	sb.WriteString("**🎲 Dés**\n")
	sb.WriteString("├ `/roll [expression] [dice] [faces] [target]` - lance des dés, ex. `2d6+3 Goblin`\n")
	sb.WriteString("└ `/defaultroll [expression]` - jet par défaut du serveur (1d20 sinon)\n\n")
	sb.WriteString("**💥 Actions**\n")
	for idx, a := range actions {
		prefix := "├"
		if idx == len(actions)-1 {
			prefix = "└"
		}
		usage := "/" + a.Name
		if a.NeedsTarget {
			usage += " <target>"
		}
		fmt.Fprintf(&sb, "%s `%s` - %s\n", prefix, usage, a.Description)
	}
	sb.WriteString("\n**📖 Aventure**\n")
	sb.WriteString("└ `/adventure` - choisis une histoire et fais tes choix\n")

	respondText(s, i, sb.String(), true)
}

// optionUser returns the user passed in option name, or nil
func optionUser(data discordgo.ApplicationCommandInteractionData, name string) *discordgo.User {
	for _, opt := range data.Options {
		if opt.Name != name || opt.Type != discordgo.ApplicationCommandOptionUser {
			continue
		}
		id, _ := opt.Value.(string)
		if id == "" {
			return nil
		}
		if data.Resolved != nil {
			if u, ok := data.Resolved.Users[id]; ok {
				return u
			}
		}
		return &discordgo.User{ID: id}
	}
	return nil
}

func formatRoll(target string, r dice.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s** rolled: (%s)\nAnd got :", target, r.Expression)

	if r.Expression.Simple() {
		results := r.Terms[0].Results
		if len(results) == 1 {
			fmt.Fprintf(&sb, " %d", results[0])
			return sb.String()
		}
		for idx, v := range results {
			fmt.Fprintf(&sb, "\n %d => %d", idx+1, v)
		}
		fmt.Fprintf(&sb, "\nTotal : **%d**", r.Total)
		return sb.String()
	}

	for _, tr := range r.Terms {
		values := make([]string, len(tr.Results))
		for idx, v := range tr.Results {
			values[idx] = strconv.Itoa(v)
		}
		fmt.Fprintf(&sb, "\n %s => %s", tr.Term, strings.Join(values, ", "))
	}
	fmt.Fprintf(&sb, "\nCalcul : %s", r.Calculation())
	fmt.Fprintf(&sb, "\nTotal : **%d**", r.Total)
	return sb.String()
}
