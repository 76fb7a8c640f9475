package infrastructure

import (
	"fmt"

	"betledger/domain/events"
	"betledger/domain/odds"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Discord embed colors
const (
	colorFinalized = 0x2ecc71
	colorOverride  = 0xe67e22
)

// webhookExecutor is the part of *discordgo.Session the notifier needs
type webhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier announces finalized matches on a Discord webhook
type DiscordNotifier struct {
	session   webhookExecutor
	webhookID string
	token     string
}

// NewDiscordNotifier creates a notifier for the given webhook
func NewDiscordNotifier(webhookID, token string) (*DiscordNotifier, error) {
	// Webhook execution is authorized by the webhook token, not a bot token
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return newDiscordNotifier(session, webhookID, token), nil
}

func newDiscordNotifier(session webhookExecutor, webhookID, token string) *DiscordNotifier {
	return &DiscordNotifier{session: session, webhookID: webhookID, token: token}
}

// Publish posts an embed for MatchFinalized and ignores other events
func (n *DiscordNotifier) Publish(event events.Event) error {
	finalized, ok := event.(events.MatchFinalized)
	if !ok {
		return nil
	}

	if _, err := n.session.WebhookExecute(n.webhookID, n.token, false, &discordgo.WebhookParams{
		Username: "Results",
		Embeds:   []*discordgo.MessageEmbed{BuildFinalizedEmbed(finalized)},
	}); err != nil {
		log.WithFields(log.Fields{
			"uid":   finalized.UID.Hex(),
			"error": err,
		}).Warn("Failed to announce finalized match")
		return fmt.Errorf("failed to execute discord webhook: %w", err)
	}
	return nil
}

// BuildFinalizedEmbed renders a finalized match as a Discord embed
func BuildFinalizedEmbed(e events.MatchFinalized) *discordgo.MessageEmbed {
	color := colorFinalized
	source := "attested"
	if e.Manual {
		color = colorOverride
		source = "operator override"
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🏁 %s", e.Title),
		Description: fmt.Sprintf("Winner: **%s**", e.ResultLabel),
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Closing multiplier", Value: FormatMultiplier(e.Multiplier) + "x", Inline: true},
			{Name: "Result", Value: source, Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Event %s • #%d", shortUID(e.Key()), e.Sequence()),
		},
	}
}

// FormatMultiplier renders a scaled multiplier with three decimals, e.g. 5500 -> "5.500"
func FormatMultiplier(m int64) string {
	return decimal.NewFromInt(m).Div(decimal.NewFromInt(odds.Scale)).StringFixed(3)
}

func shortUID(hex string) string {
	if len(hex) <= 12 {
		return hex
	}
	return hex[:10] + "…"
}
