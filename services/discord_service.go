package services

import (
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"pnodewatch/models"
)

// DiscordBotService delivers alert notifications to a single channel.
// Missing credentials disable it without failing startup.
type DiscordBotService struct {
	session   *discordgo.Session
	channelID string
	enabled   bool
}

func NewDiscordBotService(token, channelID string) (*DiscordBotService, error) {
	if token == "" || channelID == "" {
		log.Println("Discord credentials not provided, Discord notifications disabled")
		return &DiscordBotService{enabled: false}, nil
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("failed to open Discord connection: %w", err)
	}

	log.Printf("Discord bot connected, notifying channel %s", channelID)

	return &DiscordBotService{
		session:   session,
		channelID: channelID,
		enabled:   true,
	}, nil
}

func (d *DiscordBotService) Enabled() bool {
	return d.enabled
}

func (d *DiscordBotService) Close() {
	if d.enabled && d.session != nil {
		log.Println("Closing Discord bot connection...")
		d.session.Close()
	}
}

// SendAlert posts one alert event as an embed.
func (d *DiscordBotService) SendAlert(rule *models.AlertRule, message string) error {
	if !d.enabled {
		return fmt.Errorf("Discord bot not enabled")
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🚨 " + rule.Name,
		Description: message,
		Color:       d.colorForRule(rule.RuleType),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Rule: %s", rule.ID),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	if _, err := d.session.ChannelMessageSendEmbed(d.channelID, embed); err != nil {
		return fmt.Errorf("failed to send Discord message: %w", err)
	}

	log.Printf("Alert sent to Discord: %s", rule.Name)
	return nil
}

func (d *DiscordBotService) colorForRule(ruleType string) int {
	switch ruleType {
	case models.RuleNodeOffline:
		return 0xE74C3C // red
	case models.RuleNetworkHealth:
		return 0xF39C12 // orange
	default:
		return 0x95A5A6
	}
}
