// Package discord connects the bot to Discord: the direct-message
// messenger used by the notification fan-out and the chat front end for
// the registration wizard and prize claims.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/eventdraw/drawbot/internal/domain"
)

// Platform is the platform tag stored on contacts reachable via Discord
const Platform = "discord"

// dmAPI is the slice of the Discord session the messenger needs
type dmAPI interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Messenger delivers direct messages to Discord contacts
type Messenger struct {
	session dmAPI
}

// NewMessenger creates a messenger on top of an open Discord session
func NewMessenger(session *discordgo.Session) *Messenger {
	return &Messenger{session: session}
}

// Send opens (or reuses) the DM channel with the contact and delivers
// the message, attaching the image as an embed when imageURL is set.
func (m *Messenger) Send(ctx context.Context, contact domain.Contact, message, imageURL string) error {
	if contact.Platform != Platform {
		return fmt.Errorf("contact %s is on %q, not deliverable via discord", contact.ID, contact.Platform)
	}

	channel, err := m.session.UserChannelCreate(contact.PlatformID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to open DM channel: %w", err)
	}

	send := &discordgo.MessageSend{Content: message}
	if imageURL != "" {
		send.Embed = &discordgo.MessageEmbed{
			Image: &discordgo.MessageEmbedImage{URL: imageURL},
		}
	}

	if _, err := m.session.ChannelMessageSendComplex(channel.ID, send, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send DM: %w", err)
	}
	return nil
}
