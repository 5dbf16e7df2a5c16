package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/eventdraw/drawbot/internal/domain"
	"github.com/eventdraw/drawbot/internal/eventsvc"
	"github.com/eventdraw/drawbot/internal/logger"
	"github.com/eventdraw/drawbot/internal/participant"
	"github.com/eventdraw/drawbot/internal/wizard"
)

const (
	cmdRegister = "!register"
	cmdCancel   = "!cancel"
	cmdMyNumber = "!mynumber"
	cmdClaim    = "!claim"
	cmdHelp     = "!help"
)

const helpText = "Commands:\n" +
	"`!register` start event registration\n" +
	"`!cancel` abort a registration in progress\n" +
	"`!mynumber` show your draw number\n" +
	"`!claim <number>` claim a prize with your draw number\n" +
	"`!help` this message"

// Bot is the Discord chat front end
type Bot struct {
	Session      *discordgo.Session
	wizard       *wizard.Wizard
	participants participant.Service
	events       eventsvc.Service
}

// NewSession creates a Discord session with the direct-message intents
// the bot needs. The session is shared with the notification messenger.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsDirectMessages | discordgo.IntentMessageContent
	return session, nil
}

// NewBot creates the bot on an existing session
func NewBot(session *discordgo.Session, w *wizard.Wizard, participants participant.Service, events eventsvc.Service) *Bot {
	return &Bot{
		Session:      session,
		wizard:       w,
		participants: participants,
		events:       events,
	}
}

// Start opens the gateway connection and installs the handlers
func (b *Bot) Start(ctx context.Context) error {
	b.Session.AddHandler(b.ready)
	b.Session.AddHandler(b.messageCreate)

	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("failed to open discord connection: %w", err)
	}

	logger.FromContext(ctx).Info("Discord bot connected")
	return nil
}

// Stop closes the gateway connection
func (b *Bot) Stop() error {
	return b.Session.Close()
}

func (b *Bot) ready(s *discordgo.Session, _ *discordgo.Ready) {
	slog.Info("Discord bot ready", "user", s.State.User.Username)
}

func (b *Bot) messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// DMs only, and never our own or other bots' messages
	if m.Author == nil || m.Author.Bot || m.GuildID != "" {
		return
	}

	ctx := logger.WithRequestID(context.Background(), logger.GenerateRequestID())
	reply := b.handleMessage(ctx, m)
	if reply == "" {
		return
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
		logger.FromContext(ctx).Error("Failed to reply", "error", err, "channel_id", m.ChannelID)
	}
}

func (b *Bot) handleMessage(ctx context.Context, m *discordgo.MessageCreate) string {
	log := logger.FromContext(ctx)
	text := strings.TrimSpace(m.Content)
	userID := m.Author.ID

	switch {
	case strings.EqualFold(text, cmdHelp):
		return helpText

	case strings.EqualFold(text, cmdRegister):
		return b.startRegistration(ctx, m)

	case strings.EqualFold(text, cmdCancel):
		if reply, ok := b.wizard.Cancel(Platform, userID); ok {
			return reply
		}
		return "Nothing to cancel."

	case strings.EqualFold(text, cmdMyNumber):
		return b.lookupNumber(ctx, userID)

	case strings.HasPrefix(strings.ToLower(text), cmdClaim):
		return b.claimPrize(ctx, userID, strings.TrimSpace(text[len(cmdClaim):]))

	case b.wizard.Active(Platform, userID):
		reply, _, err := b.wizard.Input(ctx, Platform, userID, text)
		if err != nil && !errors.Is(err, wizard.ErrNoSession) {
			log.Error("Wizard step failed", "error", err, "user_id", userID)
		}
		return reply
	}

	return "I didn't catch that. Try `!help`."
}

func (b *Bot) startRegistration(ctx context.Context, m *discordgo.MessageCreate) string {
	ev, err := b.activeEvent(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			return "There is no event open for registration right now."
		}
		logger.FromContext(ctx).Error("Failed to find active event", "error", err)
		return "Something went wrong, please try again later."
	}

	prompt, err := b.wizard.Start(ctx, ev.ID, Platform, m.Author.ID, m.Author.Username)
	if err != nil && !errors.Is(err, domain.ErrAlreadyRegistered) {
		logger.FromContext(ctx).Error("Failed to start registration", "error", err)
		return "Something went wrong, please try again later."
	}
	return prompt
}

func (b *Bot) lookupNumber(ctx context.Context, userID string) string {
	ev, err := b.activeEvent(ctx)
	if err != nil {
		return "There is no active event."
	}

	p, err := b.participants.FindByPlatformID(ctx, ev.ID, Platform, userID)
	if err != nil {
		if errors.Is(err, domain.ErrParticipantNotFound) || errors.Is(err, domain.ErrContactNotFound) {
			return "You are not registered yet. Send `!register` to join."
		}
		logger.FromContext(ctx).Error("Failed to look up participant", "error", err)
		return "Something went wrong, please try again later."
	}
	return fmt.Sprintf("Your draw number is %d.", p.ShortID)
}

func (b *Bot) claimPrize(ctx context.Context, userID, arg string) string {
	shortID, err := strconv.Atoi(arg)
	if err != nil {
		return "Usage: `!claim <number>`, e.g. `!claim 123456`."
	}

	ev, err := b.activeEvent(ctx)
	if err != nil {
		return "There is no active event."
	}

	// Claims are bound to the caller's own registration
	p, err := b.participants.FindByPlatformID(ctx, ev.ID, Platform, userID)
	if err != nil || p.ShortID != shortID {
		return "That draw number is not yours."
	}

	info, err := b.participants.ClaimPrize(ctx, ev.ID, shortID)
	switch {
	case errors.Is(err, domain.ErrWinnerNotFound):
		return "That number has not won anything yet. Better luck next round!"
	case errors.Is(err, domain.ErrPrizeAlreadyClaimed):
		return "That prize was already claimed."
	case err != nil:
		logger.FromContext(ctx).Error("Failed to claim prize", "error", err)
		return "Something went wrong, please try again later."
	}
	return fmt.Sprintf("Congratulations %s, your prize for number %d is confirmed!", info.FirstName, info.ShortID)
}

// activeEvent returns the single currently active event
func (b *Bot) activeEvent(ctx context.Context) (*domain.Event, error) {
	events, err := b.events.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range events {
		if events[i].Status == domain.EventStatusActive {
			return &events[i], nil
		}
	}
	return nil, domain.ErrEventNotFound
}
