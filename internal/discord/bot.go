// Package discord runs the Discord intake bot. It is a privileged internal
// client of the order service: staff commands are authorized by the guild's
// own Administrator permission, a separate domain from web admin sessions.
package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/monkeystudio/gfx-order-system/internal/model"
	"github.com/monkeystudio/gfx-order-system/internal/service"
)

const (
	setupCommand  = "!setup-gfx"
	ordersCommand = "!gfx-orders"

	orderButtonID = "open_order_modal"
	orderModalID  = "gfx_order_modal"

	requestTimeout = 10 * time.Second
)

// Service defines the order operations the bot consumes.
type Service interface {
	CreateOrder(ctx context.Context, in service.CreateOrderInput) (*model.Order, error)
	GetOrders(ctx context.Context) ([]model.Order, error)
}

// Bot wraps a Discord gateway session for the ordering workflow.
type Bot struct {
	session *discordgo.Session
	service Service
	logger  *zap.Logger
}

// NewBot creates a bot for the given token. The session is not opened yet;
// call Run to connect.
func NewBot(token string, svc Service, logger *zap.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	b := &Bot{
		session: session,
		service: svc,
		logger:  logger,
	}

	session.AddHandler(b.onMessage)
	session.AddHandler(b.onInteraction)

	return b, nil
}

// Run opens the gateway connection and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	b.logger.Info("discord bot connected")

	<-ctx.Done()
	return b.session.Close()
}

func (b *Bot) isGuildAdmin(userID, channelID string) bool {
	perms, err := b.session.UserChannelPermissions(userID, channelID)
	if err != nil {
		b.logger.Warn("resolve member permissions", zap.Error(err))
		return false
	}
	return perms&discordgo.PermissionAdministrator != 0
}

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	switch m.Content {
	case setupCommand:
		if !b.isGuildAdmin(m.Author.ID, m.ChannelID) {
			return
		}
		b.postOrderPrompt(m.ChannelID)
	case ordersCommand:
		if !b.isGuildAdmin(m.Author.ID, m.ChannelID) {
			return
		}
		b.postOrderList(m.ChannelID)
	}
}

func (b *Bot) postOrderPrompt(channelID string) {
	embed := &discordgo.MessageEmbed{
		Title:       "🎨 Monkey Studio GFX Ordering",
		Description: "Click the button below to place your GFX order! Our team will review it shortly.",
		Color:       0xFF6B00,
	}

	_, err := b.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						CustomID: orderButtonID,
						Label:    "Place Order",
						Style:    discordgo.PrimaryButton,
						Emoji:    &discordgo.ComponentEmoji{Name: "🛒"},
					},
				},
			},
		},
	})
	if err != nil {
		b.logger.Error("post order prompt", zap.Error(err))
	}
}

func (b *Bot) postOrderList(channelID string) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	orders, err := b.service.GetOrders(ctx)
	if err != nil {
		b.logger.Error("list orders for bot", zap.Error(err))
		return
	}

	if _, err := b.session.ChannelMessageSendEmbed(channelID, ordersEmbed(orders)); err != nil {
		b.logger.Error("post order list", zap.Error(err))
	}
}

// ordersEmbed renders the newest orders as embed fields, capped at ten.
func ordersEmbed(orders []model.Order) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "📋 Recent GFX Orders",
		Color: 0xFF6B00,
	}

	if len(orders) == 0 {
		embed.Description = "No orders yet."
		return embed
	}

	limit := len(orders)
	if limit > 10 {
		limit = 10
	}

	for _, o := range orders[:limit] {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: fmt.Sprintf("#%d — %s", o.ID, o.GfxType),
			Value: fmt.Sprintf("Status: %s | Payment: %s | Roblox: %s",
				o.Status, o.PaymentStatus, o.RobloxUser),
		})
	}

	return embed
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		if i.MessageComponentData().CustomID == orderButtonID {
			b.showOrderModal(i)
		}
	case discordgo.InteractionModalSubmit:
		if i.ModalSubmitData().CustomID == orderModalID {
			b.handleOrderSubmit(i)
		}
	}
}

func textInputRow(customID, label, placeholder string, style discordgo.TextInputStyle) discordgo.ActionsRow {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:    customID,
				Label:       label,
				Placeholder: placeholder,
				Style:       style,
				Required:    true,
			},
		},
	}
}

func (b *Bot) showOrderModal(i *discordgo.InteractionCreate) {
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: orderModalID,
			Title:    "Place GFX Order",
			Components: []discordgo.MessageComponent{
				textInputRow("email", "Your Email Address", "you@example.com", discordgo.TextInputShort),
				textInputRow("roblox_user", "Roblox Username", "Username", discordgo.TextInputShort),
				textInputRow("gfx_type", "GFX Type (Thumbnail, Icon, etc.)", "e.g. Thumbnail", discordgo.TextInputShort),
				textInputRow("details", "Order Details", "Describe your request...", discordgo.TextInputParagraph),
			},
		},
	})
	if err != nil {
		b.logger.Error("show order modal", zap.Error(err))
	}
}

// modalValue extracts a text input's value from a submitted modal by custom id.
func modalValue(data discordgo.ModalSubmitInteractionData, customID string) string {
	for _, row := range data.Components {
		actionsRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, component := range actionsRow.Components {
			input, ok := component.(*discordgo.TextInput)
			if ok && input.CustomID == customID {
				return input.Value
			}
		}
	}
	return ""
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}

func (b *Bot) handleOrderSubmit(i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	user := interactionUser(i)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	_, err := b.service.CreateOrder(ctx, service.CreateOrderInput{
		Email:       modalValue(data, "email"),
		DiscordUser: user.String(),
		RobloxUser:  modalValue(data, "roblox_user"),
		GfxType:     modalValue(data, "gfx_type"),
		Details:     modalValue(data, "details"),
	})

	content := "✅ Your order has been placed! You can track it on our website using your email."
	if err != nil {
		b.logger.Error("create order from discord", zap.Error(err), zap.String("user", user.String()))
		content = "❌ There was an error processing your order. Please try again later."
	}

	respErr := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if respErr != nil {
		b.logger.Error("respond to order submit", zap.Error(respErr))
	}
}
