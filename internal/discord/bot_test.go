package discord

import (
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/monkeystudio/gfx-order-system/internal/model"
)

func TestOrdersEmbed_Empty(t *testing.T) {
	embed := ordersEmbed(nil)

	if len(embed.Fields) != 0 {
		t.Fatalf("empty order list must produce no fields")
	}
	if embed.Description == "" {
		t.Fatalf("empty order list must explain itself")
	}
}

func TestOrdersEmbed_CapsAtTen(t *testing.T) {
	orders := make([]model.Order, 15)
	for i := range orders {
		orders[i] = model.Order{
			ID:            int64(i + 1),
			GfxType:       "Thumbnail",
			Status:        model.OrderStatusPending,
			PaymentStatus: model.PaymentStatusUnpaid,
			RobloxUser:    "r1",
		}
	}

	embed := ordersEmbed(orders)

	if len(embed.Fields) != 10 {
		t.Fatalf("fields = %d, want 10", len(embed.Fields))
	}
	if !strings.Contains(embed.Fields[0].Name, "#1") {
		t.Fatalf("first field = %q, want the first order", embed.Fields[0].Name)
	}
}

func TestModalValue(t *testing.T) {
	data := discordgo.ModalSubmitInteractionData{
		CustomID: orderModalID,
		Components: []discordgo.MessageComponent{
			&discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					&discordgo.TextInput{CustomID: "email", Value: "a@b.com"},
				},
			},
			&discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					&discordgo.TextInput{CustomID: "gfx_type", Value: "Icon"},
				},
			},
		},
	}

	if got := modalValue(data, "email"); got != "a@b.com" {
		t.Errorf("email = %q, want %q", got, "a@b.com")
	}
	if got := modalValue(data, "gfx_type"); got != "Icon" {
		t.Errorf("gfx_type = %q, want %q", got, "Icon")
	}
	if got := modalValue(data, "missing"); got != "" {
		t.Errorf("missing input = %q, want empty", got)
	}
}
