package cmds

import (
	"context"
	"fmt"
	"strings"
)

type StatsCommand struct {
	sender      Sender
	communities CommunityLister
	stats       StatsProvider
}

func NewStatsCommand(sender Sender, communities CommunityLister, stats StatsProvider) *StatsCommand {
	return &StatsCommand{
		sender:      sender,
		communities: communities,
		stats:       stats,
	}
}

func (c *StatsCommand) Execute(ctx context.Context, ownerID, chatID int64) error {
	owned, err := c.communities.ListByOwner(ctx, ownerID)
	if err != nil {
		_ = c.sender.SendMessage(chatID, "Failed to load statistics, try again later.")
		return fmt.Errorf("list communities: %w", err)
	}

	if len(owned) == 0 {
		return c.sender.SendMessage(chatID, "You have no communities yet. Add the bot to your group as an admin to get started.")
	}

	var b strings.Builder
	b.WriteString("📊 <b>Your communities</b>\n")

	for _, community := range owned {
		summary, err := c.stats.Summary(ctx, community.ID)
		if err != nil {
			return fmt.Errorf("summary for community %d: %w", community.ID, err)
		}

		b.WriteString(fmt.Sprintf("\n<b>%s</b> (%s)\n", community.Title, summary.Status))
		b.WriteString(fmt.Sprintf("Members: %d\n", summary.MemberCount))
		b.WriteString(fmt.Sprintf("Active subscribers: %d\n", summary.ActiveSubscriberCount))
		b.WriteString(fmt.Sprintf("Completed payments: %d\n", summary.CompletedPaymentCount))
		b.WriteString(fmt.Sprintf("Revenue: %s\n", formatMinorUnits(summary.TotalRevenue)))
	}

	return c.sender.SendMessage(chatID, b.String())
}

func formatMinorUnits(amount int64) string {
	return fmt.Sprintf("%d.%02d", amount/100, amount%100)
}
