package cmds

import (
	"context"
	"fmt"
	"strings"
)

type CommunitiesCommand struct {
	sender      Sender
	communities CommunityLister
}

func NewCommunitiesCommand(sender Sender, communities CommunityLister) *CommunitiesCommand {
	return &CommunitiesCommand{
		sender:      sender,
		communities: communities,
	}
}

func (c *CommunitiesCommand) Execute(ctx context.Context, ownerID, chatID int64) error {
	owned, err := c.communities.ListByOwner(ctx, ownerID)
	if err != nil {
		_ = c.sender.SendMessage(chatID, "Failed to load communities, try again later.")
		return fmt.Errorf("list communities: %w", err)
	}

	if len(owned) == 0 {
		return c.sender.SendMessage(chatID, "You have no communities yet. Add the bot to your group as an admin to get started.")
	}

	for _, community := range owned {
		// Best effort: a stale counter is still shown.
		_ = c.communities.RefreshMemberCount(ctx, community.ID)
	}

	owned, err = c.communities.ListByOwner(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("list communities: %w", err)
	}

	var b strings.Builder
	b.WriteString("👥 <b>Managed communities</b>\n")

	for _, community := range owned {
		b.WriteString(fmt.Sprintf("\n<b>%s</b>\n", community.Title))
		b.WriteString(fmt.Sprintf("Chat ID: %d\n", community.ChatID))
		b.WriteString(fmt.Sprintf("Members: %d\n", community.MemberCount))
		if community.InviteLink != nil && *community.InviteLink != "" {
			b.WriteString(fmt.Sprintf("Invite: %s\n", *community.InviteLink))
		}
	}

	return c.sender.SendMessage(chatID, b.String())
}
