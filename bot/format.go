package bot

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgmodels "github.com/go-telegram/bot/models"

	"waifubot/models"
)

// formatGems renders an amount with a thousands separator and the gem mark
func formatGems(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var out strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(r)
	}

	result := out.String() + " 💎"
	if neg {
		return "-" + result
	}
	return result
}

// mention renders a clickable user mention
func mention(telegramID int64, name string) string {
	return fmt.Sprintf("<a href=\"tg://user?id=%d\">%s</a>", telegramID, html.EscapeString(name))
}

// formatCharacter renders a one-line character label
func formatCharacter(c *models.OwnedCharacter) string {
	return fmt.Sprintf("%s <b>%s</b> · %s", c.Rarity.Emoji(), html.EscapeString(c.Name), html.EscapeString(c.Series))
}

// commandArgs splits a command message into its arguments, dropping the
// command itself (and any @botname suffix)
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	return fields[1:]
}

// replyError reports a failed operation to the chat. Service errors are
// phrased for users already; anything else gets a generic line.
func (b *Bot) replyError(ctx context.Context, chatID int64, err error) {
	b.sendMessage(ctx, chatID, "❌ "+html.EscapeString(userFacing(err)), nil)
}

func userFacing(err error) string {
	if err == nil {
		return "something went wrong"
	}
	msg := err.Error()
	// Internal wrap chains read badly in chat; show only their last segment
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

// replyTo extracts the replied-to user from a message, if any
func replyTo(msg *tgmodels.Message) *tgmodels.User {
	if msg.ReplyToMessage == nil {
		return nil
	}
	return msg.ReplyToMessage.From
}
