package bot

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

// registerCommands wires every slash command to its handler
func (b *Bot) registerCommands() {
	commands := map[string]tgbot.HandlerFunc{
		"/start":    b.startHandler,
		"/help":     b.helpHandler,
		"/balance":  b.balanceHandler,
		"/daily":    b.dailyHandler,
		"/deposit":  b.depositHandler,
		"/withdraw": b.withdrawHandler,
		"/pay":      b.payHandler,
		"/gamble":   b.gambleHandler,
		"/grab":     b.grabHandler,
		"/harem":    b.haremHandler,
		"/raid":     b.raidHandler,
		"/trade":    b.tradeHandler,
		"/pass":     b.passHandler,
		"/top":      b.topHandler,
		"/profile":  b.profileHandler,
		"/settings": b.settingsHandler,

		// Owner-only catalog and account commands
		"/addchar":     b.addCharHandler,
		"/removechar":  b.removeCharHandler,
		"/restorechar": b.restoreCharHandler,
		"/series":      b.seriesHandler,
		"/zero":        b.zeroHandler,
		"/wipe":        b.wipeHandler,
	}

	for cmd, handler := range commands {
		b.tg.RegisterHandler(tgbot.HandlerTypeMessageText, cmd, tgbot.MatchTypeExact, handler)
		b.tg.RegisterHandler(tgbot.HandlerTypeMessageText, cmd+" ", tgbot.MatchTypePrefix, handler)
		// Commands addressed to the bot in groups arrive as /cmd@botname
		b.tg.RegisterHandler(tgbot.HandlerTypeMessageText, cmd+"@", tgbot.MatchTypePrefix, handler)
	}
}

const helpText = `<b>Commands</b>

💰 <b>Economy</b>
/balance — wallet and bank
/daily — claim your daily gems
/deposit &lt;amount&gt; — stash gems in the bank
/withdraw &lt;amount&gt; — take gems out
/pay &lt;amount&gt; — reply to someone to pay them
/gamble &lt;amount&gt; [chance%] — risk it

🎴 <b>Characters</b>
/grab &lt;name&gt; — claim the character on screen
/harem — browse your collection
/trade &lt;your #&gt; &lt;their #&gt; — reply to someone to offer a swap

⚔️ <b>Raids</b>
/raid — start a raid, others join with the button

🎫 <b>Pass</b>
/pass — status · /pass buy silver|gold · /pass claim

📊 <b>Stats</b>
/top — chat scoreboard
/profile — your profile`

func (b *Bot) helpHandler(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	b.sendMessage(ctx, update.Message.Chat.ID, helpText, nil)
}

func (b *Bot) startHandler(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	user, err := b.userService.GetOrCreateUser(ctx, update.Message.From.ID, displayName(update.Message.From))
	if err != nil {
		b.replyError(ctx, update.Message.Chat.ID, err)
		return
	}

	text := "Welcome back!"
	if user.Balance == b.cfg.StartingBalance && user.Experience == 0 {
		text = "Welcome! You start with <b>" + formatGems(user.Balance) + "</b>."
	}
	b.sendMessage(ctx, update.Message.Chat.ID, text+"\n\nSee /help for commands.", nil)
}
