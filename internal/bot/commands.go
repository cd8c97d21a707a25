package bot

// Command constants for Telegram bot commands.
const (
	CommandStart    = "/start"
	CommandTokens   = "/tokens"
	CommandStats    = "/stats"
	CommandWallet   = "/wallet"
	CommandLanguage = "/language"
	CommandCancel   = "/cancel"
	CommandHelp     = "/help"
)

// menuCommands maps main menu translation keys to the command they trigger.
var menuCommands = map[string]string{
	"menu.tokens":   CommandTokens,
	"menu.stats":    CommandStats,
	"menu.wallet":   CommandWallet,
	"menu.language": CommandLanguage,
}
