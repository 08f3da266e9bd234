package input

// BotRegistry maps bot names to bots.
type BotRegistry interface {
	Register(bot Bot)
	Get(name string) (Bot, bool)
	Names() []string
	All() []Bot
}
