package service

import (
	"sort"
	"sync"

	"ufunda-orchestrator/internal/application/port/input"
)

var _ input.BotRegistry = (*BotRegistryImpl)(nil)

type BotRegistryImpl struct {
	mu   sync.RWMutex
	bots map[string]input.Bot
}

func NewBotRegistry(bots ...input.Bot) *BotRegistryImpl {
	r := &BotRegistryImpl{
		bots: make(map[string]input.Bot, len(bots)),
	}
	for _, b := range bots {
		r.Register(b)
	}
	return r
}

// Register adds bot, replacing any bot already registered under the same name.
func (r *BotRegistryImpl) Register(bot input.Bot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bots[bot.Name()] = bot
}

func (r *BotRegistryImpl) Get(name string) (input.Bot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bot, ok := r.bots[name]
	return bot, ok
}

// Names returns the registered bot names in sorted order.
func (r *BotRegistryImpl) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.bots))
	for name := range r.bots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *BotRegistryImpl) All() []input.Bot {
	names := r.Names()

	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]input.Bot, 0, len(names))
	for _, name := range names {
		result = append(result, r.bots[name])
	}
	return result
}
