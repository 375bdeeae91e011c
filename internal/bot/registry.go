package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

// CommandFunc handles a bot command message.
type CommandFunc func(ctx context.Context, msg *tgbotapi.Message) error

// CallbackFunc handles a component interaction. For parameterized ids, arg
// carries everything after the registered prefix.
type CallbackFunc func(ctx context.Context, cb *tgbotapi.CallbackQuery, arg string) error

type prefixEntry struct {
	prefix  string
	handler CallbackFunc
}

// Registry maps command names and callback-data patterns to handlers. It is
// populated once at startup and read-only afterwards.
type Registry struct {
	commands map[string]CommandFunc
	exact    map[string]CallbackFunc
	prefixes []prefixEntry
}

func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]CommandFunc),
		exact:    make(map[string]CallbackFunc),
	}
}

// Command registers a handler for a bot command (without the leading "/").
func (r *Registry) Command(name string, fn CommandFunc) {
	r.commands[name] = fn
}

// Callback registers a handler for an exact callback id.
func (r *Registry) Callback(id string, fn CallbackFunc) {
	r.exact[id] = fn
}

// CallbackPrefix registers a handler for parameterized callback ids of the
// form "<prefix>:<arg>".
func (r *Registry) CallbackPrefix(prefix string, fn CallbackFunc) {
	r.prefixes = append(r.prefixes, prefixEntry{prefix: prefix, handler: fn})
}

// LookupCommand finds the handler for a command name.
func (r *Registry) LookupCommand(name string) (CommandFunc, bool) {
	fn, ok := r.commands[name]
	return fn, ok
}

// LookupCallback finds the handler for callback data. Exact ids win over
// prefixes; for a prefix match the returned arg is the remainder after the
// "<prefix>:" separator.
func (r *Registry) LookupCallback(data string) (CallbackFunc, string, bool) {
	if fn, ok := r.exact[data]; ok {
		return fn, "", true
	}
	for _, entry := range r.prefixes {
		if arg, found := strings.CutPrefix(data, entry.prefix+":"); found {
			return entry.handler, arg, true
		}
	}
	return nil, "", false
}
