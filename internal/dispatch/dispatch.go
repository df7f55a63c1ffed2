// Package dispatch routes the owner's messages to feature handlers.
// Matching is per user: the command token is the user's prefix glued to
// the rule keyword, and unknown commands fall back to the alias table.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Lex6452/lp/internal/domain"
	"github.com/Lex6452/lp/internal/store"
)

// SettingsSource resolves per-user settings. store.Repo implements it.
type SettingsSource interface {
	GetSettings(ctx context.Context, userID int64) (domain.Settings, error)
}

// AliasSource resolves alias names. store.Repo implements it.
type AliasSource interface {
	ResolveAlias(ctx context.Context, userID int64, name string) (string, error)
}

// Responder delivers command results. The agent acts as the user, so a
// result replaces the command message itself.
type Responder interface {
	EditMessage(ctx context.Context, chatID int64, messageID int, text string) error
}

// Handler runs a matched command.
type Handler func(ctx context.Context, inv domain.Invocation, s domain.Settings) error

// Rule describes one command. Exactly one of Keyword or KeywordFn must
// be set; KeywordFn serves commands whose spelling lives in settings
// (the bare delete command).
type Rule struct {
	Name      string
	Keyword   string
	KeywordFn func(s domain.Settings) string
	// Bare commands match without the prefix.
	Bare bool
	// CaseFold matches the command token ignoring case. The default is
	// an exact comparison.
	CaseFold bool
	// MinTokens is the smallest token count (command included) the
	// handler accepts; short messages get Usage back instead.
	MinTokens int
	Usage     string
	// NeedReply requires the command to be sent in reply, optionally to
	// a specific media kind.
	NeedReply  bool
	ReplyMedia domain.MediaKind
	Handle     Handler
}

func (r Rule) token(s domain.Settings) string {
	kw := r.Keyword
	if r.KeywordFn != nil {
		kw = r.KeywordFn(s)
	}
	if r.Bare {
		return kw
	}
	return s.Prefix + kw
}

func (r Rule) matches(head string, s domain.Settings) bool {
	token := r.token(s)
	if r.CaseFold {
		return strings.EqualFold(head, token)
	}
	return head == token
}

// UserError carries a message meant for the chat, not the log.
type UserError struct{ msg string }

func (e *UserError) Error() string { return e.msg }

// Errorf builds a UserError. Handlers return it when the failure is the
// user's to fix (bad argument, missing record).
func Errorf(format string, a ...any) error {
	return &UserError{msg: fmt.Sprintf(format, a...)}
}

// Dispatcher matches invocations against registered rules in order and
// runs the first hit.
type Dispatcher struct {
	log      *zap.Logger
	settings SettingsSource
	aliases  AliasSource
	respond  Responder
	rules    []Rule
}

func New(log *zap.Logger, settings SettingsSource, aliases AliasSource, respond Responder) *Dispatcher {
	return &Dispatcher{
		log:      log,
		settings: settings,
		aliases:  aliases,
		respond:  respond,
	}
}

// Register appends rules. Order is significant: the first matching rule
// wins.
func (d *Dispatcher) Register(rules ...Rule) {
	d.rules = append(d.rules, rules...)
}

// Rules returns the registered rule list for help output.
func (d *Dispatcher) Rules() []Rule { return d.rules }

// Dispatch routes one invocation. It reports whether any rule ran.
func (d *Dispatcher) Dispatch(ctx context.Context, inv domain.Invocation) bool {
	s := d.settingsFor(ctx, inv.UserID)
	return d.dispatch(ctx, inv, s, true)
}

// settingsFor loads the user's settings once per message. A user with
// no row, or a failing store, gets the defaults so commands keep
// working.
func (d *Dispatcher) settingsFor(ctx context.Context, userID int64) domain.Settings {
	s, err := d.settings.GetSettings(ctx, userID)
	if err == nil {
		return s
	}
	if !errors.Is(err, store.ErrNotFound) {
		d.log.Warn("settings lookup failed, using defaults", zap.Int64("userID", userID), zap.Error(err))
	}
	return domain.DefaultSettings(userID)
}

func (d *Dispatcher) dispatch(ctx context.Context, inv domain.Invocation, s domain.Settings, allowAlias bool) bool {
	fields := inv.Args()
	if len(fields) == 0 {
		return false
	}
	head := fields[0]

	for i := range d.rules {
		r := &d.rules[i]
		if !r.matches(head, s) {
			continue
		}
		d.run(ctx, r, inv, s, fields)
		return true
	}

	if allowAlias {
		return d.tryAlias(ctx, inv, s)
	}
	return false
}

// tryAlias treats the whole message as an alias name and, on a hit,
// replays the stored command through the rule table once.
func (d *Dispatcher) tryAlias(ctx context.Context, inv domain.Invocation, s domain.Settings) bool {
	name := strings.TrimSpace(inv.Text)
	if name == "" {
		return false
	}
	command, err := d.aliases.ResolveAlias(ctx, inv.UserID, name)
	if err != nil {
		return false
	}
	if _, _, err := domain.ParseAliasTarget(s.Prefix, command); err != nil {
		d.log.Warn("stored alias no longer valid",
			zap.Int64("userID", inv.UserID), zap.String("alias", name), zap.Error(err))
		if errors.Is(err, domain.ErrNotAliasable) {
			d.report(ctx, inv, "⚠️ Команда в алиасе не поддерживается")
		} else {
			d.report(ctx, inv, "⚠️ Неверный формат команды в алиасе")
		}
		return true
	}
	return d.dispatch(ctx, inv.WithText(command), s, false)
}

// run enforces the rule's guards and executes the handler behind a
// panic boundary.
func (d *Dispatcher) run(ctx context.Context, r *Rule, inv domain.Invocation, s domain.Settings, fields []string) {
	if r.MinTokens > 0 && len(fields) < r.MinTokens {
		usage := strings.ReplaceAll(r.Usage, "{prefix}", s.Prefix)
		usage = strings.ReplaceAll(usage, "{delete_cmd}", s.DeleteCmd)
		d.report(ctx, inv, "Использование: "+usage)
		return
	}
	if r.NeedReply {
		if inv.ReplyTo == nil {
			d.report(ctx, inv, "Команда работает только ответом на сообщение")
			return
		}
		if r.ReplyMedia != domain.MediaNone && inv.ReplyTo.Kind != r.ReplyMedia {
			d.report(ctx, inv, "Ответьте на подходящее сообщение")
			return
		}
	}

	defer func() {
		if p := recover(); p != nil {
			d.log.Error("handler panicked",
				zap.String("rule", r.Name), zap.Int64("userID", inv.UserID), zap.Any("panic", p))
			d.report(ctx, inv, "⚠️ Команда завершилась с ошибкой")
		}
	}()

	if err := r.Handle(ctx, inv, s); err != nil {
		var ue *UserError
		if errors.As(err, &ue) {
			d.report(ctx, inv, "⚠️ "+ue.msg)
			return
		}
		d.log.Error("handler failed",
			zap.String("rule", r.Name), zap.Int64("userID", inv.UserID), zap.Error(err))
		d.report(ctx, inv, "⚠️ Команда завершилась с ошибкой")
	}
}

// report edits the command message with text. A failure here is logged
// and swallowed: there is nowhere left to surface it.
func (d *Dispatcher) report(ctx context.Context, inv domain.Invocation, text string) {
	if err := d.respond.EditMessage(ctx, inv.ChatID, inv.MessageID, text); err != nil {
		d.log.Warn("report failed", zap.Int64("chatID", inv.ChatID), zap.Error(err))
	}
}
