// Package handlers implements the command surface: settings, aliases,
// stored media, background tasks and the info commands. Each family
// lives in its own file and registers dispatch rules through Register.
package handlers

import (
	"context"
	"time"

	"github.com/jmhodges/clock"
	"go.uber.org/zap"

	"github.com/Lex6452/lp/internal/dispatch"
	"github.com/Lex6452/lp/internal/lookup"
	"github.com/Lex6452/lp/internal/media"
	"github.com/Lex6452/lp/internal/store"
	"github.com/Lex6452/lp/internal/tasks"
	"github.com/Lex6452/lp/internal/telegram"

	"github.com/Lex6452/lp/internal/domain"
)

// Deps carries everything the handlers need. Tests fill it with fakes.
type Deps struct {
	Log   *zap.Logger
	Repo  store.Repo
	API   telegram.API
	Tasks *tasks.Registry
	Look  *lookup.Client
	Media *media.Transcoder
	Clk   clock.Clock

	// DataDir is where downloaded voice clips and video notes live.
	DataDir string

	// TaskCtx is the application lifetime context. Background loops
	// run under it, not under the message that started them.
	TaskCtx context.Context

	// Trap pictures, embedded at build time.
	TrapSet    []byte
	TrapSprung []byte

	// OnForeign registers a hook for messages from other users. The
	// router provides it; nil disables features that need one.
	OnForeign func(telegram.ForeignHook)
}

// Register wires every command family onto the dispatcher. Order
// matters only for readability here: rules match on exact command
// tokens.
func Register(d *dispatch.Dispatcher, deps *Deps) {
	registerSettings(d, deps)
	registerAliases(d, deps)
	registerTemplates(d, deps)
	registerVoices(d, deps)
	registerVideoNotes(d, deps)
	registerAnimations(d, deps)
	registerActivities(d, deps)
	registerOnline(d, deps)
	registerIntervals(d, deps)
	registerTypewriter(d, deps)
	registerSpam(d, deps)
	registerMegapush(d, deps)
	registerChoose(d, deps)
	registerPing(d, deps)
	registerTrap(d, deps)
	registerConv(d, deps)
	registerID(d, deps)
	registerLookups(d, deps)
	registerServer(d, deps)
	registerHelp(d, deps)
	// Bare rules come last so a prefixed command never falls through
	// to them.
	registerDeleter(d, deps)
}

// edit replaces the command message with text.
func (d *Deps) edit(ctx context.Context, inv domain.Invocation, text string) error {
	return d.API.EditMessage(ctx, inv.ChatID, inv.MessageID, text)
}

// sleep pauses for dur or until ctx is canceled.
func (d *Deps) sleep(ctx context.Context, dur time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-d.Clk.After(dur):
		return nil
	}
}
