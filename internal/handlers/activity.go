package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Lex6452/lp/internal/dispatch"
	"github.com/Lex6452/lp/internal/domain"
	"github.com/Lex6452/lp/internal/tasks"
	"github.com/Lex6452/lp/internal/telegram"
)

// actionRefresh is how often the chat action must be resent to stay
// visible.
const actionRefresh = 5 * time.Second

type activityFamily struct {
	kind    string
	action  string
	label   string
	addKw   string
	delKw   string
	listKw  string
	feature string
}

var activityFamilies = []activityFamily{
	{
		kind: domain.ActivityVoice, action: telegram.ActionRecordVoice, label: "Симуляция голосового",
		addKw: "+гсф", delKw: "-гсф", listKw: "гсф", feature: "fake-voice",
	},
	{
		kind: domain.ActivityTyping, action: telegram.ActionTyping, label: "Симуляция набора текста",
		addKw: "+смсф", delKw: "-смсф", listKw: "смсф", feature: "fake-typing",
	},
}

func registerActivities(d *dispatch.Dispatcher, deps *Deps) {
	for _, f := range activityFamilies {
		registerActivityFamily(d, deps, f)
	}
}

func registerActivityFamily(d *dispatch.Dispatcher, deps *Deps, f activityFamily) {
	key := func(inv domain.Invocation) tasks.Key {
		return tasks.Key{UserID: inv.UserID, ChatID: inv.ChatID, Feature: f.feature}
	}

	d.Register(
		dispatch.Rule{
			Name: f.feature + "-start", Keyword: f.addKw,
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				if deps.Tasks.Active(key(inv)) {
					return dispatch.Errorf("%s уже активна в этом чате!", f.label)
				}
				if err := deps.Repo.AddActivity(ctx, domain.Activity{UserID: inv.UserID, ChatID: inv.ChatID, Kind: f.kind}); err != nil {
					return fmt.Errorf("add activity: %w", err)
				}
				startActivity(deps, key(inv), inv.ChatID, f.action)
				return deps.edit(ctx, inv, fmt.Sprintf("✅ %s включена в этом чате!", f.label))
			},
		},
		dispatch.Rule{
			Name: f.feature + "-stop", Keyword: f.delKw,
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				if !deps.Tasks.Stop(key(inv)) {
					return dispatch.Errorf("%s не активна в этом чате!", f.label)
				}
				if _, err := deps.Repo.RemoveActivity(ctx, domain.Activity{UserID: inv.UserID, ChatID: inv.ChatID, Kind: f.kind}); err != nil {
					return fmt.Errorf("remove activity: %w", err)
				}
				return deps.edit(ctx, inv, fmt.Sprintf("✅ %s отключена в этом чате!", f.label))
			},
		},
		dispatch.Rule{
			Name: f.feature + "-list", Keyword: f.listKw,
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				chats, err := deps.Repo.ListActivities(ctx, inv.UserID, f.kind)
				if err != nil {
					return fmt.Errorf("list activities: %w", err)
				}
				// Report only chats with a live loop: persisted rows are
				// intent, not state.
				var lines []string
				for _, chatID := range chats {
					if !deps.Tasks.Active(tasks.Key{UserID: inv.UserID, ChatID: chatID, Feature: f.feature}) {
						continue
					}
					title, err := deps.API.ChatTitle(ctx, chatID)
					if err != nil || title == "" {
						title = fmt.Sprintf("Чат %d", chatID)
					}
					lines = append(lines, fmt.Sprintf("%d. %s (ID: %d)", len(lines)+1, title, chatID))
				}
				if len(lines) == 0 {
					return deps.edit(ctx, inv, fmt.Sprintf("📂 Нет чатов с активной симуляцией (%s)!", strings.ToLower(f.label)))
				}
				return deps.edit(ctx, inv, fmt.Sprintf("📂 %s активна в чатах:\n\n%s", f.label, strings.Join(lines, "\n")))
			},
		},
	)
}

// startActivity runs the chat-action refresh loop for one chat.
func startActivity(deps *Deps, key tasks.Key, chatID int64, action string) {
	deps.Tasks.Start(deps.TaskCtx, key, actionRefresh, func(ctx context.Context) error {
		return deps.API.SendChatAction(ctx, chatID, action)
	})
}
