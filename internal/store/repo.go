package store

import (
	"context"
	"errors"

	"github.com/Lex6452/lp/internal/domain"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique key already exists.
	ErrDuplicate = errors.New("already exists")
)

// Repo defines storage operations for all persisted entities. Each method is
// an independent single-statement operation; there are no multi-statement
// transactions and concurrent writers to the same key are last-write-wins.
type Repo interface {
	// Settings. GetSettings returns ErrNotFound when the user has no row;
	// callers fall back to domain.DefaultSettings. Setters upsert lazily.
	GetSettings(ctx context.Context, userID int64) (domain.Settings, error)
	SetPrefix(ctx context.Context, userID int64, prefix string) error
	SetDeleteCmd(ctx context.Context, userID int64, cmd string) error
	SetEditText(ctx context.Context, userID int64, text string) error

	// Aliases. SaveAlias returns ErrDuplicate on key collision; ResolveAlias
	// returns ErrNotFound for an unknown name; ListAliases is alphabetical.
	SaveAlias(ctx context.Context, a domain.Alias) error
	DeleteAlias(ctx context.Context, userID int64, name string) (bool, error)
	ListAliases(ctx context.Context, userID int64) ([]domain.Alias, error)
	ResolveAlias(ctx context.Context, userID int64, name string) (string, error)
	AliasExists(ctx context.Context, userID int64, name string) (bool, error)

	// Templates.
	SaveTemplate(ctx context.Context, t domain.Template) error
	GetTemplate(ctx context.Context, userID int64, name string) (string, error)
	DeleteTemplate(ctx context.Context, userID int64, name string) (bool, error)
	ListTemplates(ctx context.Context, userID int64) ([]string, error)
	TemplateExists(ctx context.Context, userID int64, name string) (bool, error)

	// Voice clips and video notes: named files on disk. Delete returns the
	// removed file path so the caller can unlink it.
	SaveVoice(ctx context.Context, f domain.StoredFile) error
	VoicePath(ctx context.Context, userID int64, name string) (string, error)
	DeleteVoice(ctx context.Context, userID int64, name string) (string, error)
	ListVoices(ctx context.Context, userID int64) ([]string, error)
	VoiceExists(ctx context.Context, userID int64, name string) (bool, error)

	SaveVideoNote(ctx context.Context, f domain.StoredFile) error
	VideoNotePath(ctx context.Context, userID int64, name string) (string, error)
	DeleteVideoNote(ctx context.Context, userID int64, name string) (string, error)
	ListVideoNotes(ctx context.Context, userID int64) ([]string, error)
	VideoNoteExists(ctx context.Context, userID int64, name string) (bool, error)

	// Animations.
	SaveAnimation(ctx context.Context, a domain.Animation) error
	GetAnimation(ctx context.Context, userID int64, name string) ([]string, error)
	DeleteAnimation(ctx context.Context, userID int64, name string) (bool, error)
	ListAnimations(ctx context.Context, userID int64) ([]string, error)
	AnimationExists(ctx context.Context, userID int64, name string) (bool, error)

	// Intervals.
	SaveInterval(ctx context.Context, iv domain.Interval) error
	DeleteInterval(ctx context.Context, userID int64, name string) (bool, error)
	ListIntervals(ctx context.Context, userID int64) ([]domain.Interval, error)
	CountIntervals(ctx context.Context, userID int64) (int, error)

	// Fake-presence intents.
	AddActivity(ctx context.Context, a domain.Activity) error
	RemoveActivity(ctx context.Context, a domain.Activity) (bool, error)
	ListActivities(ctx context.Context, userID int64, kind string) ([]int64, error)

	// Speed-test servers (global registry).
	AddSpeedServer(ctx context.Context, name, url string) error
	RemoveSpeedServer(ctx context.Context, name string) (bool, error)
	ListSpeedServers(ctx context.Context) ([]SpeedServer, error)

	Close() error
}

// SpeedServer is a named speed-test endpoint.
type SpeedServer struct {
	ID   int64
	Name string
	URL  string
}
