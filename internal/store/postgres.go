package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Lex6452/lp/internal/domain"
)

// pgQuerier is the slice of pgxpool.Pool the repository needs. Tests
// substitute a pgxmock pool.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresRepo implements Repo on a PostgreSQL pool.
type PostgresRepo struct{ pool pgQuerier }

// NewPostgresRepo wraps an existing pool (used by tests).
func NewPostgresRepo(pool pgQuerier) *PostgresRepo { return &PostgresRepo{pool: pool} }

// OpenPostgres connects to connStr and ensures the schema exists.
func OpenPostgres(ctx context.Context, connStr string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}
	r := &PostgresRepo{pool: pool}
	if err := r.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return r, nil
}

var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS user_settings (
		user_id    BIGINT PRIMARY KEY,
		prefix     TEXT NOT NULL,
		delete_cmd TEXT NOT NULL,
		edit_text  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS aliases (
		user_id    BIGINT NOT NULL,
		alias_name TEXT NOT NULL,
		command    TEXT NOT NULL,
		PRIMARY KEY (user_id, alias_name)
	)`,
	`CREATE TABLE IF NOT EXISTS templates (
		user_id       BIGINT NOT NULL,
		template_name TEXT NOT NULL,
		template_text TEXT NOT NULL,
		PRIMARY KEY (user_id, template_name)
	)`,
	`CREATE TABLE IF NOT EXISTS voice_messages (
		user_id    BIGINT NOT NULL,
		voice_name TEXT NOT NULL,
		file_path  TEXT NOT NULL,
		PRIMARY KEY (user_id, voice_name)
	)`,
	`CREATE TABLE IF NOT EXISTS video_notes (
		user_id         BIGINT NOT NULL,
		video_note_name TEXT NOT NULL,
		file_path       TEXT NOT NULL,
		PRIMARY KEY (user_id, video_note_name)
	)`,
	`CREATE TABLE IF NOT EXISTS animations (
		user_id   BIGINT NOT NULL,
		anim_name TEXT NOT NULL,
		frames    TEXT NOT NULL,
		PRIMARY KEY (user_id, anim_name)
	)`,
	`CREATE TABLE IF NOT EXISTS intervals (
		user_id        BIGINT NOT NULL,
		interval_name  TEXT NOT NULL,
		chat_id        BIGINT NOT NULL,
		period_minutes INT NOT NULL,
		interval_text  TEXT NOT NULL,
		PRIMARY KEY (user_id, interval_name)
	)`,
	`CREATE TABLE IF NOT EXISTS fake_activities (
		user_id       BIGINT NOT NULL,
		chat_id       BIGINT NOT NULL,
		activity_type TEXT NOT NULL,
		PRIMARY KEY (user_id, chat_id, activity_type)
	)`,
	`CREATE TABLE IF NOT EXISTS speed_servers (
		id   SERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		url  TEXT NOT NULL
	)`,
}

func (r *PostgresRepo) initSchema(ctx context.Context) error {
	for _, ddl := range pgSchema {
		if _, err := r.pool.Exec(ctx, ddl); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresRepo) Close() error {
	r.pool.Close()
	return nil
}

// --- Settings ---

func (r *PostgresRepo) GetSettings(ctx context.Context, userID int64) (domain.Settings, error) {
	s := domain.Settings{UserID: userID}
	err := r.pool.QueryRow(ctx,
		`SELECT prefix, delete_cmd, edit_text FROM user_settings WHERE user_id = $1`,
		userID,
	).Scan(&s.Prefix, &s.DeleteCmd, &s.EditText)
	if errors.Is(err, pgx.ErrNoRows) {
		return s, ErrNotFound
	}
	return s, err
}

func (r *PostgresRepo) upsertSetting(ctx context.Context, userID int64, column, value string) error {
	q := fmt.Sprintf(
		`INSERT INTO user_settings (user_id, prefix, delete_cmd, edit_text) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE SET %s = EXCLUDED.%s`, column, column)
	def := domain.DefaultSettings(userID)
	row := map[string]string{
		"prefix":     def.Prefix,
		"delete_cmd": def.DeleteCmd,
		"edit_text":  def.EditText,
	}
	row[column] = value
	_, err := r.pool.Exec(ctx, q, userID, row["prefix"], row["delete_cmd"], row["edit_text"])
	return err
}

func (r *PostgresRepo) SetPrefix(ctx context.Context, userID int64, prefix string) error {
	return r.upsertSetting(ctx, userID, "prefix", prefix)
}

func (r *PostgresRepo) SetDeleteCmd(ctx context.Context, userID int64, cmd string) error {
	return r.upsertSetting(ctx, userID, "delete_cmd", cmd)
}

func (r *PostgresRepo) SetEditText(ctx context.Context, userID int64, text string) error {
	return r.upsertSetting(ctx, userID, "edit_text", text)
}

// --- Aliases ---

func (r *PostgresRepo) SaveAlias(ctx context.Context, a domain.Alias) error {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO aliases (user_id, alias_name, command) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		a.UserID, a.Name, a.Command)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *PostgresRepo) DeleteAlias(ctx context.Context, userID int64, name string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM aliases WHERE user_id = $1 AND alias_name = $2`, userID, name)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepo) ListAliases(ctx context.Context, userID int64) ([]domain.Alias, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT alias_name, command FROM aliases WHERE user_id = $1 ORDER BY alias_name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Alias
	for rows.Next() {
		a := domain.Alias{UserID: userID}
		if err := rows.Scan(&a.Name, &a.Command); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ResolveAlias(ctx context.Context, userID int64, name string) (string, error) {
	var cmd string
	err := r.pool.QueryRow(ctx,
		`SELECT command FROM aliases WHERE user_id = $1 AND alias_name = $2`, userID, name).Scan(&cmd)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return cmd, err
}

func (r *PostgresRepo) AliasExists(ctx context.Context, userID int64, name string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM aliases WHERE user_id = $1 AND alias_name = $2`, userID, name)
}

// --- Templates ---

func (r *PostgresRepo) SaveTemplate(ctx context.Context, t domain.Template) error {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO templates (user_id, template_name, template_text) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		t.UserID, t.Name, t.Text)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *PostgresRepo) GetTemplate(ctx context.Context, userID int64, name string) (string, error) {
	var text string
	err := r.pool.QueryRow(ctx,
		`SELECT template_text FROM templates WHERE user_id = $1 AND template_name = $2`,
		userID, name).Scan(&text)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return text, err
}

func (r *PostgresRepo) DeleteTemplate(ctx context.Context, userID int64, name string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM templates WHERE user_id = $1 AND template_name = $2`, userID, name)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepo) ListTemplates(ctx context.Context, userID int64) ([]string, error) {
	return r.listNames(ctx,
		`SELECT template_name FROM templates WHERE user_id = $1 ORDER BY template_name`, userID)
}

func (r *PostgresRepo) TemplateExists(ctx context.Context, userID int64, name string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM templates WHERE user_id = $1 AND template_name = $2`, userID, name)
}

// --- Voice clips / video notes ---

func (r *PostgresRepo) SaveVoice(ctx context.Context, f domain.StoredFile) error {
	return r.saveFile(ctx, "voice_messages", "voice_name", f)
}

func (r *PostgresRepo) VoicePath(ctx context.Context, userID int64, name string) (string, error) {
	return r.filePath(ctx, "voice_messages", "voice_name", userID, name)
}

func (r *PostgresRepo) DeleteVoice(ctx context.Context, userID int64, name string) (string, error) {
	return r.deleteFile(ctx, "voice_messages", "voice_name", userID, name)
}

func (r *PostgresRepo) ListVoices(ctx context.Context, userID int64) ([]string, error) {
	return r.listNames(ctx,
		`SELECT voice_name FROM voice_messages WHERE user_id = $1 ORDER BY voice_name`, userID)
}

func (r *PostgresRepo) VoiceExists(ctx context.Context, userID int64, name string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM voice_messages WHERE user_id = $1 AND voice_name = $2`, userID, name)
}

func (r *PostgresRepo) SaveVideoNote(ctx context.Context, f domain.StoredFile) error {
	return r.saveFile(ctx, "video_notes", "video_note_name", f)
}

func (r *PostgresRepo) VideoNotePath(ctx context.Context, userID int64, name string) (string, error) {
	return r.filePath(ctx, "video_notes", "video_note_name", userID, name)
}

func (r *PostgresRepo) DeleteVideoNote(ctx context.Context, userID int64, name string) (string, error) {
	return r.deleteFile(ctx, "video_notes", "video_note_name", userID, name)
}

func (r *PostgresRepo) ListVideoNotes(ctx context.Context, userID int64) ([]string, error) {
	return r.listNames(ctx,
		`SELECT video_note_name FROM video_notes WHERE user_id = $1 ORDER BY video_note_name`, userID)
}

func (r *PostgresRepo) VideoNoteExists(ctx context.Context, userID int64, name string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM video_notes WHERE user_id = $1 AND video_note_name = $2`, userID, name)
}

func (r *PostgresRepo) saveFile(ctx context.Context, table, nameCol string, f domain.StoredFile) error {
	q := fmt.Sprintf(
		`INSERT INTO %s (user_id, %s, file_path) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`, table, nameCol)
	tag, err := r.pool.Exec(ctx, q, f.UserID, f.Name, f.Path)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *PostgresRepo) filePath(ctx context.Context, table, nameCol string, userID int64, name string) (string, error) {
	q := fmt.Sprintf(`SELECT file_path FROM %s WHERE user_id = $1 AND %s = $2`, table, nameCol)
	var path string
	err := r.pool.QueryRow(ctx, q, userID, name).Scan(&path)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return path, err
}

func (r *PostgresRepo) deleteFile(ctx context.Context, table, nameCol string, userID int64, name string) (string, error) {
	path, err := r.filePath(ctx, table, nameCol, userID, name)
	if err != nil {
		return "", err
	}
	q := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1 AND %s = $2`, table, nameCol)
	if _, err := r.pool.Exec(ctx, q, userID, name); err != nil {
		return "", err
	}
	return path, nil
}

// --- Animations ---

func (r *PostgresRepo) SaveAnimation(ctx context.Context, a domain.Animation) error {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO animations (user_id, anim_name, frames) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		a.UserID, a.Name, domain.JoinFrames(a.Frames))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *PostgresRepo) GetAnimation(ctx context.Context, userID int64, name string) ([]string, error) {
	var frames string
	err := r.pool.QueryRow(ctx,
		`SELECT frames FROM animations WHERE user_id = $1 AND anim_name = $2`, userID, name).Scan(&frames)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return domain.SplitFrames(frames), nil
}

func (r *PostgresRepo) DeleteAnimation(ctx context.Context, userID int64, name string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM animations WHERE user_id = $1 AND anim_name = $2`, userID, name)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepo) ListAnimations(ctx context.Context, userID int64) ([]string, error) {
	return r.listNames(ctx,
		`SELECT anim_name FROM animations WHERE user_id = $1 ORDER BY anim_name`, userID)
}

func (r *PostgresRepo) AnimationExists(ctx context.Context, userID int64, name string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM animations WHERE user_id = $1 AND anim_name = $2`, userID, name)
}

// --- Intervals ---

func (r *PostgresRepo) SaveInterval(ctx context.Context, iv domain.Interval) error {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO intervals (user_id, interval_name, chat_id, period_minutes, interval_text)
		 VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING`,
		iv.UserID, iv.Name, iv.ChatID, iv.PeriodMinutes, iv.Text)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *PostgresRepo) DeleteInterval(ctx context.Context, userID int64, name string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM intervals WHERE user_id = $1 AND interval_name = $2`, userID, name)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepo) ListIntervals(ctx context.Context, userID int64) ([]domain.Interval, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT interval_name, chat_id, period_minutes, interval_text
		 FROM intervals WHERE user_id = $1 ORDER BY interval_name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Interval
	for rows.Next() {
		iv := domain.Interval{UserID: userID}
		if err := rows.Scan(&iv.Name, &iv.ChatID, &iv.PeriodMinutes, &iv.Text); err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) CountIntervals(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM intervals WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

// --- Fake-presence intents ---

func (r *PostgresRepo) AddActivity(ctx context.Context, a domain.Activity) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO fake_activities (user_id, chat_id, activity_type) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		a.UserID, a.ChatID, a.Kind)
	return err
}

func (r *PostgresRepo) RemoveActivity(ctx context.Context, a domain.Activity) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM fake_activities WHERE user_id = $1 AND chat_id = $2 AND activity_type = $3`,
		a.UserID, a.ChatID, a.Kind)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepo) ListActivities(ctx context.Context, userID int64, kind string) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT chat_id FROM fake_activities WHERE user_id = $1 AND activity_type = $2 ORDER BY chat_id`,
		userID, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// --- Speed-test servers ---

func (r *PostgresRepo) AddSpeedServer(ctx context.Context, name, url string) error {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO speed_servers (name, url) VALUES ($1, $2) ON CONFLICT DO NOTHING`, name, url)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *PostgresRepo) RemoveSpeedServer(ctx context.Context, name string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM speed_servers WHERE name = $1`, name)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepo) ListSpeedServers(ctx context.Context) ([]SpeedServer, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, url FROM speed_servers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SpeedServer
	for rows.Next() {
		var s SpeedServer
		if err := rows.Scan(&s.ID, &s.Name, &s.URL); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// --- shared helpers ---

func (r *PostgresRepo) exists(ctx context.Context, q string, args ...any) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx, q, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *PostgresRepo) listNames(ctx context.Context, q string, userID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
