package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/Lex6452/lp/internal/domain"
)

// SQLiteRepo implements Repo on an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the database at path, applies PRAGMAs and
// runs migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// SQLite is a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteRepo{db: db}, nil
}

func (r *SQLiteRepo) Close() error { return r.db.Close() }

// --- Settings ---

func (r *SQLiteRepo) GetSettings(ctx context.Context, userID int64) (domain.Settings, error) {
	s := domain.Settings{UserID: userID}
	err := r.db.QueryRowContext(ctx,
		`SELECT prefix, delete_cmd, edit_text FROM user_settings WHERE user_id = ?`,
		userID,
	).Scan(&s.Prefix, &s.DeleteCmd, &s.EditText)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	return s, err
}

// upsertSetting writes one settings column, creating the row with defaults
// on first write.
func (r *SQLiteRepo) upsertSetting(ctx context.Context, userID int64, column, value string) error {
	q := fmt.Sprintf(
		`INSERT INTO user_settings (user_id, prefix, delete_cmd, edit_text) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET %s = excluded.%s`, column, column)
	def := domain.DefaultSettings(userID)
	row := map[string]string{
		"prefix":     def.Prefix,
		"delete_cmd": def.DeleteCmd,
		"edit_text":  def.EditText,
	}
	row[column] = value
	_, err := r.db.ExecContext(ctx, q, userID, row["prefix"], row["delete_cmd"], row["edit_text"])
	return err
}

func (r *SQLiteRepo) SetPrefix(ctx context.Context, userID int64, prefix string) error {
	return r.upsertSetting(ctx, userID, "prefix", prefix)
}

func (r *SQLiteRepo) SetDeleteCmd(ctx context.Context, userID int64, cmd string) error {
	return r.upsertSetting(ctx, userID, "delete_cmd", cmd)
}

func (r *SQLiteRepo) SetEditText(ctx context.Context, userID int64, text string) error {
	return r.upsertSetting(ctx, userID, "edit_text", text)
}

// --- Aliases ---

func (r *SQLiteRepo) SaveAlias(ctx context.Context, a domain.Alias) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO aliases (user_id, alias_name, command) VALUES (?, ?, ?)`,
		a.UserID, a.Name, a.Command)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *SQLiteRepo) DeleteAlias(ctx context.Context, userID int64, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM aliases WHERE user_id = ? AND alias_name = ?`, userID, name)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *SQLiteRepo) ListAliases(ctx context.Context, userID int64) ([]domain.Alias, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT alias_name, command FROM aliases WHERE user_id = ? ORDER BY alias_name`, userID)
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

func (r *SQLiteRepo) ResolveAlias(ctx context.Context, userID int64, name string) (string, error) {
	var cmd string
	err := r.db.QueryRowContext(ctx,
		`SELECT command FROM aliases WHERE user_id = ? AND alias_name = ?`, userID, name).Scan(&cmd)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return cmd, err
}

func (r *SQLiteRepo) AliasExists(ctx context.Context, userID int64, name string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM aliases WHERE user_id = ? AND alias_name = ?`, userID, name)
}

// --- Templates ---

func (r *SQLiteRepo) SaveTemplate(ctx context.Context, t domain.Template) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO templates (user_id, template_name, template_text) VALUES (?, ?, ?)`,
		t.UserID, t.Name, t.Text)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *SQLiteRepo) GetTemplate(ctx context.Context, userID int64, name string) (string, error) {
	var text string
	err := r.db.QueryRowContext(ctx,
		`SELECT template_text FROM templates WHERE user_id = ? AND template_name = ?`,
		userID, name).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return text, err
}

func (r *SQLiteRepo) DeleteTemplate(ctx context.Context, userID int64, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM templates WHERE user_id = ? AND template_name = ?`, userID, name)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *SQLiteRepo) ListTemplates(ctx context.Context, userID int64) ([]string, error) {
	return r.listNames(ctx,
		`SELECT template_name FROM templates WHERE user_id = ? ORDER BY template_name`, userID)
}

func (r *SQLiteRepo) TemplateExists(ctx context.Context, userID int64, name string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM templates WHERE user_id = ? AND template_name = ?`, userID, name)
}

// --- Voice clips / video notes (named files) ---

func (r *SQLiteRepo) SaveVoice(ctx context.Context, f domain.StoredFile) error {
	return r.saveFile(ctx, "voice_messages", "voice_name", f)
}

func (r *SQLiteRepo) VoicePath(ctx context.Context, userID int64, name string) (string, error) {
	return r.filePath(ctx, "voice_messages", "voice_name", userID, name)
}

func (r *SQLiteRepo) DeleteVoice(ctx context.Context, userID int64, name string) (string, error) {
	return r.deleteFile(ctx, "voice_messages", "voice_name", userID, name)
}

func (r *SQLiteRepo) ListVoices(ctx context.Context, userID int64) ([]string, error) {
	return r.listNames(ctx,
		`SELECT voice_name FROM voice_messages WHERE user_id = ? ORDER BY voice_name`, userID)
}

func (r *SQLiteRepo) VoiceExists(ctx context.Context, userID int64, name string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM voice_messages WHERE user_id = ? AND voice_name = ?`, userID, name)
}

func (r *SQLiteRepo) SaveVideoNote(ctx context.Context, f domain.StoredFile) error {
	return r.saveFile(ctx, "video_notes", "video_note_name", f)
}

func (r *SQLiteRepo) VideoNotePath(ctx context.Context, userID int64, name string) (string, error) {
	return r.filePath(ctx, "video_notes", "video_note_name", userID, name)
}

func (r *SQLiteRepo) DeleteVideoNote(ctx context.Context, userID int64, name string) (string, error) {
	return r.deleteFile(ctx, "video_notes", "video_note_name", userID, name)
}

func (r *SQLiteRepo) ListVideoNotes(ctx context.Context, userID int64) ([]string, error) {
	return r.listNames(ctx,
		`SELECT video_note_name FROM video_notes WHERE user_id = ? ORDER BY video_note_name`, userID)
}

func (r *SQLiteRepo) VideoNoteExists(ctx context.Context, userID int64, name string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM video_notes WHERE user_id = ? AND video_note_name = ?`, userID, name)
}

func (r *SQLiteRepo) saveFile(ctx context.Context, table, nameCol string, f domain.StoredFile) error {
	q := fmt.Sprintf(
		`INSERT OR IGNORE INTO %s (user_id, %s, file_path) VALUES (?, ?, ?)`, table, nameCol)
	res, err := r.db.ExecContext(ctx, q, f.UserID, f.Name, f.Path)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *SQLiteRepo) filePath(ctx context.Context, table, nameCol string, userID int64, name string) (string, error) {
	q := fmt.Sprintf(`SELECT file_path FROM %s WHERE user_id = ? AND %s = ?`, table, nameCol)
	var path string
	err := r.db.QueryRowContext(ctx, q, userID, name).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return path, err
}

// deleteFile removes the row and reports the path that was stored in it.
func (r *SQLiteRepo) deleteFile(ctx context.Context, table, nameCol string, userID int64, name string) (string, error) {
	path, err := r.filePath(ctx, table, nameCol, userID, name)
	if err != nil {
		return "", err
	}
	q := fmt.Sprintf(`DELETE FROM %s WHERE user_id = ? AND %s = ?`, table, nameCol)
	if _, err := r.db.ExecContext(ctx, q, userID, name); err != nil {
		return "", err
	}
	return path, nil
}

// --- Animations ---

func (r *SQLiteRepo) SaveAnimation(ctx context.Context, a domain.Animation) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO animations (user_id, anim_name, frames) VALUES (?, ?, ?)`,
		a.UserID, a.Name, domain.JoinFrames(a.Frames))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *SQLiteRepo) GetAnimation(ctx context.Context, userID int64, name string) ([]string, error) {
	var frames string
	err := r.db.QueryRowContext(ctx,
		`SELECT frames FROM animations WHERE user_id = ? AND anim_name = ?`, userID, name).Scan(&frames)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return domain.SplitFrames(frames), nil
}

func (r *SQLiteRepo) DeleteAnimation(ctx context.Context, userID int64, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM animations WHERE user_id = ? AND anim_name = ?`, userID, name)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *SQLiteRepo) ListAnimations(ctx context.Context, userID int64) ([]string, error) {
	return r.listNames(ctx,
		`SELECT anim_name FROM animations WHERE user_id = ? ORDER BY anim_name`, userID)
}

func (r *SQLiteRepo) AnimationExists(ctx context.Context, userID int64, name string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM animations WHERE user_id = ? AND anim_name = ?`, userID, name)
}

// --- Intervals ---

func (r *SQLiteRepo) SaveInterval(ctx context.Context, iv domain.Interval) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO intervals (user_id, interval_name, chat_id, period_minutes, interval_text)
		 VALUES (?, ?, ?, ?, ?)`,
		iv.UserID, iv.Name, iv.ChatID, iv.PeriodMinutes, iv.Text)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *SQLiteRepo) DeleteInterval(ctx context.Context, userID int64, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM intervals WHERE user_id = ? AND interval_name = ?`, userID, name)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *SQLiteRepo) ListIntervals(ctx context.Context, userID int64) ([]domain.Interval, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT interval_name, chat_id, period_minutes, interval_text
		 FROM intervals WHERE user_id = ? ORDER BY interval_name`, userID)
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

func (r *SQLiteRepo) CountIntervals(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM intervals WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

// --- Fake-presence intents ---

func (r *SQLiteRepo) AddActivity(ctx context.Context, a domain.Activity) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO fake_activities (user_id, chat_id, activity_type) VALUES (?, ?, ?)`,
		a.UserID, a.ChatID, a.Kind)
	return err
}

func (r *SQLiteRepo) RemoveActivity(ctx context.Context, a domain.Activity) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM fake_activities WHERE user_id = ? AND chat_id = ? AND activity_type = ?`,
		a.UserID, a.ChatID, a.Kind)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *SQLiteRepo) ListActivities(ctx context.Context, userID int64, kind string) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT chat_id FROM fake_activities WHERE user_id = ? AND activity_type = ? ORDER BY chat_id`,
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

func (r *SQLiteRepo) AddSpeedServer(ctx context.Context, name, url string) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO speed_servers (name, url) VALUES (?, ?)`, name, url)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *SQLiteRepo) RemoveSpeedServer(ctx context.Context, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM speed_servers WHERE name = ?`, name)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *SQLiteRepo) ListSpeedServers(ctx context.Context) ([]SpeedServer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, url FROM speed_servers ORDER BY id`)
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

func (r *SQLiteRepo) exists(ctx context.Context, q string, args ...any) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *SQLiteRepo) listNames(ctx context.Context, q string, userID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, q, userID)
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
