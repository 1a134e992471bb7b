package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteTimeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) CreateMedication(ctx context.Context, in Medication) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medications (id, name, dosage, instructions, image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Name, in.Dosage, in.Instructions, in.ImageURL, mustTime(in.CreatedAt), mustTime(in.UpdatedAt),
	)
	return err
}

func (r *SQLiteRepository) GetMedication(ctx context.Context, id string) (Medication, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, dosage, instructions, image_url, created_at, updated_at
		FROM medications WHERE id = ?`, id)
	med, err := scanMedication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Medication{}, ErrNotFound
		}
		return Medication{}, err
	}
	return med, nil
}

func (r *SQLiteRepository) UpdateMedication(ctx context.Context, in Medication) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medications
		SET name = ?, dosage = ?, instructions = ?, image_url = ?, updated_at = ?
		WHERE id = ?`,
		in.Name, in.Dosage, in.Instructions, in.ImageURL, mustTime(in.UpdatedAt), in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteMedication(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medications WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListMedications(ctx context.Context) ([]Medication, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, dosage, instructions, image_url, created_at, updated_at
		FROM medications ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Medication, 0)
	for rows.Next() {
		med, scanErr := scanMedication(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, med)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateSchedule(ctx context.Context, in Schedule) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO schedules (id, medication_id, frequency, times, specific_days, every_x_days, start_date, end_date, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.MedicationID, in.Frequency, joinTimes(in.Times), joinDays(in.SpecificDays), in.EveryXDays,
		mustTime(in.StartDate), nullTime(in.EndDate), boolInt(in.Active), mustTime(in.CreatedAt),
	)
	return err
}

func (r *SQLiteRepository) GetSchedule(ctx context.Context, id string) (Schedule, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, medication_id, frequency, times, specific_days, every_x_days, start_date, end_date, active, created_at
		FROM schedules WHERE id = ?`, id)
	item, err := scanSchedule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Schedule{}, ErrNotFound
		}
		return Schedule{}, err
	}
	return item, nil
}

func (r *SQLiteRepository) UpdateSchedule(ctx context.Context, in Schedule) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE schedules
		SET medication_id = ?, frequency = ?, times = ?, specific_days = ?, every_x_days = ?, start_date = ?, end_date = ?, active = ?
		WHERE id = ?`,
		in.MedicationID, in.Frequency, joinTimes(in.Times), joinDays(in.SpecificDays), in.EveryXDays,
		mustTime(in.StartDate), nullTime(in.EndDate), boolInt(in.Active), in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteSchedule(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListSchedules(ctx context.Context, filter ScheduleListFilter) ([]Schedule, error) {
	query := `SELECT id, medication_id, frequency, times, specific_days, every_x_days, start_date, end_date, active, created_at FROM schedules`
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if filter.MedicationID != "" {
		clauses = append(clauses, "medication_id = ?")
		args = append(args, filter.MedicationID)
	}
	if filter.ActiveOnly {
		clauses = append(clauses, "active = 1")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Schedule, 0)
	for rows.Next() {
		item, scanErr := scanSchedule(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// CreateDose suppresses duplicates on (schedule_id, scheduled_at) so that
// re-running generation for an overlapping window never doubles doses and
// never touches the status of an already-created one.
func (r *SQLiteRepository) CreateDose(ctx context.Context, in Dose) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO doses (id, medication_id, schedule_id, status, scheduled_at, actual_at, snooze_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.MedicationID, in.ScheduleID, in.Status, mustTime(in.ScheduledAt), nullTime(in.ActualAt), in.SnoozeCount, mustTime(in.CreatedAt),
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrDuplicateDose
	}
	return nil
}

func (r *SQLiteRepository) GetDose(ctx context.Context, id string) (Dose, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, medication_id, schedule_id, status, scheduled_at, actual_at, snooze_count, created_at
		FROM doses WHERE id = ?`, id)
	item, err := scanDose(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Dose{}, ErrNotFound
		}
		return Dose{}, err
	}
	return item, nil
}

func (r *SQLiteRepository) UpdateDose(ctx context.Context, in Dose) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE doses
		SET status = ?, scheduled_at = ?, actual_at = ?, snooze_count = ?
		WHERE id = ?`,
		in.Status, mustTime(in.ScheduledAt), nullTime(in.ActualAt), in.SnoozeCount, in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteDose(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM doses WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListDoses(ctx context.Context, filter DoseListFilter) ([]Dose, error) {
	query := `SELECT id, medication_id, schedule_id, status, scheduled_at, actual_at, snooze_count, created_at FROM doses`
	clauses := make([]string, 0, 4)
	args := make([]any, 0, 6)
	if filter.MedicationID != "" {
		clauses = append(clauses, "medication_id = ?")
		args = append(args, filter.MedicationID)
	}
	if filter.ScheduleID != "" {
		clauses = append(clauses, "schedule_id = ?")
		args = append(args, filter.ScheduleID)
	}
	if len(filter.Statuses) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(filter.Statuses)), ", ")
		clauses = append(clauses, "status IN ("+placeholders+")")
		for _, s := range filter.Statuses {
			args = append(args, s)
		}
	}
	if filter.From != nil {
		clauses = append(clauses, "scheduled_at >= ?")
		args = append(args, mustTime(*filter.From))
	}
	if filter.To != nil {
		clauses = append(clauses, "scheduled_at < ?")
		args = append(args, mustTime(*filter.To))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY scheduled_at ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Dose, 0)
	for rows.Next() {
		item, scanErr := scanDose(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListActiveDoses(ctx context.Context) ([]Dose, error) {
	return r.ListDoses(ctx, DoseListFilter{Statuses: []string{"pending", "snoozed"}})
}

func (r *SQLiteRepository) ListDosesForDay(ctx context.Context, day time.Time) ([]DoseDetail, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	rows, err := r.db.QueryContext(ctx, detailSelect+`
		WHERE d.scheduled_at >= ? AND d.scheduled_at < ?
		ORDER BY d.scheduled_at ASC`, mustTime(start), mustTime(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]DoseDetail, 0)
	for rows.Next() {
		item, scanErr := scanDoseDetail(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetDoseDetail(ctx context.Context, id string) (DoseDetail, error) {
	row := r.db.QueryRowContext(ctx, detailSelect+` WHERE d.id = ?`, id)
	item, err := scanDoseDetail(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DoseDetail{}, ErrNotFound
		}
		return DoseDetail{}, err
	}
	return item, nil
}

func (r *SQLiteRepository) ClearDoseHistory(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM doses WHERE status IN ('taken', 'missed')`)
	return err
}

func (r *SQLiteRepository) GetSettings(ctx context.Context) (Settings, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_name, desktop_notifications, reminder_sound, caregiver_enabled, caregiver_email, updated_at
		FROM settings WHERE id = 1`)
	var out Settings
	var desktop, caregiver int
	var updated string
	err := row.Scan(&out.UserName, &desktop, &out.ReminderSound, &caregiver, &out.CaregiverEmail, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Settings{DesktopNotifications: true, ReminderSound: "default"}, nil
	}
	if err != nil {
		return Settings{}, err
	}
	updatedAt, err := parseRequiredTime(updated)
	if err != nil {
		return Settings{}, err
	}
	out.DesktopNotifications = desktop == 1
	out.CaregiverEnabled = caregiver == 1
	out.UpdatedAt = updatedAt
	return out, nil
}

func (r *SQLiteRepository) SaveSettings(ctx context.Context, in Settings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (id, user_name, desktop_notifications, reminder_sound, caregiver_enabled, caregiver_email, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_name = excluded.user_name,
			desktop_notifications = excluded.desktop_notifications,
			reminder_sound = excluded.reminder_sound,
			caregiver_enabled = excluded.caregiver_enabled,
			caregiver_email = excluded.caregiver_email,
			updated_at = excluded.updated_at`,
		in.UserName, boolInt(in.DesktopNotifications), in.ReminderSound, boolInt(in.CaregiverEnabled), in.CaregiverEmail, mustTime(in.UpdatedAt),
	)
	return err
}

const detailSelect = `
	SELECT d.id, d.medication_id, d.schedule_id, d.status, d.scheduled_at, d.actual_at, d.snooze_count, d.created_at,
	       m.name, m.dosage, m.instructions
	FROM doses d
	JOIN medications m ON m.id = d.medication_id`

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(sqliteTimeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func joinTimes(times []string) string {
	return strings.Join(times, ",")
}

func splitTimes(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinDays(days []int) string {
	if len(days) == 0 {
		return ""
	}
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(d))
	}
	return strings.Join(parts, ",")
}

func splitDays(raw string) []int {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	}
	if offset > 0 {
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMedication(s scanner) (Medication, error) {
	var out Medication
	var created, updated string
	if err := s.Scan(&out.ID, &out.Name, &out.Dosage, &out.Instructions, &out.ImageURL, &created, &updated); err != nil {
		return Medication{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return Medication{}, err
	}
	updatedAt, err := parseRequiredTime(updated)
	if err != nil {
		return Medication{}, err
	}
	out.CreatedAt = createdAt
	out.UpdatedAt = updatedAt
	return out, nil
}

func scanSchedule(s scanner) (Schedule, error) {
	var out Schedule
	var times, days string
	var start string
	var end sql.NullString
	var active int
	var created string
	if err := s.Scan(&out.ID, &out.MedicationID, &out.Frequency, &times, &days, &out.EveryXDays, &start, &end, &active, &created); err != nil {
		return Schedule{}, err
	}
	startDate, err := parseRequiredTime(start)
	if err != nil {
		return Schedule{}, err
	}
	endDate, err := parseNullableTime(end)
	if err != nil {
		return Schedule{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return Schedule{}, err
	}
	out.Times = splitTimes(times)
	out.SpecificDays = splitDays(days)
	out.StartDate = startDate
	out.EndDate = endDate
	out.Active = active == 1
	out.CreatedAt = createdAt
	return out, nil
}

func scanDose(s scanner) (Dose, error) {
	var out Dose
	var scheduled string
	var actual sql.NullString
	var created string
	if err := s.Scan(&out.ID, &out.MedicationID, &out.ScheduleID, &out.Status, &scheduled, &actual, &out.SnoozeCount, &created); err != nil {
		return Dose{}, err
	}
	scheduledAt, err := parseRequiredTime(scheduled)
	if err != nil {
		return Dose{}, err
	}
	actualAt, err := parseNullableTime(actual)
	if err != nil {
		return Dose{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return Dose{}, err
	}
	out.ScheduledAt = scheduledAt
	out.ActualAt = actualAt
	out.CreatedAt = createdAt
	return out, nil
}

func scanDoseDetail(s scanner) (DoseDetail, error) {
	var out DoseDetail
	var scheduled string
	var actual sql.NullString
	var created string
	if err := s.Scan(&out.ID, &out.MedicationID, &out.ScheduleID, &out.Status, &scheduled, &actual, &out.SnoozeCount, &created,
		&out.MedicationName, &out.MedicationDosage, &out.Instructions); err != nil {
		return DoseDetail{}, err
	}
	scheduledAt, err := parseRequiredTime(scheduled)
	if err != nil {
		return DoseDetail{}, err
	}
	actualAt, err := parseNullableTime(actual)
	if err != nil {
		return DoseDetail{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return DoseDetail{}, err
	}
	out.ScheduledAt = scheduledAt
	out.ActualAt = actualAt
	out.CreatedAt = createdAt
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
