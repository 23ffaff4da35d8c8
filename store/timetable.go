package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sevigo/campusrag/timetable"
)

// LessonRow is a stored lesson joined with its group, course, teacher and block.
type LessonRow struct {
	ID           int64
	GroupCode    string
	CourseCode   string
	TeacherName  string
	TeacherShort string
	Date         string
	BlockID      string
	StartTime    string
	EndTime      string
	Room         string
	Building     string
	Info         string
}

// FillBlockHours inserts missing block hours and leaves existing ones untouched.
func (s *Store) FillBlockHours(ctx context.Context, hours []timetable.BlockHour) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, h := range hours {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO block_hours (block_id, start_time, end_time) VALUES (?, ?, ?)
				ON CONFLICT(block_id) DO NOTHING
			`, h.ID, h.Start, h.End); err != nil {
				return fmt.Errorf("inserting block %s: %w", h.ID, err)
			}
		}
		return nil
	})
}

// UpsertGroup returns the id of groupCode, creating the group if needed.
func (s *Store) UpsertGroup(ctx context.Context, groupCode string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return upsertGroup(ctx, s.db, groupCode)
}

func (s *Store) InsertTeacher(ctx context.Context, fullName, shortCode string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertID(ctx, s.db, `INSERT INTO teachers (full_name, short_code) VALUES (?, ?)`, fullName, nullString(shortCode))
}

func (s *Store) InsertCourse(ctx context.Context, courseCode, courseName string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertID(ctx, s.db, `INSERT INTO courses (course_code, course_name) VALUES (?, ?)`, courseCode, nullString(courseName))
}

// InsertLesson stores one lesson. teacherID may be nil.
func (s *Store) InsertLesson(ctx context.Context, groupID, courseID int64, teacherID *int64, l timetable.Lesson) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertLesson(ctx, s.db, groupID, courseID, teacherID, l)
}

// SaveLessons stores the scraped timetable of one group in a transaction,
// reusing courses and teachers already known by code.
func (s *Store) SaveLessons(ctx context.Context, groupCode string, lessons []timetable.Lesson) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		groupID, err := upsertGroup(ctx, tx, groupCode)
		if err != nil {
			return err
		}
		for i, l := range lessons {
			courseID, err := lookupOrInsert(ctx, tx,
				`SELECT course_id FROM courses WHERE course_code = ?`, []any{l.CourseCode},
				`INSERT INTO courses (course_code) VALUES (?)`, []any{l.CourseCode})
			if err != nil {
				return fmt.Errorf("lesson %d course: %w", i, err)
			}

			var teacherID *int64
			if name := teacherName(l); name != "" {
				id, err := lookupOrInsert(ctx, tx,
					`SELECT teacher_id FROM teachers WHERE full_name = ?`, []any{name},
					`INSERT INTO teachers (full_name, short_code) VALUES (?, ?)`, []any{name, nullString(l.TeacherShort)})
				if err != nil {
					return fmt.Errorf("lesson %d teacher: %w", i, err)
				}
				teacherID = &id
			}

			if _, err := insertLesson(ctx, tx, groupID, courseID, teacherID, l); err != nil {
				return fmt.Errorf("lesson %d: %w", i, err)
			}
		}
		return nil
	})
}

// LessonsByGroup returns the lessons of groupCode ordered by date and block.
// An unknown group has no lessons.
func (s *Store) LessonsByGroup(ctx context.Context, groupCode string) ([]LessonRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.lesson_id, g.group_code, c.course_code,
			COALESCE(t.full_name, ''), COALESCE(t.short_code, ''),
			l.lesson_date, l.block_id, b.start_time, b.end_time,
			COALESCE(l.room, ''), COALESCE(l.building, ''), COALESCE(l.info, '')
		FROM lessons l
		JOIN groups g ON g.group_id = l.group_id
		JOIN courses c ON c.course_id = l.course_id
		JOIN block_hours b ON b.block_id = l.block_id
		LEFT JOIN teachers t ON t.teacher_id = l.teacher_id
		WHERE g.group_code = ?
		ORDER BY l.lesson_date, l.block_id, l.lesson_id
	`, groupCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LessonRow
	for rows.Next() {
		var r LessonRow
		if err := rows.Scan(&r.ID, &r.GroupCode, &r.CourseCode, &r.TeacherName, &r.TeacherShort,
			&r.Date, &r.BlockID, &r.StartTime, &r.EndTime, &r.Room, &r.Building, &r.Info); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertID(ctx context.Context, db execQuerier, query string, args ...any) (int64, error) {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func lookupOrInsert(ctx context.Context, db execQuerier, selectQ string, selectArgs []any, insertQ string, insertArgs []any) (int64, error) {
	var id int64
	err := db.QueryRowContext(ctx, selectQ, selectArgs...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	return insertID(ctx, db, insertQ, insertArgs...)
}

func upsertGroup(ctx context.Context, db execQuerier, groupCode string) (int64, error) {
	return lookupOrInsert(ctx, db,
		`SELECT group_id FROM groups WHERE group_code = ?`, []any{groupCode},
		`INSERT INTO groups (group_code) VALUES (?)`, []any{groupCode})
}

func insertLesson(ctx context.Context, db execQuerier, groupID, courseID int64, teacherID *int64, l timetable.Lesson) (int64, error) {
	return insertID(ctx, db, `
		INSERT INTO lessons (group_id, course_id, teacher_id, block_id, lesson_date, room, building, info)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, groupID, courseID, teacherID, l.BlockID, l.Date, nullString(l.Room), nullString(l.Building), nullString(l.Info))
}

func teacherName(l timetable.Lesson) string {
	if l.TeacherName != "" {
		return l.TeacherName
	}
	return l.TeacherShort
}
