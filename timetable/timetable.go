// Package timetable scrapes the group class schedule published by the
// university planning site.
package timetable

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sevigo/campusrag/schema"
)

const (
	reservationInfo = "- - (Rezerwacja) - -"
	defaultBuilding = "100"
)

var leadingDigits = regexp.MustCompile(`^(\d+)`)

// Lesson is one scheduled class of a group.
type Lesson struct {
	Date         string `json:"date"`
	BlockID      string `json:"block_id"`
	CourseCode   string `json:"course_code"`
	Info         string `json:"info"`
	TeacherName  string `json:"teacher_name"`
	TeacherShort string `json:"teacher_short"`
	Room         string `json:"room"`
	Building     string `json:"building"`
}

// BlockHour is the time span of a numbered teaching block.
type BlockHour struct {
	ID    string
	Start string
	End   string
}

// DefaultBlockHours lists the seven daily teaching blocks.
var DefaultBlockHours = []BlockHour{
	{ID: "block1", Start: "08:00", End: "09:35"},
	{ID: "block2", Start: "09:50", End: "11:25"},
	{ID: "block3", Start: "11:40", End: "13:15"},
	{ID: "block4", Start: "13:30", End: "15:05"},
	{ID: "block5", Start: "15:45", End: "17:35"},
	{ID: "block6", Start: "17:50", End: "19:25"},
	{ID: "block7", Start: "19:40", End: "21:15"},
}

// BlockByID returns the block hours for id.
func BlockByID(id string) (BlockHour, bool) {
	for _, b := range DefaultBlockHours {
		if b.ID == id {
			return b, true
		}
	}
	return BlockHour{}, false
}

// ParseLessons reads the hidden lesson list of a timetable page. Room
// reservations are skipped. A page without the list yields no lessons.
func ParseLessons(r io.Reader) ([]Lesson, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("timetable: parsing page: %w", err)
	}

	lessons := []Lesson{}
	doc.Find("div.lessons.hidden").First().Find("div.lesson").Each(func(_ int, s *goquery.Selection) {
		info := spanText(s, "info")
		if info == reservationInfo {
			return
		}

		lines := nameLines(s.Find("span.name").First())
		l := Lesson{
			Date:         spanText(s, "date"),
			BlockID:      spanText(s, "block_id"),
			Info:         info,
			TeacherName:  teacherFromInfo(info),
			TeacherShort: spanText(s, "sSkrotProwadzacego"),
			Building:     defaultBuilding,
		}
		if len(lines) > 0 {
			l.CourseCode = lines[0]
			l.Room, l.Building = roomAndBuilding(lines[1:])
		}
		lessons = append(lessons, l)
	})
	return lessons, nil
}

func spanText(s *goquery.Selection, class string) string {
	return strings.TrimSpace(s.Find("span." + class).First().Text())
}

// nameLines splits the name cell on <br> elements.
func nameLines(s *goquery.Selection) []string {
	var b strings.Builder
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "br" {
			b.WriteByte('\n')
			return
		}
		b.WriteString(c.Text())
	})

	var lines []string
	for line := range strings.SplitSeq(b.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// teacherFromInfo takes the last part of "course - (type) - teacher".
func teacherFromInfo(info string) string {
	parts := strings.Split(info, " - ")
	if len(parts) < 3 {
		return ""
	}
	return strings.TrimSpace(parts[len(parts)-1])
}

// roomAndBuilding reads the first line carrying a digit: "203 65" is room 203
// in building 65, while "308", "308S" and "308 S" fall back to the default
// building.
func roomAndBuilding(lines []string) (room, building string) {
	building = defaultBuilding
	for _, line := range lines {
		if !strings.ContainsAny(line, "0123456789") {
			continue
		}
		fields := strings.Fields(line)
		if m := leadingDigits.FindStringSubmatch(fields[0]); m != nil {
			room = m[1]
		}
		if len(fields) > 1 {
			if m := leadingDigits.FindStringSubmatch(fields[1]); m != nil {
				building = m[1]
			}
		}
		break
	}
	return room, building
}

// Document renders the lesson as retrievable text.
func (l Lesson) Document(group string) schema.Document {
	hours := l.BlockID
	if b, ok := BlockByID(l.BlockID); ok {
		hours = b.Start + "-" + b.End
	}
	date := strings.ReplaceAll(l.Date, "_", "-")

	var b strings.Builder
	fmt.Fprintf(&b, "Grupa %s, %s, %s: %s", group, date, hours, l.CourseCode)
	if l.Info != "" {
		fmt.Fprintf(&b, " (%s)", l.Info)
	}
	if l.Room != "" {
		fmt.Fprintf(&b, ", sala %s, budynek %s", l.Room, l.Building)
	}

	return schema.NewDocument(b.String(), map[string]any{
		"source_file": "timetable:" + group,
		"group":       group,
		"date":        l.Date,
		"block_id":    l.BlockID,
		"course_code": l.CourseCode,
	})
}
