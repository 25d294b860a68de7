package sequence

import (
	"fmt"
	"time"
)

// WeekKey returns the identifier of the Sunday-aligned week containing t,
// formatted "{year}-WS{week:02}", e.g. "2026-WS34". Weeks start Sunday 00:00
// in t's location and are numbered from the first Sunday of the year the
// week starts in. The first days of January can therefore belong to the
// previous year's last week — that is intentional: an order-number run never
// restarts mid-week.
func WeekKey(t time.Time) string {
	ws := weekStart(t)
	first := firstSunday(ws.Year(), ws.Location())
	week := (ws.YearDay()-first.YearDay())/7 + 1
	return fmt.Sprintf("%d-WS%02d", ws.Year(), week)
}

// weekStart returns midnight of the Sunday on or before t.
func weekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return midnight.AddDate(0, 0, -int(midnight.Weekday()))
}

// firstSunday returns midnight of the first Sunday of the given year.
func firstSunday(year int, loc *time.Location) time.Time {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	return jan1.AddDate(0, 0, (7-int(jan1.Weekday()))%7)
}
