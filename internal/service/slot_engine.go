package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/portal-agenda-api/internal/models"
	appErrors "github.com/noah-isme/portal-agenda-api/pkg/errors"
)

const (
	dateLayout = "2006-01-02"
	hourLayout = "15:04"

	defaultGranularity = 30 * time.Minute
)

// SlotQuery carries every input of ComputeSlots. RangeStart and RangeEnd are
// interpreted as calendar days in Location; both ends are inclusive.
type SlotQuery struct {
	Windows     []models.AvailabilityWindow
	Bookings    []models.Booking
	Blackouts   []models.Blackout
	RangeStart  time.Time
	RangeEnd    time.Time
	Granularity time.Duration
	// Now drops slots starting before it. The zero value disables the filter.
	Now      time.Time
	Location *time.Location
	// MaxDays bounds the range length. Zero means unbounded.
	MaxDays int
}

// dayWindow is an AvailabilityWindow with its clock times parsed into minutes after midnight.
type dayWindow struct {
	startMin int
	endMin   int
}

// ComputeSlots returns the free slots of the range in chronological order.
func ComputeSlots(q SlotQuery) ([]models.Slot, error) {
	loc := q.Location
	if loc == nil {
		loc = time.UTC
	}
	granularity := q.Granularity
	if granularity == 0 {
		granularity = defaultGranularity
	}
	if granularity < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "granularidade deve ser positiva")
	}

	days, err := expandDays(q.RangeStart, q.RangeEnd, loc, q.MaxDays)
	if err != nil {
		return nil, err
	}

	byWeekday, err := indexWindows(q.Windows)
	if err != nil {
		return nil, err
	}

	busy := busyIntervals(q.Bookings, q.Blackouts)
	cursor := 0

	slots := make([]models.Slot, 0)
	for _, day := range days {
		w, ok := byWeekday[day.Weekday()]
		if !ok {
			continue
		}
		windowStart := atClock(day, w.startMin, loc)
		windowEnd := atClock(day, w.endMin, loc)

		for start := windowStart; !start.Add(granularity).After(windowEnd); start = start.Add(granularity) {
			end := start.Add(granularity)

			for cursor < len(busy) && !busy[cursor].End.After(start) {
				cursor++
			}
			if cursor < len(busy) && busy[cursor].Start.Before(end) {
				continue
			}
			if !q.Now.IsZero() && start.Before(q.Now) {
				continue
			}

			slots = append(slots, newSlot(start, end, loc))
		}
	}
	return slots, nil
}

// FilterPast drops slots starting before now. It returns a new slice.
func FilterPast(slots []models.Slot, now time.Time) []models.Slot {
	out := make([]models.Slot, 0, len(slots))
	for _, slot := range slots {
		if slot.Inicio.Before(now) {
			continue
		}
		out = append(out, slot)
	}
	return out
}

// WindowCovers reports whether [start, end) lies inside the active window of start's weekday.
// A positive granularity additionally requires start to fall on the slot grid of that window.
func WindowCovers(windows []models.AvailabilityWindow, start, end time.Time, granularity time.Duration, loc *time.Location) (bool, error) {
	if loc == nil {
		loc = time.UTC
	}
	byWeekday, err := indexWindows(windows)
	if err != nil {
		return false, err
	}
	local := start.In(loc)
	w, ok := byWeekday[local.Weekday()]
	if !ok {
		return false, nil
	}
	day := midnight(local, loc)
	windowStart := atClock(day, w.startMin, loc)
	windowEnd := atClock(day, w.endMin, loc)
	if start.Before(windowStart) || end.After(windowEnd) {
		return false, nil
	}
	if granularity > 0 && start.Sub(windowStart)%granularity != 0 {
		return false, nil
	}
	return true, nil
}

// ValidateWindow checks the clock strings of a single window.
func ValidateWindow(w models.AvailabilityWindow) error {
	if w.DayOfWeek < 0 || w.DayOfWeek > 6 {
		return appErrors.Clone(appErrors.ErrValidation, "dia da semana deve estar entre 0 e 6")
	}
	_, err := parseWindow(w)
	return err
}

func indexWindows(windows []models.AvailabilityWindow) (map[time.Weekday]dayWindow, error) {
	byWeekday := make(map[time.Weekday]dayWindow, 7)
	for _, w := range windows {
		if !w.Active {
			continue
		}
		if w.DayOfWeek < 0 || w.DayOfWeek > 6 {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("janela %s com dia da semana inválido", w.ID))
		}
		parsed, err := parseWindow(w)
		if err != nil {
			return nil, err
		}
		wd := time.Weekday(w.DayOfWeek)
		// One window per weekday: the earliest-starting active one wins.
		if existing, ok := byWeekday[wd]; ok && existing.startMin <= parsed.startMin {
			continue
		}
		byWeekday[wd] = parsed
	}
	return byWeekday, nil
}

func parseWindow(w models.AvailabilityWindow) (dayWindow, error) {
	startMin, err := parseClock(w.StartTime)
	if err != nil {
		return dayWindow{}, err
	}
	endMin, err := parseClock(w.EndTime)
	if err != nil {
		return dayWindow{}, err
	}
	if endMin <= startMin {
		return dayWindow{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("horário final %s deve ser posterior ao inicial %s", w.EndTime, w.StartTime))
	}
	return dayWindow{startMin: startMin, endMin: endMin}, nil
}

// parseClock parses a strict HH:MM string into minutes after midnight. "24:00" is accepted as end of day.
func parseClock(raw string) (int, error) {
	invalid := appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("horário inválido: %q", raw))
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, invalid
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, invalid
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, invalid
	}
	if h == 24 && m == 0 {
		return 24 * 60, nil
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, invalid
	}
	return h*60 + m, nil
}

// expandDays lists the calendar days of [start, end] at local midnight.
func expandDays(start, end time.Time, loc *time.Location, maxDays int) ([]time.Time, error) {
	if start.IsZero() || end.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "período obrigatório")
	}
	first := midnight(start, loc)
	last := midnight(end, loc)
	if last.Before(first) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "data final anterior à data inicial")
	}

	var days []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
		if maxDays > 0 && len(days) > maxDays {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("período máximo de %d dias", maxDays))
		}
	}
	return days, nil
}

func midnight(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// atClock resolves minutes-after-midnight on day; time.Date normalises DST gaps.
func atClock(day time.Time, minutes int, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, loc)
}

// busyIntervals merges blocking bookings and blackouts into sorted disjoint ranges.
func busyIntervals(bookings []models.Booking, blackouts []models.Blackout) []models.TimeRange {
	ranges := make([]models.TimeRange, 0, len(bookings)+len(blackouts))
	for _, b := range bookings {
		if !b.Status.BlocksSlot() || !b.EndAt.After(b.StartAt) {
			continue
		}
		ranges = append(ranges, b.Interval())
	}
	for _, bo := range blackouts {
		if !bo.EndAt.After(bo.StartAt) {
			continue
		}
		ranges = append(ranges, models.TimeRange{Start: bo.StartAt, End: bo.EndAt})
	}
	if len(ranges) == 0 {
		return nil
	}

	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start.Before(ranges[j].Start) })
	merged := ranges[:1]
	for _, r := range ranges[1:] {
		last := &merged[len(merged)-1]
		if !r.Start.After(last.End) {
			if r.End.After(last.End) {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

func newSlot(start, end time.Time, loc *time.Location) models.Slot {
	local := start.In(loc)
	return models.Slot{
		Inicio:     local,
		Fim:        end.In(loc),
		Data:       local.Format(dateLayout),
		Hora:       local.Format(hourLayout),
		Disponivel: true,
	}
}
