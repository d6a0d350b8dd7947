package star

import "time"

// Fallback spine bounds for runs where no movie carries a parseable release
// date. The range matches what the warehouse has always been seeded with.
var (
	fallbackSpineStart = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
	fallbackSpineEnd   = time.Date(2026, time.January, 25, 0, 0, 0, 0, time.UTC)
)

var dayNames = [...]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// buildDates constructs the contiguous date spine covering every observed
// release date, plus an index from calendar day to surrogate id.
func (b *Builder) buildDates(movies []Movie) ([]DimDate, map[time.Time]int64) {
	var lo, hi time.Time
	for _, m := range movies {
		if m.ReleaseDate == nil {
			continue
		}
		d := *m.ReleaseDate
		if lo.IsZero() || d.Before(lo) {
			lo = d
		}
		if hi.IsZero() || d.After(hi) {
			hi = d
		}
	}
	if lo.IsZero() {
		lo, hi = fallbackSpineStart, fallbackSpineEnd
		b.logf("stage=dim_date fallback_spine=%s..%s",
			lo.Format("2006-01-02"), hi.Format("2006-01-02"))
	}

	n := int(hi.Sub(lo).Hours()/24) + 1
	rows := make([]DimDate, 0, n)
	index := make(map[time.Time]int64, n)

	for d := lo; !d.After(hi); d = d.AddDate(0, 0, 1) {
		// Monday=0 .. Sunday=6; Go weekdays start at Sunday.
		dow := (int32(d.Weekday()) + 6) % 7
		_, week := d.ISOWeek()

		id := int64(len(rows)) + 1
		rows = append(rows, DimDate{
			ID:            id,
			Date:          d,
			Year:          int32(d.Year()),
			Month:         int32(d.Month()),
			MonthName:     d.Month().String(),
			Day:           int32(d.Day()),
			DayOfWeek:     dow,
			DayOfWeekName: dayNames[dow],
			Quarter:       (int32(d.Month())-1)/3 + 1,
			Week:          int32(week),
			IsWeekend:     dow >= 5,
		})
		index[d] = id
	}
	return rows, index
}
