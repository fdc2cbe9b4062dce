package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name   string
		in     time.Time
		months int
		want   time.Time
	}{
		{name: "plain month", in: date(2026, time.March, 15), months: 1, want: date(2026, time.April, 15)},
		{name: "jan 31 clamps to feb 28", in: date(2026, time.January, 31), months: 1, want: date(2026, time.February, 28)},
		{name: "jan 31 leap year clamps to feb 29", in: date(2028, time.January, 31), months: 1, want: date(2028, time.February, 29)},
		{name: "may 31 clamps to june 30", in: date(2026, time.May, 31), months: 1, want: date(2026, time.June, 30)},
		{name: "december rolls year", in: date(2026, time.December, 10), months: 1, want: date(2027, time.January, 10)},
		{name: "multiple months", in: date(2026, time.January, 31), months: 3, want: date(2026, time.April, 30)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddMonths(tt.in, tt.months))
		})
	}
}

func TestLastDayOfMonth(t *testing.T) {
	assert.Equal(t, 31, LastDayOfMonth(date(2026, time.January, 1)))
	assert.Equal(t, 28, LastDayOfMonth(date(2026, time.February, 10)))
	assert.Equal(t, 29, LastDayOfMonth(date(2028, time.February, 1)))
	assert.Equal(t, 30, LastDayOfMonth(date(2026, time.June, 30)))
}

func TestEffectiveInvoiceDay(t *testing.T) {
	assert.Equal(t, 30, EffectiveInvoiceDay(31, date(2026, time.June, 1)))
	assert.Equal(t, 28, EffectiveInvoiceDay(31, date(2026, time.February, 1)))
	assert.Equal(t, 15, EffectiveInvoiceDay(15, date(2026, time.February, 1)))
	assert.Equal(t, 1, EffectiveInvoiceDay(0, date(2026, time.February, 1)))
}

func TestMonthWindow(t *testing.T) {
	start, end := MonthWindow(date(2026, time.June, 17))
	assert.Equal(t, date(2026, time.June, 1), start)
	assert.Equal(t, date(2026, time.July, 1), end)
}
