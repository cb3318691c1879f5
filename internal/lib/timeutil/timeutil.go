// Package timeutil работает с временем сервиса: единый часовой пояс,
// строковый формат хранения и человекочитаемые подписи.
//
// Все метки времени хранятся строками в формате Layout в локальном времени
// пояса Clock. Ошибки разбора никогда не возвращаются наружу: вместо них
// используются безопасные значения по умолчанию.
package timeutil

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// Layout формат хранения меток времени.
const Layout = "2006-01-02 15:04:05"

const (
	dateLayout     = "02/01/2006"
	userLayout     = "02/01/2006 15:04"
	unknownLabel   = "unknown"
	notAvailable   = "N/A"
	defaultUTCDiff = -5 * 60 * 60
)

// Clock источник текущего времени в заданном часовом поясе.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// Option настраивает Clock.
type Option func(*Clock)

// WithNow подменяет источник текущего времени.
func WithNow(now func() time.Time) Option {
	return func(c *Clock) {
		c.now = now
	}
}

// New создает Clock для часового пояса tz. Если пояс не найден,
// используется фиксированное смещение UTC-5.
func New(tz string, opts ...Option) *Clock {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.FixedZone(tz, defaultUTCDiff)
	}
	c := &Clock{loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NowTime текущее время в поясе Clock.
func (c *Clock) NowTime() time.Time {
	return c.now().In(c.loc)
}

// Now текущее время строкой.
func (c *Clock) Now() string {
	return c.NowTime().Format(Layout)
}

// Parse разбирает сохраненную метку. Второй результат false при ошибке.
func (c *Clock) Parse(ts string) (time.Time, bool) {
	t, err := time.ParseInLocation(Layout, ts, c.loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// AddDays прибавляет n дней к метке ts. Если ts не разбирается,
// отсчет идет от текущего момента.
func (c *Clock) AddDays(ts string, n int) string {
	base, ok := c.Parse(ts)
	if !ok {
		base = c.NowTime()
	}
	return base.AddDate(0, 0, n).Format(Layout)
}

// ExpirationFromNow метка через days дней от текущего момента.
func (c *Clock) ExpirationFromNow(days int) string {
	return c.NowTime().AddDate(0, 0, days).Format(Layout)
}

// IsBefore сообщает, что a раньше b. При ошибке разбора false.
func (c *Clock) IsBefore(a, b string) bool {
	ta, ok := c.Parse(a)
	if !ok {
		return false
	}
	tb, ok := c.Parse(b)
	if !ok {
		return false
	}
	return ta.Before(tb)
}

// IsActive сообщает, что срок exp еще не наступил.
func (c *Clock) IsActive(exp string) bool {
	t, ok := c.Parse(exp)
	if !ok {
		return false
	}
	return c.NowTime().Before(t)
}

// DaysUntil полные дни до exp, не меньше нуля.
func (c *Clock) DaysUntil(exp string) int {
	t, ok := c.Parse(exp)
	if !ok {
		return 0
	}
	d := t.Sub(c.NowTime())
	if d <= 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

// RelativeLabel подпись вида "5 min ago" для метки ts.
func (c *Clock) RelativeLabel(ts string) string {
	t, ok := c.Parse(ts)
	if !ok {
		return unknownLabel
	}
	diff := c.NowTime().Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%d min ago", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff/time.Hour))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff/(24*time.Hour)))
	default:
		return t.Format(dateLayout)
	}
}

// FormatForUser дата и время для сообщений пользователю.
func (c *Clock) FormatForUser(ts string) string {
	t, ok := c.Parse(ts)
	if !ok {
		return notAvailable
	}
	return t.Format(userLayout)
}
