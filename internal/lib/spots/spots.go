// Package spots разбирает описание свободных мест парковки.
//
// Описание бывает точным числом ("7"), диапазоном ("10-15"), открытым
// диапазоном ("20+") или произвольным текстом ("reported by users").
package spots

import (
	"strconv"
	"strings"
)

// Подписи состояния заполненности.
const (
	StateNone      = "no spots"
	StateFew       = "few spots"
	StateModerate  = "moderate availability"
	StateGood      = "good availability"
	StateAvailable = "spots available"
)

// Count возвращает ведущее число описания.
func Count(descriptor string) (int, bool) {
	s := strings.TrimSpace(descriptor)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// HasSpots сообщает, есть ли свободные места. Нечисловое непустое
// описание считается наличием мест.
func HasSpots(descriptor string) bool {
	n, ok := Count(descriptor)
	if !ok {
		return strings.TrimSpace(descriptor) != ""
	}
	return n > 0
}

// InferState подбирает подпись заполненности по описанию.
func InferState(descriptor string) string {
	n, ok := Count(descriptor)
	switch {
	case !ok:
		return StateAvailable
	case n == 0:
		return StateNone
	case n <= 3:
		return StateFew
	case n <= 10:
		return StateModerate
	default:
		return StateGood
	}
}
