// pluralize.go форматирует суммы очков для уведомлений.
// Тексты уведомлений пользователям на английском.
package common

import "fmt"

// PluralizePoints возвращает "point" или "points" для числа n.
func PluralizePoints(n int64) string {
	if n == 1 || n == -1 {
		return "point"
	}
	return "points"
}

// FormatPoints форматирует сумму: FormatPoints(1500) → "1,500 points".
func FormatPoints(n int64) string {
	return fmt.Sprintf("%s %s", FormatNumber(n), PluralizePoints(n))
}

// FormatNumber форматирует число с разделителями тысяч (запятыми).
// Пример: FormatNumber(2350) → "2,350"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatNumber(n/1000), n%1000)
}

// PluralizeDays возвращает "day" или "days".
func PluralizeDays(n int) string {
	if n == 1 {
		return "day"
	}
	return "days"
}
