// Package common содержит общие утилиты, используемые во всём проекте:
// календарная арифметика, работа с днями и форматирование дат.
package common

import "time"

// AddMonths прибавляет n календарных месяцев, сохраняя число месяца.
// Если такого числа в целевом месяце нет: берётся последний день месяца:
//
//	AddMonths(31 января, 1) → 29 февраля (високосный год)
//	AddMonths(29 февраля 2024, 12) → 28 февраля 2025
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := DaysInMonth(first); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

// DaysInMonth возвращает количество дней в месяце даты t.
func DaysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// StartOfDay возвращает полночь того же дня в часовом поясе loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// FormatDate форматирует дату для текстов уведомлений: "2 Jan 2006".
func FormatDate(t time.Time) string {
	return t.Format("2 Jan 2006")
}
