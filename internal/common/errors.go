// errors.go определяет ошибки, общие для всех модулей.
// Они позволяют HTTP-слою различать типы проблем и отвечать правильным статусом.
package common

import "errors"

// Ошибки пользователей
var (
	// ErrUserNotFound: пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
)

// Ошибки очков
var (
	// ErrInvalidAmount: некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
)

// Ошибки бейджей
var (
	// ErrBadgeNotFound: бейдж не найден или выключен
	ErrBadgeNotFound = errors.New("бейдж не найден")
	// ErrUnknownBadgeType: тип бейджа не входит в каталог
	ErrUnknownBadgeType = errors.New("неизвестный тип бейджа")
)

// Ошибки API
var (
	// ErrUnauthorized: неверный или отсутствующий токен
	ErrUnauthorized = errors.New("неверный токен доступа")
)
