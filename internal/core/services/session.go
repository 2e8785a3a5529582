package services

import (
	"slices"

	"github.com/shopspring/decimal"

	"chat-wrapped/internal/domain"
)

const (
	// sessionGapSeconds — пауза, после которой начинается новая сессия.
	sessionGapSeconds = 20 * 60
	// sessionStartSeconds — фиксированная стоимость начала каждой сессии.
	sessionStartSeconds = 60
	// perMessageSeconds — оценка времени на сообщение, когда времени создания нет.
	perMessageSeconds = 120
	minHoursSpent     = 0.1
)

// EstimateSessionSeconds оценивает время активного общения в секундах.
//
// Для структурированного экспорта с хотя бы одним временем создания сообщения
// сортируются по времени: первая сессия стоит 60 секунд, разрыв больше 20 минут
// открывает новую сессию и тоже стоит 60 секунд, меньшие разрывы учитываются полностью.
// В остальных случаях каждое сообщение оценивается в 120 секунд.
func EstimateSessionSeconds(messages []domain.Message, structured bool) float64 {
	var stamps []float64
	if structured {
		for _, msg := range messages {
			if msg.HasTimestamp() {
				stamps = append(stamps, *msg.Timestamp)
			}
		}
	}

	if len(stamps) == 0 {
		return float64(len(messages) * perMessageSeconds)
	}

	slices.Sort(stamps)

	total := float64(sessionStartSeconds)
	for i := 1; i < len(stamps); i++ {
		diff := stamps[i] - stamps[i-1]
		if diff > sessionGapSeconds {
			total += sessionStartSeconds
		} else {
			total += diff
		}
	}
	return total
}

// HoursSpent переводит секунды в часы с округлением до одного знака, но не меньше 0.1.
func HoursSpent(seconds float64) float64 {
	hours := decimal.NewFromFloat(seconds).
		Div(decimal.NewFromInt(3600)).
		Round(1).
		InexactFloat64()
	if hours < minHoursSpent {
		return minHoursSpent
	}
	return hours
}
