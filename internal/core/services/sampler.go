package services

import (
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"chat-wrapped/internal/domain"
)

const (
	smallHistoryLimit = 20
	sampleChunkSize   = 5
	sampleMaxChunks   = 15
	sampleMessageCap  = 300
	// SampleTextLimit — максимальная длина выборки в символах.
	SampleTextLimit = 10000
	skippedMarker   = "\n...[skipped]...\n"
)

// RandomSource — источник случайных чисел для выбора фрагментов выборки.
// *rand.Rand из math/rand/v2 удовлетворяет этому интерфейсу.
type RandomSource interface {
	IntN(n int) int
}

// globalRandom использует общий генератор math/rand/v2, безопасный для горутин.
type globalRandom struct{}

func (globalRandom) IntN(n int) int { return rand.IntN(n) }

// lockedRandom сериализует доступ к генератору, который сам не потокобезопасен.
type lockedRandom struct {
	mu  sync.Mutex
	src RandomSource
}

func (l *lockedRandom) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.IntN(n)
}

// Sample строит ограниченный текстовый фрагмент переписки для генерации персоны.
//
// Короткая история (не более 20 сообщений) попадает в выборку целиком.
// Для длинной выбираются 15 различных случайных начал блоков по 5 сообщений,
// блоки выводятся по возрастанию начала и разделяются маркером пропуска.
// Результат недетерминирован, если источник случайности не зафиксирован.
func Sample(messages []domain.Message, rnd RandomSource) string {
	if rnd == nil {
		rnd = globalRandom{}
	}

	var b strings.Builder
	if len(messages) <= smallHistoryLimit {
		for i, msg := range messages {
			if i > 0 {
				b.WriteByte('\n')
			}
			writeSampleLine(&b, msg)
		}
		return capRunes(b.String(), SampleTextLimit)
	}

	span := len(messages) - sampleChunkSize
	want := min(sampleMaxChunks, span)

	seen := make(map[int]struct{}, want)
	starts := make([]int, 0, want)
	for len(starts) < want {
		idx := rnd.IntN(span)
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		starts = append(starts, idx)
	}
	slices.Sort(starts)

	for _, start := range starts {
		for _, msg := range messages[start : start+sampleChunkSize] {
			writeSampleLine(&b, msg)
			b.WriteByte('\n')
		}
		b.WriteString(skippedMarker)
	}

	return capRunes(b.String(), SampleTextLimit)
}

func writeSampleLine(b *strings.Builder, msg domain.Message) {
	if msg.Role == domain.RoleUser {
		b.WriteString("User: ")
	} else {
		b.WriteString("AI: ")
	}
	b.WriteString(capRunes(msg.Content, sampleMessageCap))
}

// capRunes обрезает строку до n символов (рун).
func capRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
