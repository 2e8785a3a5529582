package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMessage(t *testing.T) {
	t.Run("Сообщение без времени создания", func(t *testing.T) {
		msg := Message{Role: RoleUser, Content: "Hello"}
		if msg.HasTimestamp() {
			t.Error("Ожидалось отсутствие времени создания")
		}
	})

	t.Run("Сообщение со временем создания, равным нулю", func(t *testing.T) {
		ts := 0.0
		msg := Message{Role: RoleAssistant, Content: "Hi", Timestamp: &ts}
		if !msg.HasTimestamp() {
			t.Error("Нулевое время создания должно считаться присутствующим")
		}
	})

	t.Run("Сериализация опускает пустое время", func(t *testing.T) {
		data, err := json.Marshal(Message{Role: RoleUser, Content: "Hello"})
		if err != nil {
			t.Fatalf("Неожиданная ошибка: %v", err)
		}
		if strings.Contains(string(data), "timestamp") {
			t.Errorf("Ожидалось отсутствие поля timestamp, получено %s", data)
		}
	})
}

func TestChatStats_IsInsufficient(t *testing.T) {
	tests := []struct {
		name     string
		stats    ChatStats
		expected bool
	}{
		{"пустая статистика", ChatStats{}, true},
		{"одно короткое сообщение", ChatStats{TotalMessages: 1, WordCount: 9}, true},
		{"одно длинное сообщение", ChatStats{TotalMessages: 1, WordCount: 10}, false},
		{"два сообщения", ChatStats{TotalMessages: 2, WordCount: 2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stats.IsInsufficient(); got != tt.expected {
				t.Errorf("IsInsufficient() = %v, ожидалось %v", got, tt.expected)
			}
		})
	}
}

func TestChatStats_JSONFieldNames(t *testing.T) {
	stats := ChatStats{
		TotalMessages:  3,
		TopWords:       []WordCount{{Word: "golang", Count: 2}},
		ActiveHours:    map[string]int{"9": 3},
		MostActiveHour: 9,
		HoursSpent:     0.1,
	}
	data, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}

	for _, key := range []string{"totalMessages", "userMessageCount", "aiMessageCount", "wordCount", "topWords", "activeHours", "mostActiveHour", "hoursSpent"} {
		if !strings.Contains(string(data), `"`+key+`"`) {
			t.Errorf("Ожидалось поле %s в %s", key, data)
		}
	}
}

func TestFallbackPersona(t *testing.T) {
	p := FallbackPersona()
	if p.Archetype != "The Mystery Chatter" {
		t.Errorf("Ожидался архетип 'The Mystery Chatter', получено '%s'", p.Archetype)
	}
	if len(p.TopThemes) != 5 {
		t.Errorf("Ожидалось 5 тем, получено %d", len(p.TopThemes))
	}
	if len(p.TopMoments) != 3 {
		t.Errorf("Ожидалось 3 момента, получено %d", len(p.TopMoments))
	}

	// Каждый вызов возвращает независимую копию
	p.TopThemes[0] = "changed"
	if FallbackPersona().TopThemes[0] != "Everything" {
		t.Error("Изменение одной персоны не должно влиять на другую")
	}
}

func TestInputKind_String(t *testing.T) {
	if InputStructured.String() != "structured" {
		t.Errorf("Ожидалось 'structured', получено '%s'", InputStructured.String())
	}
	if InputFreeform.String() != "freeform" {
		t.Errorf("Ожидалось 'freeform', получено '%s'", InputFreeform.String())
	}
}
