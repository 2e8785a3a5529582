package domain

// Quote содержит цитату пользователя и контекст, в котором она прозвучала.
type Quote struct {
	Quote   string `json:"quote"`
	Context string `json:"context"`
}

type Moment struct {
	Quote     string `json:"quote"`
	Reasoning string `json:"reasoning"`
}

// AskedQuestion — самый частый вопрос и вывод о пользователе.
type AskedQuestion struct {
	Question string `json:"question"`
	Insight  string `json:"insight"`
}

type Badge struct {
	Badge       string `json:"badge"`
	Description string `json:"description"`
}

// Skill описывает навык, который пользователь прокачал за год.
type Skill struct {
	Skill       string `json:"skill"`
	Description string `json:"description"`
}

// Persona — нарративная персона, сгенерированная внешней моделью.
type Persona struct {
	Archetype                string        `json:"archetype"`
	Description              string        `json:"description"`
	VibeColor                string        `json:"vibeColor"`
	PowerWord                string        `json:"powerWord"`
	Soundtrack               string        `json:"soundtrack"`
	TopThemes                []string      `json:"topThemes"`
	BiggestWins              []string      `json:"biggestWins"`
	ThinkingPatterns         string        `json:"thinkingPatterns"`
	MindsetRoadblocks        string        `json:"mindsetRoadblocks"`
	UnhingedMoment           Quote         `json:"unhingedMoment"`
	MostAskedQuestion        AskedQuestion `json:"mostAskedQuestion"`
	FinalMotivationalMessage string        `json:"finalMotivationalMessage"`
	TopMoments               []Moment      `json:"topMoments"`
	ChattingStyle            Badge         `json:"chattingStyle"`
	PowerSkill               Skill         `json:"powerSkill"`
}

// FallbackPersona возвращает персону по умолчанию, которая используется,
// когда внешняя модель недоступна или вернула мусор.
func FallbackPersona() *Persona {
	return &Persona{
		Archetype:         "The Mystery Chatter",
		Description:       "We couldn't quite figure you out, but you definitely love to type.",
		VibeColor:         "#8b5cf6",
		PowerWord:         "Enigmatic",
		Soundtrack:        "Sounds of Silence (Remix)",
		TopThemes:         []string{"Everything", "Nothing", "Entropy", "Chaos", "Order"},
		BiggestWins:       []string{"You kept typing", "You didn't give up"},
		ThinkingPatterns:  "You tend to ask questions, then answer them yourself.",
		MindsetRoadblocks: "Overthinking the simple things.",
		UnhingedMoment: Quote{
			Quote:   "I cannot answer that.",
			Context: "The moment you broke the AI.",
		},
		MostAskedQuestion: AskedQuestion{
			Question: "Why?",
			Insight:  "You are a seeker of truth.",
		},
		FinalMotivationalMessage: "Keep seeking, keep typing. 2025 is yours.",
		TopMoments: []Moment{
			{Quote: "I am a large language model.", Reasoning: "Classic."},
			{Quote: "42", Reasoning: "The answer to everything."},
			{Quote: "As an AI...", Reasoning: "The catchphrase of the year."},
		},
		ChattingStyle: Badge{
			Badge:       "The Blank Slate",
			Description: "Your patterns are so diverse they defy categorization.",
		},
		PowerSkill: Skill{
			Skill:       "Persistance",
			Description: "You kept trying even when the server was down.",
		},
	}
}
