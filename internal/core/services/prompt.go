package services

import (
	"fmt"
	"strings"

	"chat-wrapped/internal/domain"
)

// SystemInstruction — системная инструкция для генеративной модели.
const SystemInstruction = `You are a "ChatGPT Wrapped" Year-End Analyst. Your goal is to review the user's chat history samples and create a fun, honest, reflective, and slightly humorous report of their year.
Tone: Fun, encouraging, witty, Gen Z friendly but thoughtful. Spotify Wrapped vibes.`

const analysisSections = `Generate a JSON report that includes these specific sections:
1. Top 5 themes I kept coming to you for.
2. My biggest wins + real progress I made (infer from the text).
3. Patterns in my questions or thinking, especially the ones I don't notice but you do.
4. Mindset roadblocks that kept popping up, be kind, be real.
5. The most 'unhinged' or chaotic things I asked this year.
6. The question or topic I asked you the most this year and what that says about me.
7. A final motivational message to wrap up my %[1]d era. Thoughtful, hype-y, and based on how I showed up this year.
8. A creative Archetype name (e.g. "The 3AM Debugger"), a vibe color, a power word, and a made-up soundtrack title.
9. Top 3 most insightful, funny, or interesting moments/quotes from the AI (me) in our chats.
10. A 'Chatting Style' badge (e.g., "The Builder", "The Researcher", "The Optimizer", "The Chaos Gremlin") based on patterns in my prompts.
11. A 'Power Skill': the capability I most clearly upgraded via ChatGPT (e.g., system prompts, UX case studies, copywriting, SQL).

CRITICAL: For the "Unhinged Moment" and "Top Moments", strictly use text that exists in the sample logs. If nothing is truly unhinged, pick the most random or out-of-context thing.

Output ONLY valid JSON matching this structure:
{
   "archetype": "string",
   "description": "string",
   "vibeColor": "hex string",
   "powerWord": "string",
   "soundtrack": "string",
   "topThemes": ["string"],
   "biggestWins": ["string"],
   "thinkingPatterns": "string",
   "mindsetRoadblocks": "string",
   "unhingedMoment": { "quote": "string", "context": "string" },
   "mostAskedQuestion": { "question": "string", "insight": "string" },
   "finalMotivationalMessage": "string",
   "topMoments": [{ "quote": "string", "reasoning": "string" }],
   "chattingStyle": { "badge": "string", "description": "string" },
   "powerSkill": { "skill": "string", "description": "string" }
}`

// BuildAnalysisPrompt собирает запрос к модели из статистики и выборки переписки.
func BuildAnalysisPrompt(stats domain.ChatStats, sampleText string, year int) string {
	keywords := make([]string, 0, len(stats.TopWords))
	for _, w := range stats.TopWords {
		keywords = append(keywords, w.Word)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Act as my personal year-end analyst and create a fun but honest 'ChatGPT Wrapped' summary of my %d chats with you.\n", year)
	b.WriteString("Review everything I've asked you this year (using the stats and sample logs below) and give me a reflective, lightly humorous, gently truthful report.\n\n")

	b.WriteString("USER STATS:\n")
	fmt.Fprintf(&b, "- Total Messages: %d\n", stats.TotalMessages)
	fmt.Fprintf(&b, "- Total Words: %d\n", stats.WordCount)
	fmt.Fprintf(&b, "- Estimated Hours Spent: %g\n", stats.HoursSpent)
	fmt.Fprintf(&b, "- Most Active Hour: %d:00\n", stats.MostActiveHour)
	fmt.Fprintf(&b, "- Top Keywords: %s\n\n", strings.Join(keywords, ", "))

	b.WriteString("SAMPLE CHAT LOGS:\n\"\"\"\n")
	b.WriteString(sampleText)
	b.WriteString("\n\"\"\"\n\n")

	fmt.Fprintf(&b, analysisSections, year)
	return b.String()
}

const manualPromptTemplate = `Act as my personal year-end analyst and create a fun but honest 'ChatGPT Wrapped' summary of my %d chats with you.

I cannot provide the log files directly, so please:
1. Analyze our entire conversation history from this year based on your internal memory/context window.
2. ESTIMATE the stats (Total Messages, Hours, etc.) based on your memory of our interactions.

OUTPUT FORMAT:
Please provide the report in the EXACT format below. Do not use JSON. Use the tags exactly as written.

---BEGIN REPORT---

[STATS]
Total Messages: (insert number)
Hours Spent: (insert number)
Top Words: (word1, word2, word3, word4, word5)
Most Active Hour: (0-23)

[PERSONA]
Archetype: (Creative name, e.g. "The Code Wizard")
Description: (One sentence bio)
Vibe Color: (Hex code, e.g. #FF0000)
Power Word: (One word)
Soundtrack: (Made up song title)
Badge: (Badge Name)
Badge Description: (Short badge description)

[POWER SKILL]
Skill: (Skill Name)
Description: (Brief explanation of how I upgraded this skill)

[THEMES]
- (Theme 1)
- (Theme 2)
- (Theme 3)
- (Theme 4)
- (Theme 5)

[WINS]
- (Win 1)
- (Win 2)
- (Win 3)

[ANALYSIS]
Thinking Patterns: (Your observation)
Mindset Roadblocks: (Your observation)

[UNHINGED]
Quote: (The weirdest thing I asked)
Context: (Why it was weird)

[MOST ASKED]
Question: (The recurring question)
Insight: (What it says about me)

[MOTIVATION]
Message: (Final hype message)

[MOMENTS]
- Quote: (Most insightful/funny/interesting quote 1) | Reasoning: (Why you picked it)
- Quote: (Most insightful/funny/interesting quote 2) | Reasoning: (Why you picked it)
- Quote: (Most insightful/funny/interesting quote 3) | Reasoning: (Why you picked it)

---END REPORT---
`

// ManualAnalysisPrompt возвращает запрос, который пользователь вставляет в чат с ассистентом,
// когда выгрузки нет. Ответ разбирается парсером ручного отчета.
func ManualAnalysisPrompt(year int) string {
	return fmt.Sprintf(manualPromptTemplate, year)
}
