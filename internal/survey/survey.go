package survey

import (
	"fmt"
	"html"
	"strings"
)

type Question struct {
	Key   string
	Text  string
	Label string
}

var questions = []Question{
	{Key: "free_time", Text: "🚵‍♂️Как ты предпочитаешь проводить свободное время? (может хобби?)", Label: "🚵‍♂️ Свободное время:"},
	{Key: "relaxation", Text: "⛱️Какой твой любимый способ расслабиться после напряженного дня", Label: "⛱️ Способ расслабления:"},
	{Key: "favorite_color", Text: "🌈Какой твой любимый цвет?", Label: "🌈 Любимый цвет:"},
	{Key: "gift_type", Text: "💡Предпочитаешь ли ты практичные подарки или что-то более оригинальное/креативное?", Label: "💡 Практичные или креативные подарки:"},
	{Key: "gift_preference", Text: "🤔Есть ли у тебя предпочтения по типу подарков: что-то для дома, для работы, для отдыха?", Label: "🤔 Предпочтения по подаркам:"},
	{Key: "allergies", Text: "🤢Есть ли у тебя какие-то аллергии или ограничения, о которых стоит знать? (если да, то какие?)", Label: "🤢 Аллергии или ограничения:"},
	{Key: "favorites", Text: "🦉Какие фильмы/персонажи/музыканты тебе нравятся?", Label: "🦉 Любимые фильмы/персонажи/музыканты:"},
	{Key: "pleasures", Text: "⛷️Что тебе приносит наибольшее удовольствие: активный отдых, чтение, спорт или что-то другое?", Label: "⛷️ Что приносит удовольствие:"},
	{Key: "gift_wishes", Text: "✏️Твои личные пожелания к подарку?", Label: "✏️ Пожелания к подарку:"},
}

func Count() int {
	return len(questions)
}

func At(index int) (Question, bool) {
	if index < 0 || index >= len(questions) {
		return Question{}, false
	}
	return questions[index], true
}

// Prompt renders the question with its "i/N" position prefix.
func Prompt(index int) string {
	q, ok := At(index)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%d/%d %s", index+1, len(questions), q.Text)
}

// Complete reports whether every question has a non-empty answer.
func Complete(answers map[string]string) bool {
	for _, q := range questions {
		if strings.TrimSpace(answers[q.Key]) == "" {
			return false
		}
	}
	return true
}

// Render lists the answered questions in order as HTML lines.
func Render(answers map[string]string) string {
	var b strings.Builder
	for _, q := range questions {
		answer, ok := answers[q.Key]
		if !ok {
			continue
		}
		b.WriteString("<b>")
		b.WriteString(q.Label)
		b.WriteString("</b> ")
		b.WriteString(html.EscapeString(answer))
		b.WriteString("\n")
	}
	return b.String()
}
