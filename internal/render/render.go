// Package render builds the bot's HTML texts and inline keyboards.
package render

import (
	"errors"
	"fmt"
	"html"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/explrms/secretSanta/internal/assignment"
	"github.com/explrms/secretSanta/internal/boxes"
	"github.com/explrms/secretSanta/internal/callback"
	"github.com/explrms/secretSanta/internal/channel"
	"github.com/explrms/secretSanta/internal/relay"
)

var printer = message.NewPrinter(language.Russian)

// Price formats a ruble amount with Russian digit grouping.
func Price(value float64) string {
	if value == math.Trunc(value) {
		return printer.Sprintf("%d", int64(value))
	}
	return printer.Sprintf("%.2f", value)
}

func escape(s string) string {
	return html.EscapeString(s)
}

func text(body string, rows ...[]channel.Button) channel.OutboundMessage {
	return channel.OutboundMessage{Text: body, Keyboard: rows}
}

func row(buttons ...channel.Button) []channel.Button {
	return buttons
}

func button(label string, data string) channel.Button {
	return channel.Button{Text: label, Data: data}
}

func backToBox(boxID int64) []channel.Button {
	return row(button("🔙 Назад", callback.WithID(callback.SelectBox, boxID)))
}

func backToReceiver(boxID int64) []channel.Button {
	return row(button("🔙 Назад", callback.WithID(callback.ReceiverCard, boxID)))
}

const (
	textBoxClosed     = "❌Эта коробка закрыта для новых участников. Ты не можешь к ней присоединиться!"
	textAlreadyMember = "🫷Притормози, ты уже состоишь в этой коробке как участник. Если хочешь посмотреть информацию о ней, напиши /start."
)

// ForError renders a user-facing message for precondition failures. boxID adds a back button when set.
func ForError(err error, boxID int64) (channel.OutboundMessage, bool) {
	var body string
	switch {
	case errors.Is(err, boxes.ErrBoxClosed):
		body = textBoxClosed
	case errors.Is(err, boxes.ErrAlreadyMember):
		body = textAlreadyMember
	case errors.Is(err, boxes.ErrNotAdmin):
		body = "⛔️Это может сделать только администратор коробки."
	case errors.Is(err, boxes.ErrParticipationLocked):
		body = "🔒Жеребьёвка уже проведена, пожелания и подарки в этой коробке больше нельзя изменить."
	case errors.Is(err, boxes.ErrNotGiftOwner):
		body = "⛔️Этот подарок принадлежит другому участнику."
	case errors.Is(err, boxes.ErrBoxNotFound):
		body = "❌Коробка не найдена. Возможно, её уже удалили."
		boxID = 0
	case errors.Is(err, boxes.ErrNotMember):
		body = "❌Вы не состоите в этой коробке."
	case errors.Is(err, boxes.ErrGiftNotFound):
		body = "❌Подарок не найден. Возможно, он уже удалён."
	case errors.Is(err, assignment.ErrInsufficientParticipants):
		body = "❌ Недостаточно участников для жеребьевки. Минимум 2 участника."
	case errors.Is(err, assignment.ErrIncompleteProfiles):
		body = "❌ Не все участники заполнили свои пожелания."
	case errors.Is(err, assignment.ErrAlreadyShuffled):
		body = "✅ Жеребьевка в этой коробке уже проведена."
	case errors.Is(err, relay.ErrNoCounterpart):
		body = "❌ Собеседник не найден: жеребьевка в этой коробке еще не проведена."
	case errors.Is(err, callback.ErrMalformed), errors.Is(err, callback.ErrUnknownAction):
		body = "❌ Некорректная кнопка. Откройте меню заново: /start"
		boxID = 0
	default:
		return channel.OutboundMessage{}, false
	}
	if boxID > 0 {
		return text(body, backToBox(boxID)), true
	}
	return text(body), true
}

func SessionExpired() channel.OutboundMessage {
	return text("⌛️ Время ожидания истекло. Начните заново из меню по команде /start.")
}

func Cancelled() channel.OutboundMessage {
	return text("🛑 Действие отменено. Чтобы вернуться в меню, напишите /start.")
}

const (
	ReportCaption = "Мне очень стыдно, но произошла ошибка, подробности в файле."
	ReportName    = "error.txt"
)

// OperatorReport wraps an incident dump as a document for the operator chat.
func OperatorReport(to int64, threadID int, body string) channel.OutboundMessage {
	return channel.OutboundMessage{
		To:       to,
		ThreadID: threadID,
		Document: &channel.Document{Name: ReportName, Data: []byte(body), Caption: ReportCaption},
	}
}

func Oops() channel.OutboundMessage {
	return text("Кажется что-то пошло не так, попробуйте повторить позже.")
}

func ChatInfo(chatID int64, threadID int, userID int64) channel.OutboundMessage {
	return text(fmt.Sprintf("<b>ID чата:</b> <code>%d</code>\n<b>ID топика:</b> <code>%d</code>\n<b>Ваш ID:</b> <code>%d</code>", chatID, threadID, userID))
}
