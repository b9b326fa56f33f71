package render

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/explrms/secretSanta/internal/boxes"
	"github.com/explrms/secretSanta/internal/callback"
	"github.com/explrms/secretSanta/internal/channel"
	"github.com/explrms/secretSanta/internal/survey"
)

func SurveyIntro() channel.OutboundMessage {
	return text("🎙️Пожалуйста, ответьте на несколько вопросов, чтобы Ваш санта мог подарить вам лучший подарок. Помните, что заполнить пожелания для этой коробки можно только пока коробка открыта для новых участников!")
}

func SurveyQuestion(index int) channel.OutboundMessage {
	return text(escape(survey.Prompt(index)))
}

func SurveyEmptyAnswer(index int) channel.OutboundMessage {
	return text("❌В ответе нет текста. Напишите ответ сообщением.\n\n" + escape(survey.Prompt(index)))
}

func SurveyDone() channel.OutboundMessage {
	return text("🎉 Спасибо за ответы!\n\n", row(button("🔙 В меню", callback.Plain(callback.MainMenu))))
}

func GiftsIntro() channel.OutboundMessage {
	return text("💡Давай заполним подарки, которые ты хотел бы получить. Ты сможешь внести сразу несколько вариантов подарков. " +
		"Для каждого подарка можно указать, хотел бы ты получить именно этот предмет по ссылке или просто что-нибудь похожее.\n" +
		"Если у твоего Санты будет несколько вариантов с отметкой \"Именно это\" - он должен будет выбрать один из этих вариантов. " +
		"Так подарок станет сюрпризом.\n\n" +
		"Учти, что заполнение желаемых подарков для этой коробки будет доступно тебе только пока коробка открыта для новых участников. " +
		"Если ты передумал заполнять подарки, напиши /stop")
}

func AskGiftURL() channel.OutboundMessage {
	return text("🎁 Пожалуйста, отправь ссылку на подарок с любого маркетплейса.")
}

func AskNextGiftURL() channel.OutboundMessage {
	return text("🎁 Пожалуйста, отправьте ссылку на следующий подарок.")
}

func InvalidGiftURL() channel.OutboundMessage {
	return text("Кажется вы отправили недействительную ссылку.")
}

func AskGiftExact() channel.OutboundMessage {
	return text("🎁 Вы хотите получить именно этот подарок или что-то похожее?",
		row(
			button("🎯 Именно это", callback.WithFlag(callback.GiftIsExact, true)),
			button("🎲 Что-то похожее", callback.WithFlag(callback.GiftIsExact, false)),
		))
}

func GiftAdded() channel.OutboundMessage {
	return text("🎉 Ваш подарок успешно добавлен! Хотите добавить еще один или завершить?",
		row(
			button("🎁 Добавить еще один подарок", callback.Plain(callback.AddAnotherGift)),
			button("🚪 Завершить добавление", callback.Plain(callback.ExitGiftFilling)),
		))
}

func GiftFillingDone() channel.OutboundMessage {
	return text("🚪 Вы завершили добавление подарков. Вы можете вернуться к коробке из меню по команде /start.")
}

func GiftList(boxID int64, gifts []boxes.Gift) channel.OutboundMessage {
	rows := make([][]channel.Button, 0, len(gifts)+2)
	for i, gift := range gifts {
		rows = append(rows, row(
			channel.Button{Text: fmt.Sprintf("%d. %s", i+1, gift.URL), URL: gift.URL},
			button("🗑️", callback.WithID(callback.DeleteGift, gift.ID)),
		))
	}
	rows = append(rows,
		row(button("🎁Добавить подарки", callback.WithID(callback.FillGifts, boxID))),
		row(button("🔙Вернуться в коробку", callback.WithID(callback.SelectBox, boxID))),
	)
	return text("✏️В этом меню можно удалить ненужные подарки или добавить новые:", rows...)
}

func GiftDeleted(boxID int64) channel.OutboundMessage {
	return text("✅Подарок успешно удалён!", row(button("🔙Назад в список подарков", callback.WithID(callback.ListGifts, boxID))))
}

func ReceiverCard(boxID int64, receiver boxes.User, hasProfile, hasGifts bool) channel.OutboundMessage {
	username := "не указан"
	if receiver.Username != "" {
		username = "@" + escape(receiver.Username)
	}
	body := fmt.Sprintf("🧑‍🎄 <b>Профиль подопечного</b>\n\n"+
		"👤 <b>Имя:</b> %s\n"+
		"📅 <b>Дата регистрации:</b> %s\n"+
		"📧 <b>Username:</b> %s\n\n"+
		"❗️Не пиши человеку лично, это выдаст тебя и Тайного Санты не получится! Лучше воспользуйся анонимным чатом в боте.",
		escape(receiver.FullName), receiver.RegisteredAt.Format(boxes.DateLayout), username)

	var rows [][]channel.Button
	if hasProfile {
		rows = append(rows, row(button("📄 О пользователе", callback.WithID(callback.UserProfile, boxID))))
	}
	if hasGifts {
		rows = append(rows, row(button("🎁 Желаемые подарки", callback.WithID(callback.UserGiftWishes, boxID))))
	}
	rows = append(rows,
		row(button("🎭Анонимное сообщение", callback.WithID(callback.SendSantaMessage, boxID))),
		backToBox(boxID),
	)
	return text(body, rows...)
}

func ReceiverUnavailable(boxID int64) channel.OutboundMessage {
	return text("❌ Профиль подопечного недоступен.", backToBox(boxID))
}

func ReceiverProfile(boxID int64, profile map[string]string) channel.OutboundMessage {
	if len(profile) == 0 {
		return text("❌ Профиль пользователя отсутствует.", backToReceiver(boxID))
	}
	return text("📄 <b>Анкета подопечного</b>\n\n"+survey.Render(profile), backToReceiver(boxID))
}

// GiftWishes lists the receiver's gifts in random order so the santa cannot infer priority.
func GiftWishes(boxID int64, gifts []boxes.Gift) channel.OutboundMessage {
	if len(gifts) == 0 {
		return text("❌ Пожелания к подаркам отсутствуют.", backToReceiver(boxID))
	}
	shuffled := append([]boxes.Gift(nil), gifts...)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	var b strings.Builder
	b.WriteString("🎁 <b>Желаемые подарки</b>\n\n")
	for _, gift := range shuffled {
		icon := "🎲"
		if gift.IsExact {
			icon = "🎯"
		}
		fmt.Fprintf(&b, "🎁 %s — %s\n", escape(gift.URL), icon)
	}
	b.WriteString("\n🎯 - хочется получить именно это; 🎲 - хочется что-нибудь похожее")
	msg := text(b.String(), backToReceiver(boxID))
	msg.DisablePreview = true
	return msg
}
