package render

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/explrms/secretSanta/internal/boxes"
	"github.com/explrms/secretSanta/internal/callback"
	"github.com/explrms/secretSanta/internal/channel"
)

func Greeting(list []boxes.Box) channel.OutboundMessage {
	var b strings.Builder
	b.WriteString("🎄Добро пожаловать в бота Тайный Санта 2025!\n\n")
	var rows [][]channel.Button
	if len(list) == 0 {
		b.WriteString("🫙Вы пока не состоите ни в одной коробке. Создайте её или используйте ссылку-приглашение от администратора.")
	} else {
		b.WriteString("🌟Вы состоите в следующих коробках:\n")
		for _, box := range list {
			b.WriteString("⭐︎ ")
			b.WriteString(escape(box.Name))
			b.WriteString("\n")
		}
		rows = append(rows, row(button("🎁Мои коробки", callback.Plain(callback.MyBoxes))))
	}
	rows = append(rows, row(button("🎉Создать коробку", callback.Plain(callback.CreateBox))))
	return text(b.String(), rows...)
}

func MyBoxes(list []boxes.Box) channel.OutboundMessage {
	rows := make([][]channel.Button, 0, len(list)+1)
	for _, box := range list {
		rows = append(rows, row(button(box.Name, callback.WithID(callback.SelectBox, box.ID))))
	}
	rows = append(rows, row(button("🔙Назад в меню", callback.Plain(callback.MainMenu))))
	return text("👇Выберите одну из ваших коробок:", rows...)
}

// BoxView is everything the box card needs about one viewer.
type BoxView struct {
	Box boxes.Box
	// Viewer is nil when the viewer administers the box without taking part.
	Viewer     *boxes.Participation
	HasGifts   bool
	Members    []boxes.Member
	InviteLink string
}

func BoxCard(v BoxView) channel.OutboundMessage {
	box := v.Box
	var b strings.Builder
	fmt.Fprintf(&b, "ℹ️Информация о коробке %s:\n\n", escape(box.Name))
	fmt.Fprintf(&b, "⌛️<b>Окончание регистрации участников:</b> %s\n", box.FinalRegDate.Format(boxes.DateLayout))
	fmt.Fprintf(&b, "🤑<b>Максимальная сумма подарка:</b> %s₽\n", Price(box.MaxGiftPrice))
	fmt.Fprintf(&b, "🎁<b>Вручение:</b> %s", box.GiftDate.Format(boxes.DateLayout))

	var rows [][]channel.Button
	shuffled := false
	switch {
	case v.Viewer == nil:
		b.WriteString("\n\n🙋Вы администратор этой коробки, но не участник. Чтобы участвовать самому, перейдите по ссылке-приглашению.")
	case v.Viewer.Open():
		b.WriteString("\n\n🕰️Вам еще не назначен подопечный для вручения подарка, ожидайте распределения.")
		if v.Viewer.HasProfile() {
			rows = append(rows, row(button("✨Изменить пожелания", callback.WithID(callback.FillWishes, box.ID))))
		} else {
			rows = append(rows, row(button("✨Заполнить пожелания", callback.WithID(callback.FillWishes, box.ID))))
		}
		if v.HasGifts {
			rows = append(rows, row(button("🎁Список подарков", callback.WithID(callback.ListGifts, box.ID))))
		} else {
			rows = append(rows, row(button("🎁Заполнить подарки", callback.WithID(callback.FillGifts, box.ID))))
		}
	default:
		shuffled = true
		b.WriteString("\n\n✅Вам назначен подопечный для вручения подарка. Вы можете ознакомиться с его пожеланиями или пообщаться через кнопку ниже.")
		rows = append(rows,
			row(button("🧑‍🎄Мой подопечный", callback.WithID(callback.ReceiverCard, box.ID))),
			row(button("✉️Написать моему Санте", callback.WithID(callback.SendToSanta, box.ID))),
		)
	}

	if v.InviteLink != "" {
		b.WriteString("\n\n👑Информация для администратора:\n")
		fmt.Fprintf(&b, "🔑Ссылка для вступления: <code>%s</code>\n", escape(v.InviteLink))
		b.WriteString("👥Участники:\n")
		for _, m := range v.Members {
			status := "❌"
			if m.Participation.HasProfile() {
				status = "✅"
			}
			if !m.Participation.Open() {
				shuffled = true
			}
			fmt.Fprintf(&b, "\n→ %s%s %s", escape(m.User.FullName), usernameSuffix(m.User), status)
		}
		b.WriteString("\n✅Заполнил пожелания, ❌Не заполнил пожелания")
		if !shuffled {
			rows = append(rows, row(button("🎲Провести жеребьёвку", callback.WithID(callback.ShuffleBox, box.ID))))
		}
		rows = append(rows, row(button("🗑️Удалить коробку", callback.WithID(callback.DeleteBox, box.ID))))
	}
	rows = append(rows, row(button("🔙Назад в список коробок", callback.Plain(callback.MyBoxes))))
	return text(b.String(), rows...)
}

func usernameSuffix(u boxes.User) string {
	if u.Username == "" {
		return ""
	}
	return " (@" + escape(u.Username) + ")"
}

func Joined(box boxes.Box) channel.OutboundMessage {
	return text(fmt.Sprintf("🎁Вы успешно вступили в коробку <strong>%s</strong>. Пожалуйста, ответьте на несколько вопросов, чтобы Ваш санта мог подарить вам лучший подарок!", escape(box.Name)))
}

func AskBoxName() channel.OutboundMessage {
	return text("🎉 Давайте создадим новую коробку!\n\nВведите название коробки:")
}

func AskDeadline() channel.OutboundMessage {
	return text("📅 Укажите дату окончания регистрации (в формате ДД.ММ.ГГГГ):")
}

func AskPriceCap() channel.OutboundMessage {
	return text("💰 Укажите максимальную сумму подарка (в рублях):")
}

func AskGiftDate() channel.OutboundMessage {
	return text("🎁 Укажите дату вручения подарков (в формате ДД.ММ.ГГГГ):")
}

func InvalidBoxName() channel.OutboundMessage {
	return text("❌ Название не может быть пустым и должно быть не длиннее 255 символов. Введите название коробки:")
}

func InvalidDate() channel.OutboundMessage {
	return text("❌ Неверный формат даты. Попробуйте снова (ДД.ММ.ГГГГ):")
}

func InvalidPrice() channel.OutboundMessage {
	return text("❌ Пожалуйста, введите число для максимальной суммы подарка.")
}

func BoxCreated(box boxes.Box, inviteLink string) channel.OutboundMessage {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 Коробка '%s' успешно создана!\n", escape(box.Name))
	fmt.Fprintf(&b, "🔑 Cсылка для вступления: <code>%s</code>\n", escape(inviteLink))
	fmt.Fprintf(&b, "📅 Регистрация до: %s\n", box.FinalRegDate.Format(boxes.DateLayout))
	fmt.Fprintf(&b, "💰 Максимальная сумма подарка: %s руб.\n", Price(box.MaxGiftPrice))
	fmt.Fprintf(&b, "🎁 Дата вручения: %s\n\n", box.GiftDate.Format(boxes.DateLayout))
	b.WriteString("Вы можете поделиться ссылкой для приглашения участников.")
	return text(b.String(), row(button("ℹ️ Открыть коробку", callback.WithID(callback.SelectBox, box.ID))))
}

// DeleteConfirm asks the admin to confirm deletion. Options come in random order.
func DeleteConfirm(box boxes.Box) channel.OutboundMessage {
	rows := [][]channel.Button{
		row(button("Да, я уверен(а)", callback.WithID(callback.DeleteBoxConfirm, box.ID))),
		row(button("Нет, отменить!", callback.WithID(callback.SelectBox, box.ID))),
		row(button("О боже, нет!", callback.WithID(callback.SelectBox, box.ID))),
	}
	rand.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
	return text(fmt.Sprintf("⁉️Вы подтверждаете удаление коробки <b>%s</b>?", escape(box.Name)), rows...)
}

func BoxDeleted() channel.OutboundMessage {
	return text("✅Коробка успешно удалена!", row(button("🔙Назад в меню", callback.Plain(callback.MainMenu))))
}

func ShuffleDone(boxID int64) channel.OutboundMessage {
	return text("🎲 Жеребьевка завершена! Всем участникам назначены подопечные для вручения подарков.",
		row(button("🔙 Вернуться к коробке", callback.WithID(callback.SelectBox, boxID))))
}

// AssignedNotice is pushed to every giver after the shuffle.
func AssignedNotice(box boxes.Box) channel.OutboundMessage {
	return text(fmt.Sprintf("🧑‍🎄Тебе назначен подопечный на Тайного Санту в коробке <b>%s</b>. Скорее открывай его профиль и готовься дарить подарок!", escape(box.Name)),
		row(button("🧑‍🎄Мой подопечный", callback.WithID(callback.ReceiverCard, box.ID))))
}

// ReminderNotice nudges a participant whose survey is still empty.
func ReminderNotice(box boxes.Box) channel.OutboundMessage {
	return text(fmt.Sprintf("⏰Регистрация в коробке <b>%s</b> закрывается %s, а ты ещё не заполнил пожелания. Без них Санта не сможет подобрать подарок!",
		escape(box.Name), box.FinalRegDate.Format(boxes.DateLayout)),
		row(button("✨Заполнить пожелания", callback.WithID(callback.FillWishes, box.ID))))
}
