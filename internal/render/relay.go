package render

import (
	"fmt"

	"github.com/explrms/secretSanta/internal/callback"
	"github.com/explrms/secretSanta/internal/channel"
	"github.com/explrms/secretSanta/internal/relay"
)

func AskMessage(dir relay.Direction) channel.OutboundMessage {
	if dir == relay.ToSanta {
		return text("📤Напиши сообщение своему Санте, а я перешлю его.\nЕсли передумал писать, напиши /stop.")
	}
	return text("📤Напиши сообщение своему подопечному, а я перешлю его анонимно. " +
		"Старайся не выдать себя при общении, чтобы не испортить сюрприз!\n" +
		"Если передумал писать, напиши /stop.")
}

func EmptyRelayMessage() channel.OutboundMessage {
	return text("❌В твоем сообщении нет текста. Напиши что-нибудь другое.")
}

func RelayDelivered() channel.OutboundMessage {
	return text("✅Твое сообщение успешно доставлено!")
}

func RelayFailed(dir relay.Direction) channel.OutboundMessage {
	if dir == relay.ToSanta {
		return text("❌Не получилось доставить сообщение. Неужели Санта заблокировал бота?")
	}
	return text("❌Не получилось доставить сообщение. Неужели получатель заблокировал бота?")
}

// RelayPayload is what the counterpart sees. A message to the receiver never names the santa.
func RelayPayload(msg relay.Message) channel.OutboundMessage {
	boxID := msg.Box.ID
	if msg.Direction == relay.ToSanta {
		name := ""
		if msg.Receiver != nil {
			name = msg.Receiver.DisplayName()
		}
		return text(
			fmt.Sprintf("🎅Хо-хо-хо. Тебе сообщение от твоего подопечного %s из коробки %s:\n\n<i>%s</i>",
				escape(name), escape(msg.Box.Name), escape(msg.Text)),
			row(button("✉️Ответить анонимно", callback.WithID(callback.SendSantaMessage, boxID))),
			row(button("🧑‍🎄Профиль подопечного", callback.WithID(callback.ReceiverCard, boxID))),
		)
	}
	return text(
		fmt.Sprintf("🎅Хо-хо-хо. Тебе сообщение от Тайного Санты из коробки %s:\n\n<i>%s</i>",
			escape(msg.Box.Name), escape(msg.Text)),
		row(button("✉️Ответить Санте", callback.WithID(callback.SendToSanta, boxID))),
	)
}
