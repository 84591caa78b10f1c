package client

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var ErrTelegramNotConfigured = errors.New("Telegram bot not configured")

const telegramPriceDropTemplate = `🔔 QİYMƏT DÜŞDÜ! / PRICE DROP!

📱 %s
💰 %s ₼ (hədəf: %s ₼)
🏪 %s
🔗 %s`

// TelegramSendPriceAlert messages the given chat about a price drop.
func (c Client) TelegramSendPriceAlert(
	chatID int64, productName string, price decimal.Decimal, targetPrice decimal.Decimal,
	storeName string, productURL string,
) error {
	if c.Telegram == nil {
		return ErrTelegramNotConfigured
	}
	text := fmt.Sprintf(telegramPriceDropTemplate,
		productName, price.StringFixed(2), targetPrice.StringFixed(2), storeName, productURL)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := c.Telegram.Send(msg); err != nil {
		return errors.Wrapf(err, "error sending Telegram message to chat: %d", chatID)
	}
	return nil
}
