package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AbdRaqeeb/fastfood-api/internal/models"
)

const telegramAPI = "https://api.telegram.org"

// OrderNotifier is told about every committed order.
type OrderNotifier interface {
	NotifyNewOrder(order OrderNotification) error
}

// TelegramService handles sending notifications to Telegram.
type TelegramService struct {
	botToken      string
	kitchenChatID string
	baseURL       string
	client        *http.Client
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, kitchenChatID string) *TelegramService {
	return &TelegramService{
		botToken:      botToken,
		kitchenChatID: kitchenChatID,
		baseURL:       telegramAPI,
		client:        &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether both the bot token and the kitchen chat are configured.
func (s *TelegramService) Enabled() bool {
	return s.botToken != "" && s.kitchenChatID != ""
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to specified chat.
func (s *TelegramService) SendMessage(chatID, text string) error {
	if s.botToken == "" {
		log.Println("[Telegram] Bot token not configured")
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)

	body, err := json.Marshal(telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	resp, err := s.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[Telegram] Failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Telegram] Unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// OrderNotification contains order data for the kitchen chat.
type OrderNotification struct {
	Reference string
	Customer  string
	Phone     string
	Payment   models.PaymentMethod
	Delivery  models.DeliveryMode
	Address   string
	Comments  string
	Amount    decimal.Decimal
	Items     []OrderItemNotification
}

// OrderItemNotification contains order item data.
type OrderItemNotification struct {
	Name     string
	Quantity int
	UnitCost decimal.Decimal
}

func newOrderNotification(order models.Order, details []models.OrderDetail) OrderNotification {
	items := make([]OrderItemNotification, 0, len(details))
	for _, d := range details {
		items = append(items, OrderItemNotification{Name: d.FoodName, Quantity: d.Quantity, UnitCost: d.UnitCost})
	}
	return OrderNotification{
		Reference: order.Reference,
		Customer:  order.Name,
		Phone:     order.Phone,
		Payment:   order.Payment,
		Delivery:  order.Delivery,
		Address:   order.Address,
		Comments:  order.Comments,
		Amount:    order.Amount,
		Items:     items,
	}
}

// NotifyNewOrder sends the order summary to the kitchen chat.
func (s *TelegramService) NotifyNewOrder(order OrderNotification) error {
	if !s.Enabled() {
		return nil
	}

	var itemsList strings.Builder
	for i, item := range order.Items {
		lineTotal := item.UnitCost.Mul(decimal.NewFromInt(int64(item.Quantity)))
		itemsList.WriteString(fmt.Sprintf("%d. <b>%s</b>\n   %d x %s = %s\n",
			i+1,
			item.Name,
			item.Quantity,
			item.UnitCost.StringFixed(2),
			lineTotal.StringFixed(2),
		))
	}

	delivery := string(order.Delivery)
	if order.Delivery == models.DeliveryDelivery && order.Address != "" {
		delivery += " (" + order.Address + ")"
	}

	message := fmt.Sprintf(`<b>NEW ORDER %s</b>
<b>Customer:</b> %s
<b>Phone:</b> %s
<b>Items:</b>
%s
<b>Total:</b> %s
<b>Payment:</b> %s
<b>Delivery:</b> %s`,
		order.Reference,
		order.Customer,
		order.Phone,
		itemsList.String(),
		order.Amount.StringFixed(2),
		order.Payment,
		delivery,
	)
	if order.Comments != "" {
		message += "\n<b>Comments:</b> " + order.Comments
	}

	return s.SendMessage(s.kitchenChatID, strings.TrimSpace(message))
}
