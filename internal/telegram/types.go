package telegram

// Update is one inbound event delivered to the webhook: either a plain
// message (possibly edited) or a callback query from an inline keyboard.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	EditedMessage *Message       `json:"edited_message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// Message is an inbound or outbound chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      *Chat  `json:"chat,omitempty"`
	Text      string `json:"text,omitempty"`
	Caption   string `json:"caption,omitempty"`
}

// Chat identifies a conversation.
type Chat struct {
	ID int64 `json:"id"`
}

// CallbackQuery is an inline keyboard button activation.
type CallbackQuery struct {
	ID      string   `json:"id"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

// InlineKeyboardMarkup is the options layout attached below a message.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// InlineKeyboardButton is one selectable option carrying an opaque action tag.
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

// Body returns the message's text, falling back to its caption.
func (m *Message) Body() string {
	if m == nil {
		return ""
	}
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

// ChatID returns the conversation id, or 0 when the message carries none.
func (m *Message) ChatID() int64 {
	if m == nil || m.Chat == nil {
		return 0
	}
	return m.Chat.ID
}
