package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const requestTimeout = 45 * time.Second

// Sender delivers a message to the companion and returns the reply to
// show. A non-nil error means the reply is a fallback. conversationID
// keys the upstream history.
type Sender interface {
	Chat(ctx context.Context, message, conversationID string) (string, error)
}

// Window is the companion chat window.
type Window struct {
	window       fyne.Window
	sender       Sender
	library      *Library
	pending      map[string]bool
	history      *widget.List
	transcript   *widget.List
	prompts      *fyne.Container
	input        *widget.Entry
	sendButton   *widget.Button
	deleteButton *widget.Button
	status       *widget.Label
}

// New creates the chat window with one empty conversation.
func New(app fyne.App, sender Sender) *Window {
	chat := &Window{
		window:  app.NewWindow("MindHaven Companion"),
		sender:  sender,
		library: NewLibrary(),
		pending: make(map[string]bool),
		input:   widget.NewMultiLineEntry(),
		status:  widget.NewLabel(""),
	}
	chat.input.SetPlaceHolder("Share your thoughts or ask a question...")
	chat.input.Wrapping = fyne.TextWrapWord
	chat.input.SetMinRowsVisible(2)

	chat.transcript = widget.NewList(
		func() int { return chat.library.Active().Len() },
		func() fyne.CanvasObject {
			label := widget.NewLabel("")
			label.Wrapping = fyne.TextWrapWord
			return label
		},
		func(id widget.ListItemID, object fyne.CanvasObject) {
			message, ok := chat.library.Active().At(id)
			if !ok {
				return
			}
			object.(*widget.Label).SetText(fmt.Sprintf("%s: %s", message.speaker(), message.Content))
		},
	)

	chat.history = widget.NewList(
		chat.library.Len,
		func() fyne.CanvasObject {
			return widget.NewLabel(defaultTitle)
		},
		func(id widget.ListItemID, object fyne.CanvasObject) {
			conversation, ok := chat.library.At(id)
			if !ok {
				return
			}
			object.(*widget.Label).SetText(conversation.Title())
		},
	)
	chat.history.OnSelected = func(id widget.ListItemID) {
		conversation, ok := chat.library.At(id)
		if !ok {
			return
		}
		chat.Select(conversation.ID())
	}

	chat.prompts = container.NewVBox()
	for _, prompt := range SuggestedPrompts {
		text := prompt
		chat.prompts.Add(widget.NewButton(text, func() { chat.Send(text) }))
	}

	chat.sendButton = widget.NewButton("Send", func() { chat.Send(chat.input.Text) })
	chat.deleteButton = widget.NewButton("Delete", func() { chat.Delete(chat.library.Active().ID()) })
	newButton := widget.NewButton("New conversation", chat.StartConversation)

	footer := container.NewVBox(
		chat.status,
		container.NewBorder(nil, nil, nil, chat.sendButton, chat.input),
	)
	body := container.NewBorder(chat.prompts, footer, nil, nil, chat.transcript)
	sidebar := container.NewBorder(newButton, chat.deleteButton, nil, nil, chat.history)
	split := container.NewHSplit(sidebar, body)
	split.Offset = 0.3
	chat.window.SetContent(split)
	chat.window.SetCloseIntercept(chat.window.Hide)
	chat.window.Resize(fyne.NewSize(680, 560))
	chat.showActive()
	return chat
}

// Show displays the chat window.
func (chat *Window) Show() {
	chat.window.Show()
	chat.window.RequestFocus()
	chat.window.Canvas().Focus(chat.input)
}

// Library exposes the conversations.
func (chat *Window) Library() *Library {
	return chat.library
}

// Conversation returns the active conversation.
func (chat *Window) Conversation() *Conversation {
	return chat.library.Active()
}

// Send posts text as the user in the active conversation and requests a
// reply in the background. Blank text is ignored. The reply lands in the
// conversation that asked, even if another one is active by then.
func (chat *Window) Send(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	conversation := chat.library.Active()
	conversation.Add(RoleUser, text)
	chat.pending[conversation.ID()] = true
	chat.input.SetText("")
	chat.history.Refresh()
	chat.showActive()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		reply, err := chat.sender.Chat(ctx, text, conversation.ID())
		if err != nil {
			log.Printf("chat request failed: %v", err)
		}
		fyne.Do(func() {
			chat.receive(conversation, reply)
		})
	}()
}

// StartConversation adds an empty conversation and selects it.
func (chat *Window) StartConversation() {
	chat.library.Create()
	chat.history.Refresh()
	chat.history.Select(chat.library.ActiveIndex())
	chat.showActive()
}

// Select switches to the conversation with id.
func (chat *Window) Select(id string) {
	if !chat.library.Select(id) {
		return
	}
	chat.showActive()
}

// Delete removes the conversation with id unless it is the only one.
// A reply still in flight for it is dropped.
func (chat *Window) Delete(id string) {
	if !chat.library.Delete(id) {
		return
	}
	delete(chat.pending, id)
	chat.history.Refresh()
	chat.history.Select(chat.library.ActiveIndex())
	chat.showActive()
}

func (chat *Window) receive(conversation *Conversation, reply string) {
	delete(chat.pending, conversation.ID())
	if !chat.library.Contains(conversation) {
		return
	}
	conversation.Add(RoleAssistant, reply)
	chat.history.Refresh()
	chat.showActive()
}

func (chat *Window) showActive() {
	active := chat.library.Active()
	if active.Len() == 0 {
		chat.prompts.Show()
	} else {
		chat.prompts.Hide()
	}
	chat.setTyping(chat.pending[active.ID()])
	if chat.library.Len() > 1 {
		chat.deleteButton.Enable()
	} else {
		chat.deleteButton.Disable()
	}
	chat.transcript.Refresh()
	chat.transcript.ScrollToBottom()
}

func (chat *Window) setTyping(typing bool) {
	if typing {
		chat.status.SetText("Companion is typing...")
		chat.sendButton.Disable()
		return
	}
	chat.status.SetText("")
	chat.sendButton.Enable()
}
