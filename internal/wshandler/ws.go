package wshandler

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gofiber/contrib/websocket"

	"github.com/hangpal/hangpal/pkg/model"
)

// WebMessage is the push envelope sent to a subscribed client. Either a chat
// message for an invite the user follows or an invite status update.
type WebMessage struct {
	Typ         string                `json:"type"`
	UID         string                `json:"uid,omitempty"`
	Invite      *model.InviteDTO      `json:"invite,omitempty"`
	ChatMessage *model.ChatMessageDTO `json:"chat_msg,omitempty"`
}

type JSONWsHandler struct {
	log    *slog.Logger
	name   string
	ws     *websocket.Conn
	ch     chan *WebMessage
	active int32
}

func NewHandler(log *slog.Logger, name string, ws *websocket.Conn) *JSONWsHandler {
	return &JSONWsHandler{
		log:    log.With("client", name),
		name:   name,
		ws:     ws,
		ch:     make(chan *WebMessage, 10),
		active: 1,
	}
}

func (w *JSONWsHandler) IsActive() bool {
	return w != nil && atomic.LoadInt32(&w.active) == 1
}

func (w *JSONWsHandler) stop() {
	if atomic.CompareAndSwapInt32(&w.active, 1, 0) {
		close(w.ch)
		w.ws.Close()
	}
}

func (w *JSONWsHandler) writer() {
	for item := range w.ch {
		if !w.IsActive() {
			return
		}

		if item == nil {
			continue
		}

		_ = w.ws.WriteJSON(item)
	}
}

func (w *JSONWsHandler) reader() {
	defer w.stop()

	for {
		_, _, err := w.ws.ReadMessage()

		if err != nil {
			w.log.Error("error on read", slog.Any("error", err))

			return
		}
	}
}

// NewChatMessage pushes a chat message, dropping it when the client's buffer
// is full. Returns false once the connection is gone so that fanout loops can
// unsubscribe the handler.
func (w *JSONWsHandler) NewChatMessage(msg *model.ChatMessageDTO) bool {
	if w == nil || !w.IsActive() {
		return false
	}

	select {
	case w.ch <- &WebMessage{Typ: "chat", ChatMessage: msg}:
	default:
	}

	return true
}

// Send queues any message, dropping it when the client's buffer is full.
func (w *JSONWsHandler) Send(msg *WebMessage) bool {
	if w == nil || !w.IsActive() {
		return false
	}

	select {
	case w.ch <- msg:
	default:
	}

	return true
}

func (w *JSONWsHandler) InviteChanged(inv *model.InviteDTO) bool {
	if w == nil || !w.IsActive() {
		return false
	}

	select {
	case w.ch <- &WebMessage{Typ: "invite", UID: inv.UID, Invite: inv}:
	default:
	}

	return true
}

func (w *JSONWsHandler) closehandler(code int, text string) error {
	w.log.Info(fmt.Sprintf("closed with code %d, msg %s", code, text))
	w.stop()

	return nil
}

func (w *JSONWsHandler) Listen() {
	w.log.Debug("ws start")
	w.ws.SetCloseHandler(w.closehandler)

	go w.writer()
	w.reader()
	w.log.Debug("ws stop")
}
