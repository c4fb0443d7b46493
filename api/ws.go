package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Cameroonytoons/AniFig/animation"
	"github.com/Cameroonytoons/AniFig/controller"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMessage is the tagged-union envelope shared by both directions of the
// message channel. Inbound kinds: check-ready, create-animation,
// apply-animation, find-similar, modify-shared. Outbound kinds:
// plugin-ready, initialization-error, created, applied, similar-found,
// notify.
type wsMessage struct {
	Type          string            `json:"type"`
	Name          string            `json:"name,omitempty"`
	AnimationName string            `json:"animationName,omitempty"`
	Properties    *animation.Preset `json:"properties,omitempty"`
	NewProperties *animation.Preset `json:"newProperties,omitempty"`
	Count         int               `json:"count,omitempty"`
	IsInitialized bool              `json:"isInitialized,omitempty"`
	Error         string            `json:"error,omitempty"`
	Message       string            `json:"message,omitempty"`
	Animations    []similarGroup    `json:"animations,omitempty"`
}

type similarGroup struct {
	Name  string   `json:"name"`
	Nodes []string `json:"nodes"`
}

func (h *handler) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WS upgrade error: %v", err)
		return
	}
	defer conn.Close()

	// Serialise all WebSocket writes — gorilla/websocket forbids concurrent writes.
	var writeMu sync.Mutex
	reply := func(msg wsMessage) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("WS write error: %v", err)
		}
	}

	// One read loop: inbound messages are handled to completion in send
	// order, never two at once.
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		h.dispatch(r.Context(), msg, reply)
	}
}

func (h *handler) dispatch(ctx context.Context, msg wsMessage, reply func(wsMessage)) {
	if msg.Type == "check-ready" {
		if err := h.controller.InitErr(); err != nil {
			reply(wsMessage{Type: "initialization-error", Error: err.Error()})
			return
		}
		reply(wsMessage{Type: "plugin-ready", IsInitialized: h.controller.Ready()})
		return
	}
	if !h.controller.Ready() {
		reply(wsMessage{Type: "notify", Message: controller.ErrNotReady.Error()})
		return
	}

	switch msg.Type {
	case "create-animation":
		if msg.Properties == nil {
			reply(wsMessage{Type: "notify", Message: "create-animation requires properties"})
			return
		}
		if err := h.controller.CreateAnimation(ctx, msg.Name, *msg.Properties); err != nil {
			if errors.Is(err, controller.ErrExists) {
				reply(wsMessage{Type: "notify", Message: fmt.Sprintf("Animation %q already exists", msg.Name)})
				return
			}
			reply(wsMessage{Type: "notify", Message: err.Error()})
			return
		}
		reply(wsMessage{Type: "created", Name: msg.Name})

	case "apply-animation":
		count, err := h.controller.ApplyAnimation(ctx, msg.AnimationName)
		if err != nil {
			reply(wsMessage{Type: "notify", Message: applyErrorText(msg.AnimationName, err)})
			return
		}
		reply(wsMessage{Type: "applied", AnimationName: msg.AnimationName, Count: count})

	case "find-similar":
		groups, err := h.controller.FindSimilar()
		if err != nil {
			reply(wsMessage{Type: "notify", Message: err.Error()})
			return
		}
		if len(groups) == 0 {
			reply(wsMessage{Type: "notify", Message: "No similar animations found"})
			return
		}
		out := make([]similarGroup, 0, len(groups))
		for _, g := range groups {
			ids := make([]string, 0, len(g.Nodes))
			for _, n := range g.Nodes {
				ids = append(ids, n.ID)
			}
			out = append(out, similarGroup{Name: g.Name, Nodes: ids})
		}
		reply(wsMessage{Type: "similar-found", Animations: out})

	case "modify-shared":
		if msg.NewProperties == nil {
			reply(wsMessage{Type: "notify", Message: "modify-shared requires newProperties"})
			return
		}
		count, err := h.controller.ModifyShared(ctx, msg.AnimationName, *msg.NewProperties)
		if err != nil {
			reply(wsMessage{Type: "notify", Message: applyErrorText(msg.AnimationName, err)})
			return
		}
		reply(wsMessage{Type: "applied", AnimationName: msg.AnimationName, Count: count})

	default:
		log.Printf("WS unknown message type %q", msg.Type)
		reply(wsMessage{Type: "notify", Message: fmt.Sprintf("unknown message type %q", msg.Type)})
	}
}

func applyErrorText(name string, err error) string {
	if errors.Is(err, controller.ErrUnknownAnimation) {
		return fmt.Sprintf("No animation named %q", name)
	}
	return err.Error()
}
