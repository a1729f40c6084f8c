// Package handler adapts the engine's message protocol to HTTP for hosts
// that prefer a request/response surface. Each command kind is a POST
// endpoint; progress messages are inherently streaming and are dropped, the
// response carries only the terminal message.
package handler

import (
	"context"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"github.com/finsim/retirement-engine/internal/engine"
)

// Handler routes protocol commands arriving over HTTP to an Engine.
type Handler struct {
	engine *engine.Engine
}

// New wires a handler around an engine.
func New(eng *engine.Engine) *Handler {
	return &Handler{engine: eng}
}

// Serve is the fasthttp request handler.
func (h *Handler) Serve(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	if path == "/healthz" {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString(`{"status":"ok"}`)
		ctx.SetContentType("application/json")
		return
	}

	if !ctx.IsPost() {
		h.writeError(ctx, fasthttp.StatusMethodNotAllowed, "only POST is supported")
		return
	}

	kind := kindFromPath(path)
	if kind == "" {
		h.writeError(ctx, fasthttp.StatusNotFound, "unknown endpoint "+path)
		return
	}

	var cmd engine.Command
	if len(ctx.PostBody()) > 0 {
		if err := json.Unmarshal(ctx.PostBody(), &cmd); err != nil {
			h.writeError(ctx, fasthttp.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}
	cmd.Kind = kind

	// HTTP cannot stream progress; keep only the terminal message.
	var terminal engine.Message
	h.engine.Handle(context.Background(), cmd, func(msg engine.Message) {
		if msg.Kind != engine.MsgProgress {
			terminal = msg
		}
	})

	status := fasthttp.StatusOK
	if terminal.Kind == engine.MsgError {
		status = fasthttp.StatusUnprocessableEntity
	}

	body, err := json.Marshal(terminal)
	if err != nil {
		h.writeError(ctx, fasthttp.StatusInternalServerError, "encoding response: "+err.Error())
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

// kindFromPath maps an endpoint path to a protocol command kind.
func kindFromPath(path string) string {
	switch strings.TrimSuffix(path, "/") {
	case "/run":
		return engine.KindRun
	case "/legacy":
		return engine.KindLegacy
	case "/guardrails":
		return engine.KindGuardrails
	case "/roth-optimizer":
		return engine.KindRothOptimizer
	case "/optimize":
		return engine.KindOptimize
	}
	return ""
}

func (h *Handler) writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	body, _ := json.Marshal(engine.Message{Kind: engine.MsgError, Error: message})
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}
