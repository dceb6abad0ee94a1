package interfaces

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"dekor/internal/service/chat/application"
)

// ChatHandler 暴露聊天代理接口。
type ChatHandler struct {
	service *application.ChatService
}

func NewChatHandler(service *application.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.handleChat)
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Text string `json:"text"`
}

func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	text, err := h.service.Ask(ctx, clientID(r), req.Message)
	if err != nil {
		var statusCode int
		switch {
		case errors.Is(err, application.ErrEmptyMessage):
			statusCode = http.StatusBadRequest
		case errors.Is(err, application.ErrRateLimited):
			statusCode = http.StatusTooManyRequests
		default:
			// 上游挂了属于网关类故障
			statusCode = http.StatusBadGateway
		}
		http.Error(w, err.Error(), statusCode)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chatResponse{Text: text})
}

// clientID 以来源 IP 作为限流主体，经过反代时优先取 X-Forwarded-For。
func clientID(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
