package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/meshvault/backend/internal/middleware"
	"github.com/meshvault/backend/internal/models"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
)

const assistantPrompt = "You are a helpful assistant for a 3D asset sharing platform. " +
	"You help users find 3D models and tutorials, and answer questions about " +
	"3D modeling, texturing, rigging, animation and rendering."

// ChatHandler proxies chat messages to the OpenAI API
type ChatHandler struct {
	client openai.Client
	log    zerolog.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(apiKey string, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		log:    log,
	}
}

// RegisterChatRoutes registers the chat routes
func (h *ChatHandler) RegisterChatRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.POST("/chat", h.Chat)
	g.POST("/chat/user", h.Chat, auth)
}

// Chat sends the conversation to the model and returns its reply. When the
// caller is authenticated their name is added to the system prompt so the
// assistant can address them.
func (h *ChatHandler) Chat(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	prompt := assistantPrompt
	if user := middleware.CurrentUser(c); user != nil {
		prompt += " The user you are talking to is named " + user.Name + "."
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	messages = append(messages, openai.SystemMessage(prompt))
	for _, m := range req.History {
		switch m.Role {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}
	messages = append(messages, openai.UserMessage(req.Message))

	completion, err := h.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    openai.ChatModelGPT4oMini,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("chat completion request failed")
		return echo.NewHTTPError(http.StatusBadGateway, "Chat service unavailable")
	}
	if len(completion.Choices) == 0 {
		return echo.NewHTTPError(http.StatusBadGateway, "Chat service unavailable")
	}

	return respondData(c, http.StatusOK, map[string]string{
		"reply": completion.Choices[0].Message.Content,
	})
}
