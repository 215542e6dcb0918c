package gemini

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/systemcmd0122/developer-bot/backend/model"
)

const systemPrompt = "あなたはDiscordサーバーの雑談相手です。短く、フレンドリーに日本語で返答してください。"

// Client talks to Gemini through its OpenAI-compatible endpoint.
type Client struct {
	client *openai.Client
	model  string
}

func New(apiKey string, baseURL string, chatModel string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL

	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  chatModel,
	}
}

// Chat sends the stored history plus the new prompt and returns the
// generated reply.
func (c *Client) Chat(ctx context.Context, history []model.ConversationTurn, prompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})

	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Content,
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from model")
	}

	return resp.Choices[0].Message.Content, nil
}
