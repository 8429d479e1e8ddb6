package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the diy-status MCP prompt.
// It instructs the AI to summarize projects and the toolroom.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("diy-status",
		mcp.WithPromptDescription(
			"Check where your DIY projects stand: active steps, "+
				"tools needed, and anything broken or running low.",
		),
	)
}

// Handle processes the diy-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "DIY Project Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `get_projects` and `get_toolroom_inventory`.\n\n" +
						"Then:\n" +
						"1. List each project with its status and current step\n" +
						"2. For the active step, say which required tools I have and which are missing\n" +
						"3. Flag tools that are broken, need maintenance, or have quantity 0\n" +
						"4. Tell me what to do next",
				),
			},
		},
	}, nil
}
