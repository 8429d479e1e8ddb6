// Package prompts implements MCP prompt handlers for DIY Bot.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the diy-start MCP prompt.
// It opens the discovery conversation for a new project.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("diy-start",
		mcp.WithPromptDescription(
			"Start a new DIY project. The assistant checks your toolroom, "+
				"asks clarifying questions, and only plans steps once you are ready.",
		),
		mcp.WithArgument("description",
			mcp.ArgumentDescription("What you want to do, e.g. 'replace the kitchen faucet'"),
		),
	)
}

// Handle processes the diy-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	description := ""
	if args := req.Params.Arguments; args != nil {
		description = strings.TrimSpace(args["description"])
	}

	opening := "I want to start a new DIY project. Ask me to describe it first."
	title := "Start DIY project"
	if description != "" {
		opening = fmt.Sprintf("I just created a new project: %s.", description)
		title = fmt.Sprintf("Start DIY project: %s", description)
	}

	return &mcp.GetPromptResult{
		Description: title,
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(opening + "\n\n" +
					"Please:\n" +
					"1. Run `get_toolroom_inventory` and `get_house_inventory` to see what I have\n" +
					"2. Run `create_project` with a short title and my description\n" +
					"3. Ask me clarifying questions about the job and which tools I own\n" +
					"4. When I mention a tool I own, add it with `add_tool_to_inventory`\n" +
					"5. Only when I say I'm ready, plan 3 to 6 steps and save them with `add_project_steps`, " +
					"naming required tools by their toolroom name"),
			},
		},
	}, nil
}
