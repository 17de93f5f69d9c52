package contract

import "context"

// Agent produces the reply of one capability for one turn.
type Agent interface {
	Respond(ctx context.Context, req AgentRequest) (AgentResponse, error)
}

type Registry interface {
	Intake() Agent
	Credit() Agent
	Interview() Agent
	Exchange() Agent
}

// ToolGateway executes the operations an agent may invoke during a turn.
// Failures are reported in ToolResult.Error so the agent can react to them.
type ToolGateway interface {
	Execute(ctx context.Context, req ToolRequest) ToolResult
}
