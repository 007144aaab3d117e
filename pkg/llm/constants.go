package llm

// Role constants define the message roles used throughout the pipeline.
// All providers must map these onto their native role vocabulary.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)
