// Package autoload registers all built-in LLM providers via side effects.
// Import it for its init registrations:
//
//	import _ "helpdesk/pkg/llm/autoload"
package autoload

import (
	_ "helpdesk/pkg/llm/gemini"
	_ "helpdesk/pkg/llm/ollama"
	_ "helpdesk/pkg/llm/openailm"
)
