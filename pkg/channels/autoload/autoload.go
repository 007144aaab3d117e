// Package autoload registers all built-in channels via side effects.
// Import it for its init registrations:
//
//	import _ "helpdesk/pkg/channels/autoload"
package autoload

import (
	_ "helpdesk/pkg/channels/telegram"
	_ "helpdesk/pkg/channels/web"
)
