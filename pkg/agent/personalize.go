package agent

import "strings"

// personalize weaves the customer's name into a reply that does not
// already mention it. The rules are deterministic:
//
//   - first interaction: lead with "Hello <name>!", replacing a generic
//     leading greeting word when one is present
//   - later turns: prefix "<name>, " and downcase the original reply so
//     it reads as a continuation
func personalize(reply, name string, firstInteraction bool) string {
	if name == "" || reply == "" {
		return reply
	}

	if strings.Contains(strings.ToLower(reply), strings.ToLower(name)) {
		return reply
	}

	if firstInteraction {
		lower := strings.ToLower(reply)
		if !strings.HasPrefix(lower, "hi") && !strings.HasPrefix(lower, "hello") && !strings.HasPrefix(lower, "hey") {
			return "Hello " + name + "! " + reply
		}
		// Replace a bare generic greeting word with the personalized one
		words := strings.Fields(reply)
		switch strings.ToLower(words[0]) {
		case "hi", "hello", "hey":
			return "Hello " + name + "! " + strings.Join(words[1:], " ")
		}
		return reply
	}

	if !strings.HasPrefix(reply, name) {
		return name + ", " + strings.ToLower(reply)
	}
	return reply
}
