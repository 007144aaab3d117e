package agent

import "testing"

func TestPersonalize(t *testing.T) {
	tests := []struct {
		name             string
		reply            string
		customer         string
		firstInteraction bool
		want             string
	}{
		{
			name:     "no name leaves reply alone",
			reply:    "Sure, here are our monitors.",
			customer: "",
			want:     "Sure, here are our monitors.",
		},
		{
			name:     "name already mentioned",
			reply:    "Sure Dana, here are our monitors.",
			customer: "Dana",
			want:     "Sure Dana, here are our monitors.",
		},
		{
			name:     "name mention is case-insensitive",
			reply:    "sure dana, here you go.",
			customer: "Dana",
			want:     "sure dana, here you go.",
		},
		{
			name:             "first interaction prefixes hello",
			reply:            "Welcome to our store.",
			customer:         "Dana",
			firstInteraction: true,
			want:             "Hello Dana! Welcome to our store.",
		},
		{
			name:             "first interaction replaces leading greeting word",
			reply:            "Hi How can I help you today?",
			customer:         "Dana",
			firstInteraction: true,
			want:             "Hello Dana! How can I help you today?",
		},
		{
			name:     "later turn prefixes name and downcases",
			reply:    "The UltraView 27 is in stock.",
			customer: "Dana",
			want:     "Dana, the ultraview 27 is in stock.",
		},
		{
			name:     "later turn starting with the name",
			reply:    "Dana already leads this reply.",
			customer: "Dana",
			want:     "Dana already leads this reply.",
		},
		{
			name:     "empty reply untouched",
			reply:    "",
			customer: "Dana",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := personalize(tt.reply, tt.customer, tt.firstInteraction)
			if got != tt.want {
				t.Errorf("personalize(%q) = %q, want %q", tt.reply, got, tt.want)
			}
		})
	}
}
