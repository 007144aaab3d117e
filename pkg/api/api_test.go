package api

import (
	"strings"
	"testing"
)

func TestTurnRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		message string
		wantErr bool
		want    string
	}{
		{name: "plain message", message: "where is my order?", want: "where is my order?"},
		{name: "trims whitespace", message: "  hello  \n", want: "hello"},
		{name: "empty", message: "", wantErr: true},
		{name: "whitespace only", message: "   \t\n", wantErr: true},
		{name: "at limit", message: strings.Repeat("a", MaxMessageLength), want: strings.Repeat("a", MaxMessageLength)},
		{name: "over limit", message: strings.Repeat("a", MaxMessageLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &TurnRequest{Message: tt.message}
			err := req.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if req.Message != tt.want {
				t.Errorf("message = %q, want %q", req.Message, tt.want)
			}
		})
	}
}
