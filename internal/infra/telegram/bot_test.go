package telegram

import (
	"context"
	"testing"

	"github.com/ivankudzin/automarket/backend/internal/domain/model"
)

func TestFormatNotification(t *testing.T) {
	cases := []struct {
		name string
		in   model.Notification
		want string
	}{
		{name: "both", in: model.Notification{Title: "Deal completed", Message: "Both parties confirmed."}, want: "Deal completed\n\nBoth parties confirmed."},
		{name: "title only", in: model.Notification{Title: " Listing banned "}, want: "Listing banned"},
		{name: "message only", in: model.Notification{Message: "Report resolved"}, want: "Report resolved"},
	}
	for _, tc := range cases {
		if got := FormatNotification(tc.in); got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}

func TestNewBotRequiresToken(t *testing.T) {
	if _, err := NewBot("  ", 0); err == nil {
		t.Fatalf("expected error for empty token")
	}
}

func TestSendTextOnNilBot(t *testing.T) {
	var b *Bot
	if err := b.SendText(context.Background(), 1, "hi"); err == nil {
		t.Fatalf("expected error for uninitialized bot")
	}
}
