package mail

import (
	"strings"
	"testing"

	"github.com/littlenest/core/internal/config"
)

func TestSendDisabledIsNoop(t *testing.T) {
	s := New(config.MailOptions{Enable: false})
	if s.Enabled() {
		t.Error("Enabled() = true for disabled config")
	}
	err := s.Send(Message{To: []string{"parent@example.com"}, Subject: "x", Text: "y"})
	if err != nil {
		t.Errorf("disabled send returned error: %v", err)
	}
}

func TestResetCodeMessage(t *testing.T) {
	msg := ResetCodeMessage("parent@example.com", "Dana", "042137")
	if len(msg.To) != 1 || msg.To[0] != "parent@example.com" {
		t.Errorf("To = %v", msg.To)
	}
	if !strings.Contains(msg.HTML, "042137") || !strings.Contains(msg.Text, "042137") {
		t.Error("reset code missing from message body")
	}
	if !strings.Contains(msg.HTML, "Dana") {
		t.Error("recipient name missing from message body")
	}

	anon := ResetCodeMessage("parent@example.com", "", "042137")
	if !strings.Contains(anon.Text, "parent@example.com") {
		t.Error("fallback to address when name is empty")
	}
}
