package mail

import "fmt"

// ResetCodeMessage builds the password reset email carrying a short-lived
// verification code.
func ResetCodeMessage(to, name, code string) Message {
	display := name
	if display == "" {
		display = to
	}
	return Message{
		To:      []string{to},
		Subject: "Your password reset code",
		HTML: fmt.Sprintf(
			`<p>Hi %s,</p><p>Your password reset code is <b>%s</b>. It expires in 15 minutes.</p><p>If you did not request this, you can ignore this email.</p>`,
			display, code),
		Text: fmt.Sprintf("Hi %s,\n\nYour password reset code is %s. It expires in 15 minutes.\n\nIf you did not request this, you can ignore this email.\n", display, code),
	}
}

// AnnouncementMessage builds a school-wide announcement email.
func AnnouncementMessage(to []string, subject, body string) Message {
	return Message{
		To:      to,
		Subject: subject,
		Text:    body,
	}
}
