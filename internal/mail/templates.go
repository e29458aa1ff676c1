package mail

import "fmt"

// Activation builds the account activation message. The link is the
// provider's base activation link with the key appended, so each provider
// front-end can host its own activation page.
func Activation(to, baseLink, key string) Message {
	return Message{
		To:      to,
		Subject: "Activate your account",
		Body: fmt.Sprintf(
			"Welcome!\n\nFollow this link to activate your account:\n\n%s%s\n\nIf you did not register, ignore this message.\n",
			baseLink, key,
		),
	}
}

// PasswordReset builds the reset message carrying the one-time key.
func PasswordReset(to, baseLink, key string) Message {
	return Message{
		To:      to,
		Subject: "Password reset",
		Body: fmt.Sprintf(
			"A password reset was requested for this address.\n\nFollow this link to choose a new password:\n\n%s%s\n\nThe link expires in 24 hours. If you did not ask for a reset, ignore this message.\n",
			baseLink, key,
		),
	}
}

// Approval tells a provider that their service listing went live.
func Approval(to, serviceName string) Message {
	return Message{
		To:      to,
		Subject: "Your service listing was approved",
		Body: fmt.Sprintf(
			"Good news!\n\nYour service listing %q was approved and is now published in the directory.\n",
			serviceName,
		),
	}
}

// ReviewNotice tells the review inbox that service listings changed.
func ReviewNotice(to string, lines []string) Message {
	body := "The following service listings changed and need review:\n\n"
	for _, line := range lines {
		body += "  - " + line + "\n"
	}
	return Message{
		To:      to,
		Subject: "Service listings awaiting review",
		Body:    body,
	}
}
