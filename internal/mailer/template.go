package mailer

import (
	"bytes"
	"fmt"
	stdhtml "html"

	"github.com/yuin/goldmark"
	rendererhtml "github.com/yuin/goldmark/renderer/html"
)

const verificationSubject = "Verify Your Email Address"

const verificationMarkdown = `## Hello %[1]s,

Welcome to the %[3]s community! We're thrilled to have you on board.

Before you can start using your account, please verify your email address by clicking the button below:

<div style="text-align: center; margin: 20px 0;">
<form action="%[2]s" method="POST" style="display: inline;"><button type="submit" style="background-color: #4CAF50; color: white; padding: 10px 20px; border-radius: 5px; border: none; cursor: pointer;">Verify Email</button></form>
</div>

If the button above doesn't work, please copy and paste the following link into your web browser:

<a href="%[2]s">%[2]s</a>

If you did not request this, please ignore this email. Your account will not be activated without verification.

Best regards,<br>
The %[3]s Team
`

const verificationText = `Hello %[1]s,

Welcome to the %[3]s community! We're thrilled to have you on board.

Before you can start using your account, please verify your email address by clicking the link below:
%[2]s

If you did not request this, please ignore this email. Your account will not be activated without verification.

Best regards,
The %[3]s Team`

// No linkify: the link already sits in its own anchor.
var markdown = goldmark.New(
	goldmark.WithRendererOptions(rendererhtml.WithUnsafe()),
)

// NewVerificationMessage builds the mail asking toEmail to confirm its signup
// by following link.
func NewVerificationMessage(product, toEmail, toName, link string) (*Message, error) {
	source := fmt.Sprintf(verificationMarkdown,
		stdhtml.EscapeString(toName), stdhtml.EscapeString(link), stdhtml.EscapeString(product))
	var out bytes.Buffer
	if err := markdown.Convert([]byte(source), &out); err != nil {
		return nil, fmt.Errorf("render verification mail: %w", err)
	}
	return &Message{
		ToEmail: toEmail,
		ToName:  toName,
		Subject: verificationSubject,
		HTML:    `<div style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: auto;">` + "\n" + out.String() + "</div>",
		Text:    fmt.Sprintf(verificationText, toName, link, product),
	}, nil
}
