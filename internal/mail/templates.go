package mail

import (
	"bytes"
	"fmt"
	"html/template"
)

const (
	SubjectWelcome               = "Welcome to Shopie! 🎉"
	SubjectPasswordReset         = "Password Reset Request - Shopie"
	SubjectPasswordChangeConfirm = "Password Changed Successfully - Shopie"
)

const layout = `{{define "layout"}}<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
{{template "content" .}}
<p>Best regards,<br>The Shopie Team</p>
</body>
</html>{{end}}`

var templates = map[string]string{
	"welcome": `{{define "content"}}<h1 style="color: #333;">Welcome to Shopie! 🎉</h1>
<p>Hello {{.Name}},</p>
<p>Welcome to Shopie! We're excited to have you on board.</p>
<p>Start exploring our products and enjoy shopping with us!</p>{{end}}`,

	"password-reset": `{{define "content"}}<h1 style="color: #333;">Password Reset Request</h1>
<p>Hello,</p>
<p>You requested a password reset for your Shopie account.</p>
<p><a href="{{.ResetURL}}" style="background-color: #007bff; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Reset Password</a></p>
<p>Or use this reset token: <code>{{.Token}}</code></p>
<p>This link will expire in {{.ExpiresIn}}.</p>
<p>If you didn't request this, please ignore this email.</p>{{end}}`,

	"password-change-confirmation": `{{define "content"}}<h1 style="color: #333;">Password Changed Successfully</h1>
<p>Hello,</p>
<p>Your password has been successfully changed.</p>
<p>If you didn't make this change, please contact our support team immediately.</p>{{end}}`,
}

func parseTemplates() (map[string]*template.Template, error) {
	parsed := make(map[string]*template.Template, len(templates))
	for name, body := range templates {
		t, err := template.New(name).Parse(layout)
		if err != nil {
			return nil, fmt.Errorf("failed to parse mail layout: %w", err)
		}
		if _, err := t.Parse(body); err != nil {
			return nil, fmt.Errorf("failed to parse mail template %s: %w", name, err)
		}
		parsed[name] = t
	}
	return parsed, nil
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("failed to render mail template %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
