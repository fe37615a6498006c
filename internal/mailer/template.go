package mailer

import (
	"bytes"
	"html/template"
)

// The activation mail carries only the numeric code, never the signed token.
var activationTmpl = template.Must(template.New("activation").Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: sans-serif; color: #333;">
    <h2>Welcome to LearnSpace, {{.Name}}!</h2>
    <p>Use the code below to activate your account. It expires in 5 minutes.</p>
    <p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">{{.Code}}</p>
    <p>If you did not sign up, you can ignore this email.</p>
  </body>
</html>`))

func renderActivationMail(name, code string) (string, error) {
	var buf bytes.Buffer
	err := activationTmpl.Execute(&buf, struct {
		Name string
		Code string
	}{Name: name, Code: code})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
