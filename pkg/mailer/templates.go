package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

var tpls = template.Must(template.New("emails").Parse(`
{{define "welcome"}}
<h2>Welcome to Tryo, {{.Name}}!</h2>
<p>Your profile is live. Post a project, or browse the board and find one worth joining.</p>
{{end}}

{{define "verify_email"}}
<h2>Verify your contact email</h2>
<p>Hi {{.Name}}, your verification code is <b>{{.Code}}</b>. It expires in 15 minutes.</p>
{{end}}
`))

// Render produces the HTML body for a named template. Unknown template names
// are an error so bad jobs surface instead of sending empty emails.
func Render(name string, data map[string]any) (string, error) {
	if tpls.Lookup(name) == nil {
		return "", fmt.Errorf("unknown email template %q", name)
	}
	var buf bytes.Buffer
	if err := tpls.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
