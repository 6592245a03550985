package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Text is the fallback body; HTML is optional. Template names which canned
// layout the worker should wrap the message in.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // "welcome", "verify_email"
	Data     map[string]any `json:"data,omitempty"`
}
