package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/huongkhe/schoolsite/internal/infrastructure/config"
	"github.com/huongkhe/schoolsite/internal/infrastructure/logging"
)

// subjectPrefix is prepended to every contact e-mail subject.
const subjectPrefix = "[Website THPT Hương Khê] "

const dialTimeout = 15 * time.Second

// Contact is a contact form submission.
type Contact struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone,omitempty" validate:"omitempty,phone"`
	Subject string `json:"subject" validate:"required,min=3,max=200"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

// SendFunc delivers one composed message.
type SendFunc func(ctx context.Context, msg *gomail.Msg) error

var contactTemplate = template.Must(template.New("contact").Parse(`<div style="font-family: Arial, sans-serif; color: #333;">
  <h2 style="color: #0066cc;">Thông báo liên hệ mới từ website</h2>
  <div style="background-color: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0;">
    <p><strong>Tên:</strong> {{.Name}}</p>
    <p><strong>Email:</strong> <a href="mailto:{{.Email}}">{{.Email}}</a></p>
    <p><strong>Điện thoại:</strong> {{if .Phone}}{{.Phone}}{{else}}-{{end}}</p>
    <p><strong>Chủ đề:</strong> {{.Subject}}</p>
  </div>
  <div style="background-color: #f9f9f9; padding: 15px; border-left: 4px solid #0066cc;">
    <p><strong>Nội dung:</strong></p>
    <p style="white-space: pre-wrap;">{{.Message}}</p>
  </div>
  <hr style="border: none; border-top: 1px solid #ccc; margin: 20px 0;">
  <p style="color: #666; font-size: 12px;">Email này được gửi từ website THPT Hương Khê. Hãy phản hồi trực tiếp đến {{.Email}}.</p>
</div>
`))

// Mailer sends contact e-mails.
type Mailer struct {
	cfg    config.MailConfig
	logger *logging.Logger
	send   SendFunc
	now    func() time.Time
}

// New creates a Mailer. A nil logger discards output.
func New(cfg config.MailConfig, logger *logging.Logger) *Mailer {
	if logger == nil {
		logger = logging.Discard()
	}
	m := &Mailer{cfg: cfg, logger: logger, now: time.Now}
	m.send = m.dialAndSend
	return m
}

// Enabled reports whether messages are actually delivered.
func (m *Mailer) Enabled() bool {
	return m.cfg.Enabled
}

// SendContact delivers a contact submission to the configured school address.
func (m *Mailer) SendContact(ctx context.Context, c Contact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.cfg.Enabled {
		m.logger.Info("contact message accepted (mail disabled)",
			"from_email", c.Email,
			"subject", c.Subject,
		)
		return nil
	}

	msg, err := m.buildContact(c)
	if err != nil {
		return err
	}
	if err := m.send(ctx, msg); err != nil {
		return fmt.Errorf("sending contact email: %w", err)
	}

	m.logger.Info("contact email sent", "from_email", c.Email, "subject", c.Subject)
	return nil
}

// buildContact composes the HTML message. go-mail folds and encodes the
// headers and quoted-printable encodes the body.
func (m *Mailer) buildContact(c Contact) (*gomail.Msg, error) {
	var body bytes.Buffer
	if err := contactTemplate.Execute(&body, c); err != nil {
		return nil, fmt.Errorf("rendering contact email: %w", err)
	}

	msg := gomail.NewMsg(gomail.WithEncoding(gomail.EncodingQP), gomail.WithCharset(gomail.CharsetUTF8))
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("mail.from: %w", err)
	}
	if err := msg.To(m.cfg.To); err != nil {
		return nil, fmt.Errorf("mail.to: %w", err)
	}
	if err := msg.ReplyTo(sanitizeHeader(c.Email)); err != nil {
		m.logger.Warn("contact email has no usable reply address", "from_email", c.Email, "error", err)
	}
	msg.Subject(subjectPrefix + sanitizeHeader(c.Subject))
	msg.SetDateWithValue(m.now())
	msg.SetMessageID()
	msg.SetBodyString(gomail.TypeTextHTML, body.String())
	return msg, nil
}

func (m *Mailer) newClient() (*gomail.Client, error) {
	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
		gomail.WithTimeout(dialTimeout),
	}
	switch m.cfg.TLS {
	case config.MailTLSSSL:
		opts = append(opts, gomail.WithSSL())
	case config.MailTLSNone:
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	default:
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.Username),
			gomail.WithPassword(m.cfg.Password),
		)
	}
	return gomail.NewClient(m.cfg.Host, opts...)
}

func (m *Mailer) dialAndSend(ctx context.Context, msg *gomail.Msg) error {
	client, err := m.newClient()
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// sanitizeHeader strips line breaks so user input cannot inject headers.
func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
