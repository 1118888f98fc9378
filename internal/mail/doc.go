// Package mail delivers contact form submissions to the school by e-mail.
//
// Messages are rendered as HTML and sent with go-mail over STARTTLS,
// implicit TLS or plain SMTP, with PLAIN auth when credentials are
// configured. With mail disabled, submissions are logged and accepted so
// the public form keeps working in development.
package mail
