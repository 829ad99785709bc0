package utils

import (
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/demaesdadas/aldeia/config"
)

// SendMail sends an HTML email using SMTP settings from config. Callers that
// treat delivery as best-effort (moderation alerts, reply notifications) log
// the returned error and move on; the content mutation never depends on it.
func SendMail(to, subject, htmlBody string) error {
	cfg := config.Get()
	if cfg.SMTPHost == "" || cfg.SMTPFrom == "" {
		return fmt.Errorf("smtp not configured")
	}
	addr := net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort))
	auth := smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)

	fromName := cfg.SMTPFromName
	if fromName == "" {
		fromName = "De Mães Dadas"
	}
	enc := mime.BEncoding
	fromHeader := fmt.Sprintf("%s <%s>", enc.Encode("UTF-8", fromName), cfg.SMTPFrom)

	headers := []string{
		"From: " + fromHeader,
		"To: " + to,
		"Subject: " + enc.Encode("UTF-8", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}
	var msg strings.Builder
	msg.WriteString(strings.Join(headers, "\r\n"))
	msg.WriteString("\r\n\r\n")
	msg.WriteString(htmlBody)

	if cfg.SMTPTLS {
		return sendWithStartTLS(addr, auth, cfg.SMTPFrom, to, msg.String(), cfg.SMTPUsername != "")
	}
	return smtp.SendMail(addr, auth, cfg.SMTPFrom, []string{to}, []byte(msg.String()))
}

// sendWithStartTLS dials with timeouts and upgrades to TLS when the server offers it.
func sendWithStartTLS(addr string, auth smtp.Auth, from, to, msg string, useAuth bool) error {
	d := net.Dialer{Timeout: 5 * time.Second}
	conn, err := d.Dial("tcp", addr)
	if err != nil {
		return err
	}
	_ = conn.SetDeadline(time.Now().Add(15 * time.Second))
	host, _, _ := net.SplitHostPort(addr)
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return err
		}
	}
	if useAuth {
		if err := c.Auth(auth); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	wc, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := wc.Write([]byte(msg)); err != nil {
		_ = wc.Close()
		return err
	}
	return wc.Close()
}
