package utils

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
)

type EmailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func GetEmailConfig() *EmailConfig {
	return &EmailConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     os.Getenv("SMTP_PORT"),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}
}

func SendEmail(to, subject, htmlBody string) error {
	config := GetEmailConfig()
	if config.Host == "" || config.Port == "" || config.From == "" {
		return fmt.Errorf("SMTP not configured")
	}

	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n",
		config.From, to, subject)
	msg := []byte(headers + htmlBody)

	var auth smtp.Auth
	if config.Username != "" && config.Password != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}

	addr := config.Host + ":" + config.Port
	return smtp.SendMail(addr, auth, config.From, []string{to}, msg)
}

func SendWelcomeEmail(email, name string) {
	go func() {
		subject := "Welcome to A-hub!"
		body := fmt.Sprintf(`<h2>Welcome to A-hub, %s!</h2>
<p>Your membership account is ready. You can now:</p>
<ul>
<li>Earn points by checking in at association events</li>
<li>Spend points in the member store and at kiosks</li>
<li>Show your member card from the app</li>
</ul>
<p>See you at the next event!</p>
<p>The A-hub Team</p>`, strings.Split(name, " ")[0])
		if err := SendEmail(email, subject, body); err != nil {
			log.Printf("Failed to send welcome email to %s: %v", email, err)
		}
	}()
}

func SendOrderReceipt(email, name, orderNumber string, totalPoints int) {
	go func() {
		subject := fmt.Sprintf("Your A-hub order %s", orderNumber)
		body := fmt.Sprintf(`<h2>Thanks, %s!</h2>
<p>Your order <strong>%s</strong> is confirmed.</p>
<p>Points spent: <strong>%d</strong></p>`, strings.Split(name, " ")[0], orderNumber, totalPoints)
		if err := SendEmail(email, subject, body); err != nil {
			log.Printf("Failed to send order receipt to %s: %v", email, err)
		}
	}()
}
