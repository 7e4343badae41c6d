package techpulse

import (
	"fmt"
	"html"
	"log"
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type newsletterRequest struct {
	Email string `json:"email"`
}

type contactRequest struct {
	Company     string `json:"company"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Message     string `json:"message"`
	InquiryType string `json:"inquiryType"`
}

// handleNewsletterSubscribe validates the address and sends the welcome
// email. POST only; other methods get 405.
func (a *App) handleNewsletterSubscribe(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return c.String(http.StatusMethodNotAllowed, "Method not allowed")
	}

	var req newsletterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email is required"})
	}
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email is required"})
	}
	if !emailPattern.MatchString(req.Email) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid email format"})
	}

	err := a.mailer.Send(c.Request().Context(), Email{
		To:      []string{req.Email},
		Subject: fmt.Sprintf("Welcome to %s Newsletter!", a.Config.Name),
		HTML:    welcomeEmailHTML(a.Config.Name),
	})
	if err != nil {
		log.Printf("newsletter subscribe failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "Failed to subscribe to newsletter",
			"details": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Successfully subscribed to newsletter",
	})
}

// handleContactSend records the submission and notifies the site owner.
// The submission is stored even if email delivery later fails.
func (a *App) handleContactSend(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return c.JSON(http.StatusMethodNotAllowed, echo.Map{"error": "Method not allowed"})
	}

	var req contactRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "All fields are required"})
	}
	if req.Company == "" || req.FirstName == "" || req.LastName == "" ||
		req.Email == "" || req.Phone == "" || req.Message == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "All fields are required"})
	}

	subject := fmt.Sprintf("New %s inquiry from %s", req.InquiryType, req.Company)
	if _, err := a.Store.AddContactSubmission(ContactSubmission{
		FullName: req.FirstName + " " + req.LastName,
		Email:    req.Email,
		Phone:    req.Phone,
		Subject:  subject,
		Message:  req.Message,
	}); err != nil {
		log.Printf("store contact submission: %v", err)
	}

	recipient := a.Config.ContactRecipient
	if recipient == "" {
		recipient = a.Config.EmailFrom
	}
	err := a.mailer.Send(c.Request().Context(), Email{
		To:      []string{recipient},
		Subject: subject,
		HTML:    contactEmailHTML(req),
	})
	if err != nil {
		log.Printf("contact email failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func welcomeEmailHTML(siteName string) string {
	name := html.EscapeString(siteName)
	return `<div style="max-width: 600px; margin: 0 auto; font-family: Arial, sans-serif;">
  <h1 style="color: #2563eb; text-align: center;">Welcome to ` + name + `!</h1>
  <p>Thank you for subscribing to our newsletter. You'll now receive the latest tech news, startup insights, and industry trends directly in your inbox.</p>
  <div style="background: #f8fafc; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <h3 style="color: #1e293b; margin: 0 0 10px 0;">What to expect:</h3>
    <ul style="color: #475569;">
      <li>Breaking startup news and funding announcements</li>
      <li>Weekly market analysis and tech trends</li>
      <li>Exclusive interviews with industry leaders</li>
      <li>Latest product launches and innovations</li>
    </ul>
  </div>
  <p style="color: #64748b;">Stay tuned for your first newsletter coming soon!</p>
  <hr style="border: 1px solid #e2e8f0; margin: 30px 0;">
  <p style="color: #94a3b8; font-size: 14px; text-align: center;">
    You can unsubscribe at any time by replying to any newsletter email.
  </p>
</div>`
}

func contactEmailHTML(req contactRequest) string {
	esc := html.EscapeString
	return `<h2>New Contact Form Submission</h2>
<p><strong>Inquiry Type:</strong> ` + esc(req.InquiryType) + `</p>
<p><strong>Company:</strong> ` + esc(req.Company) + `</p>
<p><strong>Name:</strong> ` + esc(req.FirstName) + ` ` + esc(req.LastName) + `</p>
<p><strong>Email:</strong> ` + esc(req.Email) + `</p>
<p><strong>Phone:</strong> ` + esc(req.Phone) + `</p>
<h3>Message:</h3>
<p>` + esc(req.Message) + `</p>`
}
