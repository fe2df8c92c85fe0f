package main

import (
	"context"
	"html"
	"net/http"
	"net/mail"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/portfolio-api/internal/apperr"
	"github.com/PaulBabatuyi/portfolio-api/internal/data"
	"github.com/PaulBabatuyi/portfolio-api/internal/normalize"
)

// Contact and analytics input limits, in characters.
const (
	minContactName    = 2
	maxContactName    = 100
	minContactMessage = 10
	maxContactMessage = 1000
	maxEmail          = 254
	contactListLimit  = 50

	maxAnalyticsPage    = 500
	maxAnalyticsElement = 200
	maxAnalyticsSession = 120
)

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

func validEmail(s string) bool {
	if s == "" || normalize.Len(s) > maxEmail {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// handleContact stores a contact form submission and notifies the owner in
// the background.
func (s *Server) handleContact(c echo.Context) error {
	var req contactRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	name := normalize.Text(req.Name)
	email := normalize.Email(req.Email)
	message := normalize.Text(req.Message)

	var fields []apperr.FieldError
	if n := normalize.Len(name); n < minContactName || n > maxContactName {
		fields = append(fields, apperr.FieldError{Field: "name", Message: "Name must be between 2 and 100 characters"})
	}
	if !validEmail(email) {
		fields = append(fields, apperr.FieldError{Field: "email", Message: "A valid email address is required"})
	}
	if n := normalize.Len(message); n < minContactMessage || n > maxContactMessage {
		fields = append(fields, apperr.FieldError{Field: "message", Message: "Message must be between 10 and 1000 characters"})
	}
	if len(fields) > 0 {
		return apperr.Validation(fields...)
	}

	client := clientInfo(c)
	contact := &data.Contact{
		Name:      html.EscapeString(name),
		Email:     email,
		Message:   html.EscapeString(message),
		UserAgent: client.UserAgent,
		IPAddress: client.IPAddress,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.contacts.Insert(c.Request().Context(), contact); err != nil {
		return apperr.Internal("Failed to send message. Please try again later.", err)
	}

	s.notifyContact(context.WithoutCancel(c.Request().Context()), contact)

	return respond(c, http.StatusCreated, envelope{
		"message": "Message sent successfully! I will get back to you soon.",
	})
}

func (s *Server) notifyContact(ctx context.Context, contact *data.Contact) {
	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()
		if err := s.notifier.NotifyContact(ctx, contact); err != nil {
			s.log.Warn("contact notification not sent",
				zap.String("contact_id", contact.ID.Hex()),
				zap.Error(err),
			)
		}
	}()
}

func (s *Server) handleListContacts(c echo.Context) error {
	contacts, err := s.contacts.Latest(c.Request().Context(), contactListLimit)
	if err != nil {
		return apperr.Internal("Failed to fetch contacts", err)
	}
	return respondData(c, http.StatusOK, contacts)
}

type analyticsRequest struct {
	Type      string         `json:"type"`
	Page      string         `json:"page"`
	Element   string         `json:"element"`
	SessionID string         `json:"sessionId"`
	Metadata  map[string]any `json:"metadata"`
}

var analyticsTypes = map[string]bool{
	data.EventPageView:        true,
	data.EventClick:           true,
	data.EventChatInteraction: true,
	data.EventContactForm:     true,
	data.EventDownload:        true,
}

func (s *Server) handleAnalytics(c echo.Context) error {
	var req analyticsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ev := &data.AnalyticsEvent{
		Type:      normalize.Text(req.Type),
		Page:      normalize.Text(req.Page),
		Element:   normalize.Text(req.Element),
		SessionID: normalize.Text(req.SessionID),
		Metadata:  req.Metadata,
		Timestamp: time.Now().UTC(),
	}

	var fields []apperr.FieldError
	if !analyticsTypes[ev.Type] {
		fields = append(fields, apperr.FieldError{Field: "type", Message: "Unknown event type"})
	}
	if normalize.Len(ev.Page) > maxAnalyticsPage {
		fields = append(fields, apperr.FieldError{Field: "page", Message: "Page is too long"})
	}
	if normalize.Len(ev.Element) > maxAnalyticsElement {
		fields = append(fields, apperr.FieldError{Field: "element", Message: "Element is too long"})
	}
	if normalize.Len(ev.SessionID) > maxAnalyticsSession {
		fields = append(fields, apperr.FieldError{Field: "sessionId", Message: "Session ID is too long"})
	}
	if len(fields) > 0 {
		return apperr.Validation(fields...)
	}

	client := clientInfo(c)
	ev.UserAgent, ev.IPAddress = client.UserAgent, client.IPAddress
	if err := s.analytics.Insert(c.Request().Context(), ev); err != nil {
		return apperr.Internal("Failed to track event", err)
	}
	return respond(c, http.StatusCreated, envelope{"message": "Event tracked successfully"})
}

func (s *Server) handlePortfolio(c echo.Context) error {
	doc, err := s.portfolio.Load()
	if err != nil {
		return apperr.Internal("Failed to load portfolio data", err)
	}
	return respondData(c, http.StatusOK, doc)
}

// handlePortfolioSection serves one top-level key of the portfolio document.
func (s *Server) handlePortfolioSection(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		section, err := s.portfolio.Section(name)
		if err != nil {
			return apperr.Internal("Failed to load "+name+" data", err)
		}
		return respondData(c, http.StatusOK, section)
	}
}
