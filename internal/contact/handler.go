package contact

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/nkengderick/nkengdev/internal/instrumentation"
	"github.com/nkengderick/nkengdev/internal/telemetry/tracing"
	"github.com/nkengderick/nkengdev/pkg"
)

const emailDispatchTimeout = 30 * time.Second

type emailSender interface {
	SendEmail(ctx context.Context, params SendEmailParams) (string, error)
}

// ContactMessage is a submitted contact form.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (m *ContactMessage) validate() error {
	var problems []string
	if len(strings.TrimSpace(m.Name)) < 2 {
		problems = append(problems, "name must be at least 2 characters")
	}
	if _, err := mail.ParseAddress(m.Email); err != nil {
		problems = append(problems, "invalid email address")
	}
	if len(strings.TrimSpace(m.Subject)) < 5 {
		problems = append(problems, "subject must be at least 5 characters")
	}
	if len(strings.TrimSpace(m.Message)) < 10 {
		problems = append(problems, "message must be at least 10 characters")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid form data: %s", strings.Join(problems, "; "))
	}
	return nil
}

type HandlerParams struct {
	EmailSender emailSender
	Subscribers *Subscribers
	Instr       *instrumentation.Instrumentation
	FromAddress string
	FromName    string
	AdminEmail  string
}

type Handler struct {
	emailSender emailSender
	subscribers *Subscribers
	instr       *instrumentation.Instrumentation
	fromAddress string
	fromName    string
	adminEmail  string
}

func NewHandler(params HandlerParams) *Handler {
	return &Handler{
		emailSender: params.EmailSender,
		subscribers: params.Subscribers,
		instr:       params.Instr,
		fromAddress: params.FromAddress,
		fromName:    params.FromName,
		adminEmail:  params.AdminEmail,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/contact", handler.handleContact).Methods("POST").Name("contact")
	router.HandleFunc("/newsletter/subscribe", handler.handleSubscribe).Methods("POST", "OPTIONS").Name("newsletter-subscribe")
}

func (handler *Handler) handleContact(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "contactHandler.contact")
	defer span.End()

	var msg ContactMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := msg.validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	receivedAt := time.Now()
	go handler.dispatchContactEmails(msg, receivedAt)

	pkg.WriteResponse(w, pkg.ContentType.JSON, `{"status":"sent"}`, http.StatusAccepted)
}

// dispatchContactEmails notifies the admin and confirms to the sender.
// Runs detached from the request, failures are logged and counted only.
func (handler *Handler) dispatchContactEmails(msg ContactMessage, receivedAt time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), emailDispatchTimeout)
	defer cancel()

	adminHTML, err := renderContactFormEmail(msg, receivedAt)
	if err != nil {
		handler.countEmailFailed()
		log.Errorf("render contact form email: %s", err)
		return
	}

	if _, err := handler.emailSender.SendEmail(ctx, SendEmailParams{
		From:    fmt.Sprintf("Contact Form <%s>", handler.fromAddress),
		To:      []string{handler.adminEmail},
		Subject: fmt.Sprintf("Contact Form Submission: %s", msg.Subject),
		HTML:    adminHTML,
	}); err != nil {
		handler.countEmailFailed()
		log.Errorf("send contact form email to admin: %s", err)
	} else {
		handler.countEmailSent()
	}

	confirmationHTML, err := renderContactConfirmation(msg.Name, handler.fromName)
	if err != nil {
		handler.countEmailFailed()
		log.Errorf("render contact confirmation email: %s", err)
		return
	}

	if _, err := handler.emailSender.SendEmail(ctx, SendEmailParams{
		From:    fmt.Sprintf("%s <%s>", handler.fromName, handler.fromAddress),
		To:      []string{msg.Email},
		Subject: "Thanks for contacting me!",
		HTML:    confirmationHTML,
	}); err != nil {
		handler.countEmailFailed()
		log.Errorf("send contact confirmation email: %s", err)
	} else {
		handler.countEmailSent()
	}
}

type subscribeRequest struct {
	Email string `json:"email"`
}

func (handler *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "contactHandler.subscribe")
	defer span.End()

	var subReq subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&subReq); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	addr, err := mail.ParseAddress(subReq.Email)
	if err != nil {
		http.Error(w, "invalid email address", http.StatusBadRequest)
		return
	}

	added, err := handler.subscribers.Add(ctx, addr.Address)
	if err != nil {
		log.Errorf("subscribe to newsletter: %s", err)
		http.Error(w, "failed to subscribe", http.StatusInternalServerError)
		return
	}

	if !added {
		pkg.WriteJSONResponseOK(w, `{"status":"already subscribed"}`)
		return
	}

	go handler.dispatchWelcomeEmail(addr.Address)

	pkg.WriteJSONResponseOK(w, `{"status":"subscribed"}`)
}

func (handler *Handler) dispatchWelcomeEmail(email string) {
	ctx, cancel := context.WithTimeout(context.Background(), emailDispatchTimeout)
	defer cancel()

	welcomeHTML, err := renderNewsletterWelcome(email, handler.fromName)
	if err != nil {
		handler.countEmailFailed()
		log.Errorf("render newsletter welcome email: %s", err)
		return
	}

	if _, err := handler.emailSender.SendEmail(ctx, SendEmailParams{
		From:    fmt.Sprintf("%s <%s>", handler.fromName, handler.fromAddress),
		To:      []string{email},
		Subject: "Welcome to my Newsletter!",
		HTML:    welcomeHTML,
	}); err != nil {
		handler.countEmailFailed()
		log.Errorf("send newsletter welcome email: %s", err)
		return
	}
	handler.countEmailSent()
}

func (handler *Handler) countEmailSent() {
	if handler.instr != nil {
		handler.instr.CounterEmailsSent.Inc()
	}
}

func (handler *Handler) countEmailFailed() {
	if handler.instr != nil {
		handler.instr.CounterEmailsFailed.Inc()
	}
}
