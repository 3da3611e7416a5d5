package contact

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmailSender struct {
	sent chan SendEmailParams
}

func newFakeEmailSender() *fakeEmailSender {
	return &fakeEmailSender{sent: make(chan SendEmailParams, 10)}
}

func (f *fakeEmailSender) SendEmail(_ context.Context, params SendEmailParams) (string, error) {
	f.sent <- params
	return "fake-id", nil
}

func (f *fakeEmailSender) waitForEmail(t *testing.T) SendEmailParams {
	t.Helper()
	select {
	case params := <-f.sent:
		return params
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for email dispatch")
		return SendEmailParams{}
	}
}

func testHandlerSetup(t *testing.T) (*mux.Router, *fakeEmailSender, redismock.ClientMock) {
	t.Helper()

	db, redisMock := redismock.NewClientMock()
	sender := newFakeEmailSender()

	handler := NewHandler(HandlerParams{
		EmailSender: sender,
		Subscribers: NewSubscribers(db),
		FromAddress: "noreply@nkengderick.dev",
		FromName:    "Nkengbeza Derick",
		AdminEmail:  "nkengbderick@gmail.com",
	})

	r := mux.NewRouter()
	handler.SetupRoutes(r)

	return r, sender, redisMock
}

func TestContactMessage_Validate(t *testing.T) {
	valid := ContactMessage{
		Name:    "Jane Doe",
		Email:   "jane@example.com",
		Subject: "Project inquiry",
		Message: "I would like to discuss a project with you.",
	}
	require.NoError(t, valid.validate())

	for caseName, mutate := range map[string]func(m *ContactMessage){
		"short name":    func(m *ContactMessage) { m.Name = "J" },
		"bad email":     func(m *ContactMessage) { m.Email = "not-an-email" },
		"short subject": func(m *ContactMessage) { m.Subject = "Hey" },
		"short message": func(m *ContactMessage) { m.Message = "Hi" },
	} {
		t.Run(caseName, func(t *testing.T) {
			msg := valid
			mutate(&msg)
			assert.Error(t, msg.validate())
		})
	}
}

func TestHandler_Contact(t *testing.T) {
	r, sender, _ := testHandlerSetup(t)

	body := `{
		"name": "Jane Doe",
		"email": "jane@example.com",
		"subject": "Project inquiry",
		"message": "I would like to discuss a project with you."
	}`
	req, err := http.NewRequest("POST", "/contact", strings.NewReader(body))
	require.NoError(t, err)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
	assert.Equal(t, `{"status":"sent"}`, rr.Body.String())

	adminEmail := sender.waitForEmail(t)
	assert.Equal(t, []string{"nkengbderick@gmail.com"}, adminEmail.To)
	assert.Equal(t, "Contact Form Submission: Project inquiry", adminEmail.Subject)
	assert.Contains(t, adminEmail.HTML, "Jane Doe")
	assert.Contains(t, adminEmail.HTML, "jane@example.com")

	confirmationEmail := sender.waitForEmail(t)
	assert.Equal(t, []string{"jane@example.com"}, confirmationEmail.To)
	assert.Equal(t, "Thanks for contacting me!", confirmationEmail.Subject)
	assert.Contains(t, confirmationEmail.HTML, "Hello Jane Doe")
}

func TestHandler_Contact_InvalidForm(t *testing.T) {
	r, sender, _ := testHandlerSetup(t)

	for caseName, body := range map[string]string{
		"not json":      `{{{`,
		"short name":    `{"name":"J","email":"jane@example.com","subject":"Project inquiry","message":"A long enough message."}`,
		"bad email":     `{"name":"Jane","email":"nope","subject":"Project inquiry","message":"A long enough message."}`,
		"short message": `{"name":"Jane","email":"jane@example.com","subject":"Project inquiry","message":"Hi"}`,
	} {
		t.Run(caseName, func(t *testing.T) {
			req, err := http.NewRequest("POST", "/contact", strings.NewReader(body))
			require.NoError(t, err)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}

	assert.Empty(t, sender.sent)
}

func TestHandler_Subscribe(t *testing.T) {
	r, sender, redisMock := testHandlerSetup(t)
	redisMock.ExpectSAdd(subscribersKey, "jane@example.com").SetVal(1)

	req, err := http.NewRequest("POST", "/newsletter/subscribe", strings.NewReader(`{"email":"jane@example.com"}`))
	require.NoError(t, err)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, `{"status":"subscribed"}`, rr.Body.String())

	welcomeEmail := sender.waitForEmail(t)
	assert.Equal(t, []string{"jane@example.com"}, welcomeEmail.To)
	assert.Equal(t, "Welcome to my Newsletter!", welcomeEmail.Subject)
	assert.Contains(t, welcomeEmail.HTML, "jane@example.com")

	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandler_Subscribe_AlreadySubscribed(t *testing.T) {
	r, sender, redisMock := testHandlerSetup(t)
	redisMock.ExpectSAdd(subscribersKey, "jane@example.com").SetVal(0)

	req, err := http.NewRequest("POST", "/newsletter/subscribe", strings.NewReader(`{"email":"jane@example.com"}`))
	require.NoError(t, err)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"status":"already subscribed"}`, rr.Body.String())

	// no welcome email for repeat subscriptions
	assert.Empty(t, sender.sent)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandler_Subscribe_InvalidEmail(t *testing.T) {
	r, _, _ := testHandlerSetup(t)

	req, err := http.NewRequest("POST", "/newsletter/subscribe", strings.NewReader(`{"email":"not-an-email"}`))
	require.NoError(t, err)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
