package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type apiCall struct {
	method  string
	payload map[string]any
}

// fakeAPI fakes the Bot API: it records every call and answers with
// configurable results per method.
type fakeAPI struct {
	mu            sync.Mutex
	calls         []apiCall
	nextMessageID int
	failMethod    string
	failText      string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{nextMessageID: 100}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	method := parts[len(parts)-1]

	var payload map[string]any
	_ = json.NewDecoder(r.Body).Decode(&payload)

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{method: method, payload: payload})
	messageID := f.nextMessageID
	f.nextMessageID++
	fail := f.failMethod == method
	failText := f.failText
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fail {
		fmt.Fprintf(w, `{"ok":false,"error_code":400,"description":%q}`, failText)
		return
	}

	switch method {
	case "getMe":
		fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"pickup","username":"pickup_bot"}}`)
	case "getUpdates":
		fmt.Fprint(w, `{"ok":true,"result":[]}`)
	case "sendMessage":
		chatID := int64(payload["chat_id"].(float64))
		fmt.Fprintf(w, `{"ok":true,"result":{"message_id":%d,"chat":{"id":%d}}}`, messageID, chatID)
	default:
		fmt.Fprint(w, `{"ok":true,"result":true}`)
	}
}

func (f *fakeAPI) callsFor(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, call := range f.calls {
		if call.method == method {
			out = append(out, call)
		}
	}
	return out
}

func (f *fakeAPI) lastCall(t *testing.T, method string) apiCall {
	t.Helper()
	calls := f.callsFor(method)
	if len(calls) == 0 {
		t.Fatalf("no %s calls recorded", method)
	}
	return calls[len(calls)-1]
}

func newTestClient(t *testing.T) (*Client, *fakeAPI) {
	t.Helper()
	api := newFakeAPI()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	client, err := NewClient("test-token", server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, api
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient("  ", ""); err == nil {
		t.Fatal("expected error for blank token")
	}
}

func TestGetMe(t *testing.T) {
	client, _ := newTestClient(t)
	user, err := client.GetMe(context.Background())
	if err != nil {
		t.Fatalf("get me: %v", err)
	}
	if user.Username != "pickup_bot" || !user.IsBot {
		t.Fatalf("user = %+v, want pickup_bot", user)
	}
}

func TestSendMessage(t *testing.T) {
	client, api := newTestClient(t)
	sent, err := client.SendMessage(context.Background(), -1001, "привет", nil)
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if sent.MessageID != 100 {
		t.Fatalf("message id = %d, want 100", sent.MessageID)
	}

	call := api.lastCall(t, "sendMessage")
	if call.payload["text"] != "привет" {
		t.Fatalf("payload = %+v, want привет", call.payload)
	}
}

func TestEditMessageTextSendsMarkup(t *testing.T) {
	client, api := newTestClient(t)
	markup := &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{
		{{Text: "✅ Записаться", CallbackData: "register"}},
	}}
	if err := client.EditMessageText(context.Background(), -1001, 42, "text", markup); err != nil {
		t.Fatalf("edit message: %v", err)
	}

	call := api.lastCall(t, "editMessageText")
	if call.payload["message_id"] != float64(42) {
		t.Fatalf("payload = %+v, want message_id 42", call.payload)
	}
	if _, ok := call.payload["reply_markup"]; !ok {
		t.Fatal("expected reply_markup in payload")
	}
}

func TestAPIErrorSurfacesDescription(t *testing.T) {
	client, api := newTestClient(t)
	api.failMethod = "sendMessage"
	api.failText = "Bad Request: chat not found"

	_, err := client.SendMessage(context.Background(), -1001, "x", nil)
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("err = %v, want chat not found", err)
	}
}

func TestIsNotModified(t *testing.T) {
	client, api := newTestClient(t)
	api.failMethod = "editMessageText"
	api.failText = "Bad Request: message is not modified"

	err := client.EditMessageText(context.Background(), -1001, 42, "same", nil)
	if !IsNotModified(err) {
		t.Fatalf("IsNotModified(%v) = false, want true", err)
	}
	if IsNotModified(fmt.Errorf("other")) {
		t.Fatal("IsNotModified(other) = true, want false")
	}
}
