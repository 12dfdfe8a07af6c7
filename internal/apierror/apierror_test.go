package apierror

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantKind     Kind
		wantMessages []string
	}{
		{name: "unauthorized", status: 401, wantKind: Unauthorized},
		{name: "not found", status: 404, body: `{"errors":["Not found"]}`, wantKind: NotFound},
		{name: "method not allowed", status: 405, wantKind: MethodNotAllowed},
		{
			name:         "unprocessable with messages",
			status:       422,
			body:         `{"errors":["Title must be unique per game","Title can only contain alphanumeric characters"]}`,
			wantKind:     Unprocessable,
			wantMessages: []string{"Title must be unique per game", "Title can only contain alphanumeric characters"},
		},
		{name: "unprocessable with empty array", status: 422, body: `{"errors":[]}`, wantKind: Unprocessable, wantMessages: []string{}},
		{name: "unprocessable without errors key", status: 422, body: `{"message":"bad"}`, wantKind: MalformedResponse},
		{name: "unprocessable with string errors", status: 422, body: `{"errors":"bad"}`, wantKind: MalformedResponse},
		{name: "unprocessable with null errors", status: 422, body: `{"errors":null}`, wantKind: MalformedResponse},
		{name: "unprocessable with no body", status: 422, wantKind: MalformedResponse},
		{name: "unprocessable with invalid json", status: 422, body: `{`, wantKind: MalformedResponse},
		{name: "internal server error", status: 500, wantKind: ServerError},
		{name: "bad gateway", status: 502, wantKind: ServerError},
		{name: "bad request", status: 400, wantKind: Unknown},
		{name: "conflict", status: 409, wantKind: Unknown},
		{name: "teapot", status: 418, wantKind: Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body []byte
			if tt.body != "" {
				body = []byte(tt.body)
			}

			got := Classify(tt.status, body)

			if got.Kind != tt.wantKind {
				t.Errorf("Classify() kind = %s, want %s", got.Kind, tt.wantKind)
			}
			if got.StatusCode != tt.status {
				t.Errorf("Classify() status = %d, want %d", got.StatusCode, tt.status)
			}
			if tt.wantMessages != nil && !reflect.DeepEqual(got.Messages, tt.wantMessages) {
				t.Errorf("Classify() messages = %v, want %v", got.Messages, tt.wantMessages)
			}
		})
	}
}

func TestClassify_IsPure(t *testing.T) {
	body := []byte(`{"errors":["Quantity must be greater than 0"]}`)

	for _, status := range []int{200, 401, 404, 405, 422, 500, 503, 302} {
		first := Classify(status, body)
		second := Classify(status, body)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Classify(%d) not deterministic: %+v vs %+v", status, first, second)
		}
	}
}

func TestTransport(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Transport(cause)

	if err.Kind != ServerError {
		t.Errorf("expected ServerError, got %s", err.Kind)
	}
	if !errors.Is(err, cause) {
		t.Error("expected transport error to wrap its cause")
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("failed to create list: %w", Classify(404, nil))

	if got := KindOf(wrapped); got != NotFound {
		t.Errorf("KindOf() = %s, want %s", got, NotFound)
	}
	if got := KindOf(errors.New("plain")); got != Unknown {
		t.Errorf("KindOf() = %s, want %s", got, Unknown)
	}
	if !errors.Is(wrapped, &Error{Kind: NotFound}) {
		t.Error("expected errors.Is to match by kind")
	}
}

func TestMessage(t *testing.T) {
	unprocessable := Classify(422, []byte(`{"errors":["Name must be unique","Name is too long"]}`))

	flash := Message(unprocessable, "game")
	if flash.Header != "2 error(s) prevented your game from being saved:" {
		t.Errorf("unexpected header %q", flash.Header)
	}
	if len(flash.Message) != 2 {
		t.Errorf("expected 2 messages, got %d", len(flash.Message))
	}

	flash = Message(Classify(404, nil), "shopping list")
	if flash.Header != "" || flash.Message[0] != "Oops! We couldn't find the shopping list you're looking for. Please refresh and try again." {
		t.Errorf("unexpected not found flash %+v", flash)
	}

	flash = Message(errors.New("boom"), "game")
	if flash.Message[0] != unexpectedMessage {
		t.Errorf("unexpected flash %+v", flash)
	}
}
