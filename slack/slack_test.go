package slack_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"nutrisense/slack"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

type mockDoer struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockDoer) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func okResponse() *http.Response {
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewBufferString("ok"))}
}

func TestNewClient(t *testing.T) {
	client := slack.NewClient("http://slack.com/webhook", &mockDoer{})
	must.NotNil(t, client, "expected non-nil client")
}

func TestPostMessage(t *testing.T) {
	tests := []struct {
		name    string
		doFunc  func(req *http.Request) (*http.Response, error)
		wantErr error
	}{
		{
			name: "success",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return okResponse(), nil
			},
		},
		{
			name: "failure status",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return &http.Response{StatusCode: http.StatusBadRequest, Status: "400 Bad Request", Body: io.NopCloser(bytes.NewBufferString("invalid_payload"))}, nil
			},
			wantErr: fmt.Errorf("failed to post message: 400 Bad Request"),
		},
		{
			name: "do error",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return nil, errors.New("network error")
			},
			wantErr: fmt.Errorf("network error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := slack.NewClient("http://example.com/webhook", &mockDoer{doFunc: tt.doFunc})
			err := client.PostMessage(context.Background(), "#nutrition", "Hello, world!")
			should.Equal(t, tt.wantErr, err)
		})
	}
}

func TestPostMessage_Payload(t *testing.T) {
	var got map[string]any
	client := slack.NewClient("http://example.com/webhook", &mockDoer{doFunc: func(req *http.Request) (*http.Response, error) {
		should.Equal(t, http.MethodPost, req.Method)
		should.Equal(t, "application/json", req.Header.Get("Content-Type"))
		must.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		return okResponse(), nil
	}})

	err := client.PostMessage(context.Background(), "#nutrition", "# 🍳 Bowl\n\n**Serves:** 2")
	must.NoError(t, err)

	should.Equal(t, "#nutrition", got["channel"])
	should.Equal(t, "Nutrisense", got["username"])
	should.Equal(t, true, got["mrkdwn"])
	should.Equal(t, "*🍳 Bowl*\n\n*Serves:* 2", got["text"])
}

func TestMrkdwn(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain text", want: "plain text"},
		{in: "## 🛒 Ingredients\n• 1 cup rice", want: "*🛒 Ingredients*\n• 1 cup rice"},
		{in: "**1.** Boil water", want: "*1.* Boil water"},
		{in: "![nutrition chart](plot.png)", want: "nutrition chart: plot.png"},
		{in: "not # a heading", want: "not # a heading"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			should.Equal(t, tt.want, slack.Mrkdwn(tt.in))
		})
	}
}
