package engine

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlackNotifierOnBan(t *testing.T) {
	assert := assert.New(t)

	bodies := make(chan SlackWebhookBody, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body SlackWebhookBody
		if err := json.Unmarshal(raw, &body); err == nil {
			bodies <- body
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	eng := EngineTestFixture()
	eng.Notifier = &SlackNotifier{SlackWebhookURL: srv.URL, Client: srv.Client()}

	op := MemberJoinOp{GuildID: "77", UserID: SnowflakeAt(time.Now()), Name: "spam king", Discriminator: "0001"}
	assert.NoError(eng.ProcessMemberJoin(context.Background(), op))

	select {
	case body := <-bodies:
		assert.Contains(body.Text, "`spam king#0001`")
		assert.Contains(body.Text, "spam-test")
		assert.Contains(body.Text, "guild `77`")
	default:
		t.Fatal("no webhook call recorded")
	}
}

func TestSlackNotifierFailureDoesNotFailEvent(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	eng := EngineTestFixture()
	eng.Notifier = &SlackNotifier{SlackWebhookURL: srv.URL}
	admin := eng.AdminClient.(*MockAdminClient)

	op := MemberJoinOp{GuildID: "77", UserID: SnowflakeAt(time.Now()), Name: "spam"}
	assert.NoError(eng.ProcessMemberJoin(context.Background(), op))
	assert.Len(admin.Bans(), 1)
}
