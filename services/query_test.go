package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wearhome/wearhome/pubsub"
	"github.com/wearhome/wearhome/pubsub/dummy"
)

type fakeService struct{}

func (*fakeService) ID() string {
	return "fake"
}

func (*fakeService) Run() error {
	return nil
}

func (*fakeService) QueryHandlers() QueryHandlers {
	return QueryHandlers{
		"status": StaticHandler("all well"),
		"count": func(q Question) Answer {
			return Answer{Json: map[string]interface{}{"count": 42, "args": q.Args}}
		},
	}
}

func queryEvent(query string) *pubsub.Event {
	return pubsub.NewEvent("query", pubsub.Fields{
		"query":    query,
		"source":   "test",
		"reply_to": "_rpc.1",
	})
}

func setupQueryTest() *dummy.Publisher {
	publisher := &dummy.Publisher{}
	Publisher = publisher
	enabled = []Service{&fakeService{}}
	return publisher
}

func TestHandleQueryText(t *testing.T) {
	publisher := setupQueryTest()

	handleQuery(queryEvent("status"))

	if assert.Len(t, publisher.Events, 1) {
		ev := publisher.Events[0]
		assert.Equal(t, "_rpc.1", ev.Topic)
		assert.Equal(t, "fake", ev.Source())
		assert.Equal(t, "test", ev.Target())
		assert.Equal(t, "all well", ev.StringField("message"))
	}
}

func TestHandleQueryJson(t *testing.T) {
	publisher := setupQueryTest()

	handleQuery(queryEvent("count abc"))

	if assert.Len(t, publisher.Events, 1) {
		ev := publisher.Events[0]
		assert.Equal(t, `{"args":"abc","count":42}`, ev.StringField("json"))
	}
}

func TestHandleQueryHelp(t *testing.T) {
	publisher := setupQueryTest()

	handleQuery(queryEvent("help"))

	if assert.Len(t, publisher.Events, 1) {
		message := publisher.Events[0].StringField("message")
		assert.Contains(t, message, "fake:")
		assert.Contains(t, message, "status")
		assert.Contains(t, message, "count")
	}
}

func TestHandleQueryScoped(t *testing.T) {
	publisher := setupQueryTest()

	// "service/verb" limits the query to the named service
	handleQuery(queryEvent("fake/status"))

	if assert.Len(t, publisher.Events, 1) {
		assert.Equal(t, "all well", publisher.Events[0].StringField("message"))
	}
}

func TestHandleQueryScopedToOtherService(t *testing.T) {
	publisher := setupQueryTest()

	handleQuery(queryEvent("other/status"))

	assert.Empty(t, publisher.Events)
}

func TestHandleQueryUnknownVerb(t *testing.T) {
	publisher := setupQueryTest()

	handleQuery(queryEvent("nonsense"))

	assert.Empty(t, publisher.Events)
}
