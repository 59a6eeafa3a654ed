package services

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/wearhome/wearhome/pubsub"
)

// SendQuery emits a query event over the bus.
func SendQuery(query, source, remote, reply_to string) {
	fields := pubsub.Fields{
		"source":   source,
		"query":    query,
		"remote":   remote,
		"reply_to": reply_to,
	}
	ev := pubsub.NewEvent("query", fields)
	Publisher.Emit(ev)
}

// Query with `query`, waiting for `timeout` for results.
func Query(query string, timeout time.Duration) []*pubsub.Event {
	ch := QueryChannel(query, timeout)
	events := []*pubsub.Event{}
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

// QueryChannel sends `query` and returns a channel of answers, closed
// after `timeout`.
func QueryChannel(query string, timeout time.Duration) <-chan *pubsub.Event {
	reply_to := fmt.Sprintf("_rpc.%d", rand.Int())
	ch := Subscriber.Subscribe(pubsub.Exact(reply_to))

	SendQuery(query, "rpc", "", reply_to)

	// close the listener after timeout
	go func() {
		time.Sleep(timeout)
		Subscriber.Close(ch)
	}()

	return ch
}
