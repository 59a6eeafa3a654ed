package mqtt

import (
	"github.com/wearhome/wearhome/pubsub"
)

// Publisher for mqtt
type Publisher struct {
	broker *Broker
}

// ID of Publisher
func (pub *Publisher) ID() string {
	return pub.broker.ID()
}

// Emit an event, blocking until delivered to the broker.
func (pub *Publisher) Emit(ev *pubsub.Event) {
	topic := namespace + "/" + ev.Topic
	token := pub.broker.client.Publish(topic, 1, ev.Retained, ev.Bytes())
	token.Wait()
}

func (pub *Publisher) Close() {
	pub.broker.client.Disconnect(250)
}
