package mqtt

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
)

// All bus topics live under this mqtt namespace.
const namespace = "wearhome"

type Broker struct {
	broker     string
	client     MQTT.Client
	subscriber *Subscriber
}

func NewBroker(url string, name string) *Broker {
	hostname, _ := os.Hostname()
	clientID := fmt.Sprintf("%s/%s-%s-%d-%d", namespace, name, hostname, os.Getpid(), rand.Int())
	self := &Broker{broker: url}
	opts := MQTT.NewClientOptions()
	opts.AddBroker(url)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(client MQTT.Client) {
		// (re)subscribe when (re)connected
		if self.subscriber != nil {
			self.subscriber.connected()
		}
	})
	self.client = MQTT.NewClient(opts)
	if token := self.client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln("Couldn't connect to mqtt:", token.Error())
	}
	return self
}

func (self *Broker) ID() string {
	return "mqtt: " + self.broker
}

func (self *Broker) Publisher() *Publisher {
	return &Publisher{broker: self}
}

func (self *Broker) Subscriber() *Subscriber {
	if self.subscriber == nil {
		self.subscriber = NewSubscriber(self)
	}
	return self.subscriber
}
