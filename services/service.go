// Package services wires the wearhome services to the event bus: service
// registry, broker setup, bus-delivered configuration and heartbeats.
package services

import (
	"flag"
	"fmt"
	"hash/fnv"
	"log"
	"os"
	"time"

	"github.com/wearhome/wearhome/config"
	"github.com/wearhome/wearhome/pubsub"
	"github.com/wearhome/wearhome/pubsub/mqtt"
)

// Service interface
type Service interface {
	ID() string
	Run() error
}

// ServiceInit interface
type ServiceInit interface {
	Service
	Init() error
}

type Flags interface {
	Flags()
}

var serviceMap = map[string]Service{}
var enabled []Service
var Config *config.Config

var Publisher pubsub.Publisher
var Subscriber pubsub.Subscriber

type ConfigWaiter struct {
	Value   []byte
	hash    uint32
	events  <-chan *pubsub.Event
	update  func()
	Updated chan bool
}

func (c *ConfigWaiter) Wait() {
	if c.loopOne() {
		if c.update != nil {
			c.update()
		}
		c.notify()
	}
}

func (c *ConfigWaiter) notify() {
	// non-blocking send
	select {
	case c.Updated <- true:
	default:
	}
}

func (c *ConfigWaiter) loopOne() bool {
	ev := <-c.events
	value := []byte(ev.StringField("config"))
	hashValue := hash(value)
	if c.hash == hashValue {
		// ignore duplicate config events
		return false
	}
	c.hash = hashValue
	c.Value = value
	return true
}

func hash(s []byte) uint32 {
	h := fnv.New32a()
	h.Write(s)
	return h.Sum32()
}

type ConfigService struct {
	ConfigWaiter
	Value *config.Config
}

func NewConfigService() *ConfigService {
	cs := &ConfigService{
		ConfigWaiter{
			events:  Subscriber.Subscribe(pubsub.Exact("config")),
			Updated: make(chan bool),
		},
		nil,
	}
	cs.update = func() {
		// (re)load config
		conf, err := config.OpenRaw(cs.ConfigWaiter.Value)
		if err != nil {
			log.Println("Error reading config:", err)
			return
		}
		cs.Value = conf
		Config = conf // set global
	}
	return cs
}

var globalConfigService *ConfigService

// WaitForConfig blocks until the retained config event has been received,
// then keeps watching for updates.
func WaitForConfig() *ConfigService {
	if globalConfigService == nil {
		globalConfigService = NewConfigService()
		globalConfigService.Wait()
		go globalConfigService.Watch()
	}
	return globalConfigService
}

func (c *ConfigService) Watch() {
	for {
		c.Wait()
	}
}

func SetupLogging() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)
	log.SetOutput(os.Stdout)
}

func SetupFlags() {
	for _, service := range enabled {
		// any service specific flags
		if f, ok := service.(Flags); ok {
			f.Flags()
		}
	}
	flag.Parse()
}

func SetupBroker(name string) {
	url := os.Getenv("WEARHOME_MQTT")
	if url == "" {
		log.Fatalln("Set WEARHOME_MQTT to the mqtt server. eg: tcp://127.0.0.1:1883")
	}

	broker := mqtt.NewBroker(url, name)
	Publisher = broker.Publisher()
	if Publisher == nil {
		log.Fatalln("Failed to initialise pub endpoint")
	}
	Subscriber = broker.Subscriber()
	if Subscriber == nil {
		log.Fatalln("Failed to initialise sub endpoint")
	}
}

func Setup(name string) {
	SetupBroker(name)
}

func Launch(ss []string) {
	enabled = []Service{}
	for _, name := range ss {
		if service, ok := serviceMap[name]; ok {
			enabled = append(enabled, service)
		} else {
			log.Fatalf("Service %s does not exist", name)
		}
	}

	SetupFlags()

	// listen for queries
	go QuerySubscriber()

	for _, service := range enabled {
		log.Printf("Starting %s\n", service.ID())
		if service, ok := service.(ServiceInit); ok {
			err := service.Init()
			if err != nil {
				log.Fatalf("Error init service %s: %s", service.ID(), err.Error())
			}
			log.Printf("Initialized %s\n", service.ID())
		} else {
			// services without Init
			WaitForConfig()
		}
	}

	// each service runs in its own goroutine - Run blocks for the life of
	// the service
	done := make(chan bool, len(enabled))
	for _, service := range enabled {
		go Heartbeat(service.ID())
		go func(service Service) {
			err := service.Run()
			if err != nil {
				log.Fatalf("Error running service %s: %s", service.ID(), err.Error())
			}
			done <- true
		}(service)
	}
	for range enabled {
		<-done
	}
}

func Heartbeat(id string) {
	started := time.Now()
	device := fmt.Sprintf("heartbeat.%s", id)
	fields := pubsub.Fields{
		"device":  device,
		"pid":     os.Getpid(),
		"started": started.Format(time.RFC3339),
	}

	// wait 5 seconds before heartbeating - if the process dies very soon
	time.Sleep(time.Second * 5)

	for {
		uptime := int(time.Since(started).Seconds())
		fields["uptime"] = uptime
		ev := pubsub.NewEvent("heartbeat", fields)
		ev.SetRetained(true)
		Publisher.Emit(ev)
		time.Sleep(time.Second * 60)
	}
}

func Register(service Service) {
	if _, exists := serviceMap[service.ID()]; exists {
		log.Fatalf("Duplicate service registered: %s", service.ID())
	}
	serviceMap[service.ID()] = service
}

func Shutdown() {
	if Publisher != nil {
		Publisher.Close()
	}
}
