// Service reading the WT901 wrist IMU and publishing gesture events.
//
// The sensor streams 20 byte binary frames over BLE notifications (or a
// serial line for bench units). Chunks are deframed, decoded and run
// through the gesture engine; anything the engine recognises is emitted
// on the gesture topic.
package wearable

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"github.com/pkg/errors"
	"github.com/tarm/serial"

	"github.com/wearhome/wearhome/config"
	"github.com/wearhome/wearhome/gestures"
	"github.com/wearhome/wearhome/pubsub"
	"github.com/wearhome/wearhome/services"
	"github.com/wearhome/wearhome/wt901"
)

const connectTimeout = 30 * time.Second
const retryInterval = 5 * time.Second

func tuning(c config.GesturesConf) gestures.Tuning {
	return gestures.Tuning{
		FlickThreshold:  c.FlickThreshold,
		FlickWindow:     c.FlickWindow.Duration,
		FlickRefractory: c.FlickRefractory.Duration,
		DoubleFlickSpan: c.DoubleFlickSpan.Duration,

		ReadyDelay:      c.ReadyDelay.Duration,
		RearmReadyDelay: c.RearmReadyDelay.Duration,
		CommandTimeout:  c.CommandTimeout.Duration,
		Cooldown:        c.Cooldown.Duration,
		RearmDelay:      c.RearmDelay.Duration,

		GestureWindow:  c.GestureWindow.Duration,
		HistoryHorizon: c.HistoryHorizon.Duration,

		TwistThreshold:       c.TwistThreshold,
		TwistRightPositiveGY: c.TwistRightPositiveGY,

		SwipeThreshold:       c.SwipeThreshold,
		SwipeRejectThreshold: c.SwipeRejectThreshold,
		SwipeUpPositiveDAZ:   c.SwipeUpPositiveDAZ,
		BaselineSamples:      c.BaselineSamples,
	}
}

// session is the per-connection pipeline: deframer -> engine -> bus. A
// reconnect gets a fresh session so stale motion history from before the
// drop can't arm or fire anything.
type session struct {
	deframer  *wt901.Deframer
	engine    *gestures.Engine
	publisher pubsub.Publisher
	source    string
	frames    int
	events    int
}

func newSession(conf config.Config, publisher pubsub.Publisher) *session {
	return &session{
		deframer:  &wt901.Deframer{},
		engine:    gestures.NewEngine(tuning(conf.Gestures)),
		publisher: publisher,
		source:    conf.Wearable.Source,
	}
}

// ingest handles one transport chunk. Chunk boundaries are arbitrary - BLE
// notifications split frames wherever they like.
func (s *session) ingest(chunk []byte) {
	for _, frame := range s.deframer.Feed(chunk) {
		sample, ok := wt901.Decode(frame)
		if !ok {
			continue
		}
		s.frames++
		ev, fired := s.engine.Step(sample)
		if !fired {
			continue
		}
		s.events++
		s.emit(ev)
	}
}

func (s *session) emit(gesture gestures.Event) {
	kind := "mode"
	if gesture.IsCommand() {
		kind = "command"
	}
	log.Printf("%s: %s", kind, gesture)
	fields := pubsub.Fields{
		"command": string(gesture),
		"kind":    kind,
		"source":  s.source,
	}
	s.publisher.Emit(pubsub.NewEvent("gesture", fields))
}

// Service wearable
type Service struct {
	mu        sync.Mutex
	session   *session
	connected bool
}

func (self *Service) ID() string {
	return "wearable"
}

func (self *Service) QueryHandlers() services.QueryHandlers {
	return services.QueryHandlers{
		"status": func(q services.Question) services.Answer {
			return services.Answer{Json: self.status()}
		},
		"mode": services.TextHandler(func(q services.Question) string {
			self.mu.Lock()
			defer self.mu.Unlock()
			if self.session == nil {
				return "disconnected"
			}
			return self.session.engine.Mode()
		}),
	}
}

func (self *Service) status() interface{} {
	self.mu.Lock()
	defer self.mu.Unlock()
	status := map[string]interface{}{
		"connected": self.connected,
	}
	if s := self.session; s != nil {
		status["mode"] = s.engine.Mode()
		status["frames"] = s.frames
		status["events"] = s.events
	}
	return status
}

func (self *Service) setSession(s *session, connected bool) {
	self.mu.Lock()
	self.session = s
	self.connected = connected
	self.mu.Unlock()
}

func (self *Service) Run() error {
	conf := services.Config.Wearable
	switch conf.Protocol {
	case "serial":
		return self.runSerial()
	default:
		return self.runBle()
	}
}

func (self *Service) runSerial() error {
	conf := services.Config.Wearable
	baud := conf.Baud
	if baud == 0 {
		baud = 115200
	}
	port, err := serial.OpenPort(&serial.Config{Name: conf.Device, Baud: baud})
	if err != nil {
		return errors.Wrapf(err, "opening %s", conf.Device)
	}
	log.Println("Connected to", conf.Device)

	s := newSession(*services.Config, services.Publisher)
	self.setSession(s, true)
	buf := make([]byte, 512)
	for {
		n, err := port.Read(buf)
		if err != nil {
			return errors.Wrap(err, "serial read")
		}
		if n == 0 {
			continue
		}
		self.mu.Lock()
		s.ingest(buf[:n])
		self.mu.Unlock()
	}
}

func (self *Service) runBle() error {
	device, err := linux.NewDevice()
	if err != nil {
		return errors.Wrap(err, "creating ble device")
	}
	ble.SetDefaultDevice(device)

	for {
		err := self.connect()
		if errors.Cause(err) == context.Canceled {
			return nil
		}
		if err != nil {
			log.Println("Connection failed:", err)
		}
		self.setSession(nil, false)
		time.Sleep(retryInterval)
	}
}

// connect dials the sensor, subscribes to its stream characteristic and
// blocks until the connection drops.
func (self *Service) connect() error {
	conf := services.Config.Wearable
	filter := func(a ble.Advertisement) bool {
		return strings.EqualFold(a.Addr().String(), conf.Mac)
	}

	log.Println("Scanning for", conf.Mac)
	ctx := ble.WithSigHandler(context.WithTimeout(context.Background(), connectTimeout))
	client, err := ble.Connect(ctx, filter)
	if err != nil {
		return errors.Wrap(err, "connect")
	}
	log.Println("Connected to", client.Addr())

	profile, err := client.DiscoverProfile(true)
	if err != nil {
		client.CancelConnection()
		return errors.Wrap(err, "discovering profile")
	}

	char, err := findNotify(profile, conf.Notify)
	if err != nil {
		client.CancelConnection()
		return err
	}

	s := newSession(*services.Config, services.Publisher)
	handler := func(req []byte) {
		self.mu.Lock()
		s.ingest(req)
		self.mu.Unlock()
	}
	if err := client.Subscribe(char, false, handler); err != nil {
		client.CancelConnection()
		return errors.Wrap(err, "subscribing")
	}
	self.setSession(s, true)

	<-client.Disconnected()
	log.Println("Disconnected")
	return nil
}

// findNotify returns the first configured characteristic present on the
// sensor. Different WT901 firmware revisions expose different uuids, so
// the config lists candidates in preference order.
func findNotify(profile *ble.Profile, uuids []string) (*ble.Characteristic, error) {
	for _, u := range uuids {
		uuid, err := ble.Parse(u)
		if err != nil {
			return nil, errors.Wrapf(err, "bad characteristic uuid %q", u)
		}
		if found := profile.Find(ble.NewCharacteristic(uuid)); found != nil {
			return found.(*ble.Characteristic), nil
		}
	}
	return nil, errors.Errorf("no stream characteristic found (tried %s)", strings.Join(uuids, ", "))
}
