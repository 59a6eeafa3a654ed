package services

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/wearhome/wearhome/pubsub"
)

// Question sent to a service over the bus.
type Question struct {
	Verb string
	Args string
	From string
}

// Answer returned by a service query handler.
type Answer struct {
	Text string
	Json interface{}
}

type QueryHandler func(Question) Answer

type QueryHandlers map[string]QueryHandler

// Queryable is implemented by services that answer queries.
type Queryable interface {
	QueryHandlers() QueryHandlers
}

func TextHandler(fn func(q Question) string) QueryHandler {
	return func(q Question) Answer {
		return Answer{Text: fn(q)}
	}
}

func StaticHandler(text string) QueryHandler {
	return func(q Question) Answer {
		return Answer{Text: text}
	}
}

func sendAnswer(request *pubsub.Event, source string, answer Answer) {
	fields := pubsub.Fields{
		"source": source,
		"target": request.StringField("source"),
	}
	if answer.Json != nil {
		b, err := json.Marshal(answer.Json)
		if err != nil {
			log.Println("Error marshalling json query response:", err)
			return
		}
		fields["json"] = string(b)
	} else {
		fields["message"] = answer.Text
	}
	remote := request.StringField("reply_to")
	ev := pubsub.NewEvent(remote, fields)
	Publisher.Emit(ev)
}

func handleQuery(ev *pubsub.Event) {
	parts := strings.SplitN(ev.StringField("query"), " ", 2)
	args := ""
	if len(parts) > 1 {
		args = parts[1]
	}
	// a "service/verb" query is limited to the named service
	first := strings.ToLower(parts[0])
	ps := strings.SplitN(first, "/", 2)
	limit := ""
	if len(ps) == 2 {
		limit = ps[0]
	}
	verb := ps[len(ps)-1]
	question := Question{verb, args, ev.StringField("source")}

	for _, service := range enabled {
		queryable, ok := service.(Queryable)
		if !ok {
			continue
		}
		if limit != "" && limit != service.ID() {
			continue
		}
		handlers := queryable.QueryHandlers()
		handler, ok := handlers[verb]
		if verb == "help" {
			// respond with a list of query verbs
			verbs := []string{}
			for verb := range handlers {
				verbs = append(verbs, verb)
			}
			help := fmt.Sprintf("%s: %s", service.ID(), strings.Join(verbs, ", "))
			handler = StaticHandler(help)
			ok = true
		}
		if ok {
			a := handler(question)
			sendAnswer(ev, service.ID(), a)
		}
	}
}

// QuerySubscriber listens for query events and dispatches them to the
// enabled services.
func QuerySubscriber() {
	for ev := range Subscriber.Subscribe(pubsub.Prefix("query")) {
		handleQuery(ev)
	}
}
