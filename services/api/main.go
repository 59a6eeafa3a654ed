// Package api is a service providing an HTTP REST API to observe wearhome.
//
// The endpoints supported are:
//
// http://localhost:8723/query/{query} - query a service, e.g. http://localhost:8723/query/wearable/status
//
// http://localhost:8723/status - status summary of all running services
//
// http://localhost:8723/events/feed - continuous live stream of events (line delimited)
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wearhome/wearhome/pubsub"
	"github.com/wearhome/wearhome/services"
)

// Service api
type Service struct {
}

// ID of the service
func (service *Service) ID() string {
	return "api"
}

func errorResponse(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), 500)
}

func apiIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "text/html")
	fmt.Fprintf(w, "<html>Wearhome is listening</html>")
}

func jsonResponse(w http.ResponseWriter, obj interface{}) {
	w.Header().Add("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	err := enc.Encode(obj)
	if err != nil {
		errorResponse(w, err)
	}
}

func query(endpoint string, q string, w http.ResponseWriter) {
	w.Header().Add("Content-Type", "application/json; charset=utf-8")

	ch := services.QueryChannel(endpoint+" "+q, 100*time.Millisecond)

	for ev := range ch {
		fmt.Fprintf(w, ev.String()+"\r\n")
		w.(http.Flusher).Flush()
	}
}

func apiQuery(w http.ResponseWriter, r *http.Request) {
	endpoint := r.URL.Path[len("/query/"):]
	q := r.URL.Query().Get("q")
	query(endpoint, q, w)
}

func apiStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{}
	for _, ev := range services.Query("status", 100*time.Millisecond) {
		source := ev.StringField("source")
		if js := ev.StringField("json"); js != "" {
			var obj interface{}
			if err := json.Unmarshal([]byte(js), &obj); err == nil {
				status[source] = obj
				continue
			}
		}
		status[source] = ev.StringField("message")
	}
	jsonResponse(w, status)
}

func apiEventsFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	topics := []pubsub.Topic{pubsub.All()}
	if s := q.Get("topics"); s != "" {
		topics = nil
		for _, topic := range strings.Split(s, ",") {
			topics = append(topics, pubsub.Exact(topic))
		}
	}
	w.Header().Add("Content-Type", "application/json; boundary=NL")

	ch := services.Subscriber.Subscribe(topics...)
	defer services.Subscriber.Close(ch)

	encoder := json.NewEncoder(w)
	for ev := range ch {
		if err := encoder.Encode(ev.Map()); err != nil {
			break
		}
		w.Write([]byte("\r\n")) // separator
		w.(http.Flusher).Flush()
	}
}

func router() *mux.Router {
	router := mux.NewRouter()
	router.Path("/").HandlerFunc(apiIndex)
	router.PathPrefix("/query/").HandlerFunc(apiQuery)
	router.Path("/status").HandlerFunc(apiStatus)
	router.Path("/events/feed").HandlerFunc(apiEventsFeed)
	return router
}

type loggingHandler struct {
	Handler http.Handler
}

func (service loggingHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	log.Printf("%s %s\n", req.Method, req.RequestURI)
	service.Handler.ServeHTTP(w, req)
}

// Run the api service
func (service *Service) Run() error {
	addr := services.Config.Endpoints.Api
	if addr == "" {
		addr = ":8723"
	}
	// no wrapping middleware - it would hide ResponseWriter.Flush from the
	// feed handler
	var handler http.Handler = loggingHandler{Handler: router()}
	log.Println("Listening on " + addr)
	return http.ListenAndServe(addr, handler)
}
