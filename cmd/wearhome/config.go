package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/wearhome/wearhome/pubsub"
	"github.com/wearhome/wearhome/services"
)

// updateConfig pushes the config files to the bus as a retained event, so
// services pick it up on startup and again on every update.
func updateConfig(filenames []string) {
	// concatenate files together
	data := &bytes.Buffer{}
	for _, filename := range filenames {
		f, err := os.Open(filename)
		if err != nil {
			fmt.Printf("Error opening %s: %s\n", filename, err)
			return
		}
		defer f.Close()
		_, err = io.Copy(data, f)
		if err != nil {
			fmt.Printf("Error reading %s: %s\n", filename, err)
			return
		}

		data.WriteByte('\n')
	}

	fields := pubsub.Fields{
		"config": data.String(),
	}

	ev := pubsub.NewEvent("config", fields)
	ev.SetRetained(true) // config messages are retained
	services.SetupBroker("config")
	services.Publisher.Emit(ev)
	fmt.Printf("Updated config (%d bytes)\n", data.Len())
}

func runQuery(q string) {
	services.SetupBroker("query")
	for ev := range services.QueryChannel(q, 5*time.Second) {
		source := ev.StringField("source")
		if js := ev.StringField("json"); js != "" {
			fmt.Printf("%s: %s\n", source, js)
		} else {
			fmt.Printf("%s: %s\n", source, ev.StringField("message"))
		}
	}
}
