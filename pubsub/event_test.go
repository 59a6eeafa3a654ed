package pubsub

import (
	"fmt"
	"time"
)

func ExampleEvent_String() {
	ev := NewEvent("test", Fields{})
	loc, _ := time.LoadLocation("UTC")
	ev.Timestamp = time.Date(2024, 1, 2, 3, 4, 5, 987654321, loc)
	fmt.Println(ev.String())
	//Output: {"timestamp":"2024-01-02 03:04:05.987","topic":"test"}
}

func ExampleParse_withTimestamp() {
	ev := Parse(`{"timestamp":"2024-01-02 03:04:05.987","topic":"test","command":"PLAY"}`, "")
	fmt.Println(ev.Topic)
	fmt.Println(ev.Timestamp)
	fmt.Println(ev.Command())
	// Output:
	// test
	// 2024-01-02 03:04:05.987 +0000 UTC
	// PLAY
}

func Example_accessors() {
	ev := NewEvent("gesture", Fields{
		"device":  "wearable.wrist",
		"command": "PAUSE",
		"source":  "wt901.wrist",
	})
	fmt.Println(ev.Device(), ev.Command(), ev.Source())
	// Output:
	// wearable.wrist PAUSE wt901.wrist
}

func ExampleParse_fallbackTopic() {
	ev := Parse(`{"command":"PAUSE"}`, "gesture")
	fmt.Println(ev.Topic)
	// Output:
	// gesture
}

func ExampleParse_bad() {
	fmt.Println(Parse(`{`, ""))
	fmt.Println(Parse(`{"field":"value"}`, ""))
	// Output:
	// <nil>
	// <nil>
}
