// The wearhome wearable gesture control system
//
// Features
//
// - Hands-free media control from a wrist worn IMU
//
// - Double-flick arming gesture, so everyday motion never triggers commands
//
// - Twist to skip tracks, swipe to pause/play
//
// - Distributed message system (run input and outputs over a network)
//
// - Lightweight, small memory footprint (runs on the Raspberry Pi)
//
// - Configuration distributed over the message bus, live reloadable
//
// Services
//
// - wearable: reads the sensor stream and publishes gesture events
//
// - api: REST API and live event feed
//
// Devices supported
//
// - WitMotion WT901 BLE 9-axis IMU (http://www.wit-motion.com/)
//
// - WT901 serial variants (bench setups)
package wearhome
