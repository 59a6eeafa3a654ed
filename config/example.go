package config

var ExampleYaml = `
endpoints:
  mqtt:
    broker: tcp://127.0.0.1:1883
  api: :8723
wearable:
  protocol: ble
  mac: "D9:41:48:15:5E:FB"
  notify:
    - 0000ffe4-0000-1000-8000-00805f9a34fb
    - 0000ffe9-0000-1000-8000-00805f9a34fb
  source: wt901.wrist
gestures:
  flick_threshold: 750
  double_flick_span: 850ms
  ready_delay: 1.25s
  command_timeout: 5s
  twist_threshold: 180
  swipe_threshold: 0.55
`

var ExampleConfig, _ = OpenRaw([]byte(ExampleYaml))
