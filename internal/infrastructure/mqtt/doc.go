// Package mqtt provides MQTT broker connectivity for Lumen Core.
//
// Fixture controllers listen for brightness commands on lumen/fixtures/{id}/set
// and report applied levels on lumen/fixtures/{id}/state. Sensors may publish
// readings on lumen/sensors/{id}/reading as an alternative to the HTTP intake.
//
// # Features
//
//   - Connection management with automatic reconnection
//   - Last Will and Testament for offline detection
//   - Subscription restoration after reconnect
//   - Panic recovery in message handlers
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.FixtureSet(12)
//	err = client.Publish(topic, []byte(`{"level":70}`), 1, false)
//
// The broker connection is optional: when mqtt.enabled is false in config,
// the service runs with database persistence only.
package mqtt
