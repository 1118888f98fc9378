// Package mqtt provides MQTT client connectivity for the change-event relay.
//
// When several API instances serve the same site, each publishes its
// content changes to the broker and re-broadcasts changes published by the
// others to its own WebSocket clients.
//
//	API instance A ↔ MQTT Broker ↔ API instance B
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS validation and payload limits
//   - Wildcard subscriptions restored after reconnect
//   - Last Will and Testament on {prefix}/system/status
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(client.Topics().AllEvents(), client.QoS(),
//	    func(topic string, payload []byte) error {
//	        resource, action, _ := client.Topics().ParseEvent(topic)
//	        ...
//	    })
package mqtt
