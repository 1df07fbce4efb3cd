// Package config loads and validates the client configuration.
//
// Configuration layers, lowest precedence first: Default() values, one
// config file (JSON or YAML, chosen by extension), then VDA5050_*
// environment variables. A file only needs the fields it changes:
//
//	broker:
//	  url: ssl://broker.example.com:8883
//	  tls:
//	    enabled: true
//	    ca_files: [/etc/vda5050/ca.pem]
//	identity:
//	  manufacturer: acme
//	  serial_number: agv-0042
//
// Credentials usually come from the environment instead of the file:
// VDA5050_BROKER_USERNAME, VDA5050_BROKER_PASSWORD.
//
// Validate rejects identity values that cannot form an MQTT topic level,
// since interface name, manufacturer and serial number appear verbatim in
// every topic.
package config
