// Package messaging publishes and consumes events without tying business
// code to a broker.
//
// Drivers: "nats" (core NATS subjects, queue groups), "kafka" (kafka-go
// writers and consumer-group readers), "nsq" (topics and channels),
// "pubsub" (Google Pub/Sub topics and subscriptions) and "memory"
// (in-process fan-out for single-node runs and tests). Handlers run behind a panic guard; with
// auto-ack enabled a nil handler error acks and a non-nil one nacks.
package messaging
