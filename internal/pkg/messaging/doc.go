// Package messaging publishes change events to a broker (Kafka, NATS, NSQ or
// Google Pub/Sub) behind one Publisher interface. wauth only produces events;
// consumers live in other systems.
package messaging
