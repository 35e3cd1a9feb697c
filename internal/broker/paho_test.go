package broker

import (
	paho "github.com/eclipse/paho.mqtt.golang"
	"time"
)

var _ paho.Client = &fakePaho{}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakePaho is a paho.Client that completes every request immediately.
type fakePaho struct {
	open         bool
	handlers     map[string]paho.MessageHandler
	published    []published
	disconnected bool
	err          error
}

func (f *fakePaho) IsConnected() bool      { return f.open }
func (f *fakePaho) IsConnectionOpen() bool { return f.open }
func (f *fakePaho) Connect() paho.Token    { return doneToken{} }
func (f *fakePaho) Disconnect(uint)        { f.disconnected = true }

func (f *fakePaho) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	if f.err != nil {
		return doneToken{err: f.err}
	}
	f.published = append(f.published, published{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	return doneToken{}
}

func (f *fakePaho) Subscribe(topic string, _ byte, callback paho.MessageHandler) paho.Token {
	if f.err != nil {
		return doneToken{err: f.err}
	}
	f.handlers[topic] = callback
	return doneToken{}
}

func (f *fakePaho) SubscribeMultiple(filters map[string]byte, callback paho.MessageHandler) paho.Token {
	for topic := range filters {
		f.handlers[topic] = callback
	}
	return doneToken{}
}

func (f *fakePaho) Unsubscribe(topics ...string) paho.Token {
	for _, topic := range topics {
		delete(f.handlers, topic)
	}
	return doneToken{}
}

func (f *fakePaho) AddRoute(topic string, callback paho.MessageHandler) {
	f.handlers[topic] = callback
}

func (f *fakePaho) OptionsReader() paho.ClientOptionsReader {
	return paho.ClientOptionsReader{}
}

func (f *fakePaho) deliver(topic, payload string) {
	if h, ok := f.handlers[topic]; ok {
		h(f, message{topic: topic, payload: []byte(payload)})
	}
}

func (f *fakePaho) reset() {
	f.handlers = make(map[string]paho.MessageHandler)
}

var closed = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

type doneToken struct {
	err error
}

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{}          { return closed }
func (t doneToken) Error() error                   { return t.err }

type pendingToken struct{}

func (pendingToken) Wait() bool                     { return false }
func (pendingToken) WaitTimeout(time.Duration) bool { return false }
func (pendingToken) Done() <-chan struct{}          { return nil }
func (pendingToken) Error() error                   { return nil }

type message struct {
	topic   string
	payload []byte
}

func (m message) Duplicate() bool   { return false }
func (m message) Qos() byte         { return 1 }
func (m message) Retained() bool    { return false }
func (m message) Topic() string     { return m.topic }
func (m message) MessageID() uint16 { return 1 }
func (m message) Payload() []byte   { return m.payload }
func (m message) Ack()              {}
