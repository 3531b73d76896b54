package eventbus

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/atrium-hq/atrium/pkg/logging"
)

type testEvent struct {
	data interface{}
}

type otherEvent struct {
	data interface{}
}

func TestPublisher_Publish_NoMatch(t *testing.T) {
	logBuffer := bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(&logBuffer)
	log.SetLevel(logrus.WarnLevel)

	publisher := NewEventPublisher(log)
	publisher.Subscribe(func(e *testEvent) {
		t.Error("should not be called")
	})
	publisher.Publish(&otherEvent{data: "test"})

	if output := logBuffer.String(); output == "" {
		t.Error("should have logged")
	} else if !strings.Contains(output, "eventbus.Publish: no matching subscribers") {
		t.Errorf("should have contained no matching subscribers but got: %q", output)
	}
}

func TestPublisher_Subscribe(t *testing.T) {
	publisher := NewEventPublisher(logging.ConsoleLogger(logrus.WarnLevel))
	called := false
	var data interface{}
	publisher.Subscribe(func(e *testEvent) {
		called = true
		data = e.data
	})
	publisher.Publish(&testEvent{data: "test"})
	if !called {
		t.Error("should be called")
	}
	if data != "test" {
		t.Errorf("expected: %v, got: %v", "test", data)
	}
}

func TestPublisher_Unsubscribe(t *testing.T) {
	publisher := NewEventPublisher(logging.ConsoleLogger(logrus.PanicLevel)).(*publisherImpl)
	handler := func(e *testEvent) {}
	publisher.Subscribe(handler)
	if publisher.SubscribersCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", publisher.SubscribersCount())
	}
	publisher.Unsubscribe(handler)
	if publisher.SubscribersCount() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", publisher.SubscribersCount())
	}
}

func TestPublisher_RecoversFromPanic(t *testing.T) {
	publisher := NewEventPublisher(logging.ConsoleLogger(logrus.PanicLevel))
	publisher.Subscribe(func(e *testEvent) {
		panic("boom")
	})
	publisher.Publish(&testEvent{})
}
