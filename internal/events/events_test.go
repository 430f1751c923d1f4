package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"academic-assist/internal/config"
	"academic-assist/internal/events"
	"academic-assist/internal/logger"
	"academic-assist/testing/testnats"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() events.Event {
	return events.Event{
		Type:       events.TypeStatusUpdated,
		Category:   "assignment",
		RequestID:  12,
		Status:     "Completed",
		OccurredAt: time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestKafkaPublisher(t *testing.T) {
	ctx := context.Background()

	t.Run("Publish_Success", func(t *testing.T) {
		producer := mocks.NewSyncProducer(t, events.NewKafkaConfig())
		producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
			key, err := msg.Key.Encode()
			if err != nil {
				return err
			}
			if string(key) != "assignment-12" {
				return errors.New("unexpected key " + string(key))
			}

			value, err := msg.Value.Encode()
			if err != nil {
				return err
			}
			var got events.Event
			if err := json.Unmarshal(value, &got); err != nil {
				return err
			}
			if got.Status != "Completed" || got.Type != events.TypeStatusUpdated {
				return errors.New("unexpected payload")
			}
			return nil
		})

		publisher := events.NewKafkaPublisherWithProducer(producer, "requests", logger.Discard())
		require.NoError(t, publisher.Publish(ctx, sampleEvent()))
		require.NoError(t, publisher.Close())
	})

	t.Run("Publish_Failure", func(t *testing.T) {
		producer := mocks.NewSyncProducer(t, events.NewKafkaConfig())
		producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

		publisher := events.NewKafkaPublisherWithProducer(producer, "requests", logger.Discard())
		err := publisher.Publish(ctx, sampleEvent())
		assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
		require.NoError(t, publisher.Close())
	})
}

func TestNew_FallsBackToNoop(t *testing.T) {
	assert.IsType(t, events.Noop{}, events.New(config.EventsConfig{Driver: "none"}, logger.Discard()))
	assert.IsType(t, events.Noop{}, events.New(config.EventsConfig{Driver: "carrier-pigeon"}, logger.Discard()))
	assert.IsType(t, events.Noop{}, events.New(config.EventsConfig{
		Driver:  "nats",
		NATSURL: "nats://127.0.0.1:1",
	}, logger.Discard()))
}

func TestNATSPublisherWithContainer(t *testing.T) {
	natsContainer := testnats.SetupSharedNATS(t)
	defer natsContainer.Cleanup(t)

	t.Run("Publish_UsesCategorySubject", func(t *testing.T) {
		nc := natsContainer.Connect(t)

		received := make(chan *nats.Msg, 1)
		_, err := nc.Subscribe("academic_assist.requests.>", func(msg *nats.Msg) {
			received <- msg
		})
		require.NoError(t, err)
		require.NoError(t, nc.Flush())

		publisher, err := events.NewNATSPublisher(natsContainer.URL, "academic_assist.requests", logger.Discard())
		require.NoError(t, err)
		defer publisher.Close()

		require.NoError(t, publisher.Publish(context.Background(), sampleEvent()))

		select {
		case msg := <-received:
			assert.Equal(t, "academic_assist.requests.assignment", msg.Subject)
			var got events.Event
			require.NoError(t, json.Unmarshal(msg.Data, &got))
			assert.Equal(t, int64(12), got.RequestID)
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for event")
		}
	})
}
