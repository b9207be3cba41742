// Package events はドメインイベントを Kafka に送信します。
package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/nanasync/nanasync-api/internal/core/domainevent"
)

const (
	defaultQueueSize = 1000
	writeTimeout     = 10 * time.Second
)

var jsonMarshal = json.Marshal

// KafkaWriter は kafka.Writer のうち Producer が利用する部分です。
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer はキューに積んだイベントをバックグラウンドで Kafka に書き込みます。
// キューが満杯の場合イベントは破棄されます。
type Producer struct {
	writer    KafkaWriter
	events    chan domainevent.Event
	logger    *zap.Logger
	closeChan chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

type message struct {
	ID         string           `json:"id"`
	Type       domainevent.Type `json:"type"`
	OccurredAt time.Time        `json:"occurredAt"`
	Payload    map[string]any   `json:"payload,omitempty"`
}

// NewProducer は brokers と topic を指定して Producer を生成します。
func NewProducer(brokers []string, topic string, logger *zap.Logger) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("events: at least one kafka broker is required")
	}
	if topic == "" {
		return nil, errors.New("events: kafka topic is required")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
	}
	return newProducer(writer, logger, defaultQueueSize), nil
}

func newProducer(writer KafkaWriter, logger *zap.Logger, queueSize int) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Producer{
		writer:    writer,
		events:    make(chan domainevent.Event, queueSize),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
		done:      make(chan struct{}),
	}
	go p.eventLoop()
	return p
}

// Publish はイベントをキューに積みます。ブロックしません。
func (p *Producer) Publish(_ context.Context, event domainevent.Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	select {
	case <-p.closeChan:
		p.logger.Warn("kafka producer closed, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("event_key", event.Key),
		)
		return
	default:
	}

	select {
	case p.events <- event:
	default:
		p.logger.Warn("kafka producer queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("event_key", event.Key),
		)
	}
}

func (p *Producer) eventLoop() {
	defer close(p.done)
	for {
		select {
		case event := <-p.events:
			p.sendEvent(event)
		case <-p.closeChan:
			for {
				select {
				case event := <-p.events:
					p.sendEvent(event)
				default:
					return
				}
			}
		}
	}
}

func (p *Producer) sendEvent(event domainevent.Event) {
	value, err := jsonMarshal(message{
		ID:         event.ID,
		Type:       event.Type,
		OccurredAt: event.OccurredAt,
		Payload:    event.Payload,
	})
	if err != nil {
		p.logger.Error("failed to serialize event",
			zap.Error(err),
			zap.String("event_id", event.ID),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}); err != nil {
		p.logger.Error("failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
		)
	}
}

// Close はキューに残ったイベントを送信してから writer を閉じます。
func (p *Producer) Close() {
	p.closeOnce.Do(func() {
		close(p.closeChan)
		<-p.done
		if err := p.writer.Close(); err != nil {
			p.logger.Error("failed to close kafka writer", zap.Error(err))
		}
	})
}
