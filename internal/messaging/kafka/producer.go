package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/furnicart/internal/domain"
)

const (
	defaultTopicPrefix = "furnicart"

	// headerEventType дублирует тип события, чтобы консьюмеры фильтровали без разбора JSON.
	headerEventType = "event-type"
	clientID        = "furnicart-cart-service"
)

// Producer публикует события корзины в Kafka синхронно.
type Producer struct {
	sync   sarama.SyncProducer
	prefix string
	logger *log.Entry
}

// producerConfig: подтверждение всеми репликами и идемпотентность,
// чтобы события одной корзины не дублировались при ретраях.
func producerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = clientID
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Net.MaxOpenRequests = 1
	return cfg
}

// NewProducer подключается к брокерам. Пустой topicPrefix означает "furnicart".
func NewProducer(brokers []string, topicPrefix string) (*Producer, error) {
	sync, err := sarama.NewSyncProducer(brokers, producerConfig())
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return newProducer(sync, topicPrefix), nil
}

func newProducer(sync sarama.SyncProducer, topicPrefix string) *Producer {
	prefix := strings.TrimSuffix(strings.TrimSpace(topicPrefix), ".")
	if prefix == "" {
		prefix = defaultTopicPrefix
	}
	return &Producer{
		sync:   sync,
		prefix: prefix,
		logger: log.WithField("component", "kafka-producer"),
	}
}

// topic переносит базовое имя топика ("furnicart.cart.events") под настроенный префикс.
func (p *Producer) topic(base string) string {
	return p.prefix + strings.TrimPrefix(base, defaultTopicPrefix)
}

// PublishCartEvent реализует domain.EventPublisher. Ключ сообщения: ключ корзины,
// так что события одной корзины приходят в одну партицию по порядку.
func (p *Producer) PublishCartEvent(ctx context.Context, event domain.CartEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := p.message(event)
	if err != nil {
		return err
	}

	fields := log.Fields{"topic": msg.Topic, "cart_key": event.CartKey, "event_type": event.Type}
	partition, offset, err := p.sync.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithFields(fields).Error("failed to send cart event")
		return fmt.Errorf("%w: %v", domain.ErrEventPublish, err)
	}

	fields["partition"] = partition
	fields["offset"] = offset
	p.logger.WithFields(fields).Debug("cart event sent")
	return nil
}

func (p *Producer) message(event domain.CartEvent) (*sarama.ProducerMessage, error) {
	payload, err := json.Marshal(NewCartEventMessage(event))
	if err != nil {
		return nil, fmt.Errorf("marshal cart event: %w", err)
	}
	return &sarama.ProducerMessage{
		Topic: p.topic(topicFor(event.Type)),
		Key:   sarama.StringEncoder(event.CartKey),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte(headerEventType), Value: []byte(event.Type)},
		},
		Timestamp: time.Now(),
	}, nil
}

// Close дожидается отправки буфера и закрывает соединения с брокерами.
func (p *Producer) Close() error {
	if err := p.sync.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}

var _ domain.EventPublisher = (*Producer)(nil)
