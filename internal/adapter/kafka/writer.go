package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/SurawutP/Projectpm2.5/internal/config"
	"github.com/SurawutP/Projectpm2.5/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces stored simulation results to a Kafka topic.
// It implements session.ResultPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured results topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaResultsTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		WriteTimeout: 10 * time.Second,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishResult writes one site with its result, keyed by site id so
// results for the same site stay on one partition.
func (p *Publisher) PublishResult(ctx context.Context, site domain.Site) error {
	msg, err := serializeToMessage(site)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish result for site %q: %w", site.ID, err)
	}
	p.logger.Debug("result published", "site_id", site.ID, "topic", p.writer.Topic)
	return nil
}

// Close flushes pending messages and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// resultMessage is the wire shape of a published result.
type resultMessage struct {
	SiteID      string                   `json:"site_id"`
	Coordinate  domain.Coordinate        `json:"coordinate"`
	BurnAreaRai float64                  `json:"burn_area_rai"`
	Result      *domain.SimulationResult `json:"result"`
}

// serializeToMessage marshals a site and its result into a Kafka message.
func serializeToMessage(site domain.Site) (kafkago.Message, error) {
	if site.Result == nil {
		return kafkago.Message{}, fmt.Errorf("serialize site %q: %w: no result", site.ID, domain.ErrIncompleteData)
	}
	data, err := json.Marshal(resultMessage{
		SiteID:      site.ID,
		Coordinate:  site.Coordinate,
		BurnAreaRai: site.BurnAreaRai,
		Result:      site.Result,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize simulation result: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(site.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "level", Value: []byte(site.Result.Level.Code)},
			{Key: "simulated_at", Value: []byte(site.Result.SimulatedAt.Format(time.RFC3339))},
		},
	}, nil
}
