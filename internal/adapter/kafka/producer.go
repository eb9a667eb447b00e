package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/retry"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// A producer is used for composition.
//
// Producing records to kafka broker and closing underlying [kgo.Client].
type producer struct {
	opPrefix string
	cl       ProducerClient
	retryCfg retry.RetryConfig
}

func (p producer) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

// produce retries the whole batch while the broker error is retriable.
func (p producer) produce(
	ctx context.Context, rs ...*kgo.Record,
) error {
	const op = "produce"
	err := retry.Do(ctx, p.retryCfg, func() error {
		return p.cl.ProduceSync(ctx, rs...).FirstErr()
	})
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

var _ port.ActivityPublisher = ActivityProducer{}

// An ActivityProducer used for produce [domain.Change] as shopper activity.
type ActivityProducer struct {
	producer producer
	encoder  Encoder
	opPrefix string
}

func NewActivityProducer(
	opts ...ProducerOpt,
) (ActivityProducer, error) {
	const op = "NewActivityProducer"

	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return ActivityProducer{}, opErr(err, op)
		}
	}

	opPrefix := "ActivityProducer"
	p := producer{
		opPrefix: opPrefix,
		cl:       options.cl,
		retryCfg: retry.RetryConfig{
			MaxAttempts: 3,
			Backoff:     retry.ExponentialBackoff(100 * time.Millisecond),
			ShouldRetry: kerr.IsRetriable,
		},
	}

	return ActivityProducer{
		producer: p,
		encoder:  options.encoder,
		opPrefix: opPrefix,
	}, nil
}

func (p ActivityProducer) Close() {
	p.producer.close()
}

// PublishActivity produces the change keyed by owner, so one shopper's
// activity stays ordered within a partition.
func (p ActivityProducer) PublishActivity(
	ctx context.Context, v domain.Change,
) error {
	const op = "PublishActivity"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	b, err := p.encoder.Encode(changeToSchemaV1(v))
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	r := &kgo.Record{Key: []byte(v.Owner), Value: b}
	if err := p.producer.produce(ctx, r); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}
