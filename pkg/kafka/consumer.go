package kafka

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	applogger "SignalDesk/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// Reader is the subset of *kafka.Reader the consumer uses.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying; the message goes straight to the DLQ.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// Consumer reads registered topics and hands messages to a pool of workers. Every partition
// is pinned to one worker, so its messages are handled and committed in offset order.
type Consumer struct {
	cfg       *ConsumerConfig
	handlers  map[string]MessageHandler
	readers   map[string]Reader
	newReader func(topic string) Reader
	dlq       Writer
	hook      ConsumerHook
	l         *applogger.Logger

	queues   []chan *message
	cancel   context.CancelFunc
	readWG   sync.WaitGroup
	workWG   sync.WaitGroup
	stopOnce sync.Once
}

type message struct {
	topic string
	km    kafka.Message
}

// NewConsumer creates a consumer group member for the configured brokers.
func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "signaldesk",
		StartOffset: "earliest",
		WorkerCount: 1,
		BufferSize:  64,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    1,
		MaxBytes:    10e6,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	c := newConsumer(cfg, func(topic string) Reader {
		start := kafka.FirstOffset
		if cfg.StartOffset == "latest" {
			start = kafka.LastOffset
		}
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			Topic:       topic,
			GroupID:     cfg.GroupID,
			StartOffset: start,
			MinBytes:    cfg.MinBytes,
			MaxBytes:    cfg.MaxBytes,
		})
	})
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.LeastBytes{}}
	}
	return c, nil
}

func newConsumer(cfg *ConsumerConfig, newReader func(string) Reader) *Consumer {
	initConsumerMetricsOnce()
	workers := cfg.WorkerCount
	if workers < 1 {
		workers = 1
	}
	queues := make([]chan *message, workers)
	for i := range queues {
		queues[i] = make(chan *message, cfg.BufferSize)
	}
	return &Consumer{
		cfg:       cfg,
		handlers:  make(map[string]MessageHandler),
		readers:   make(map[string]Reader),
		newReader: newReader,
		hook:      NoopHook{},
		l:         applogger.NewNop(),
		queues:    queues,
	}
}

// SetLogger injects a structured logger.
func (c *Consumer) SetLogger(l *applogger.Logger) {
	if l != nil {
		c.l = l
	}
}

// WithConsumerHook sets a hook implementation for lifecycle events.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// RegisterHandler registers a handler for its topic. A second handler for a topic is ignored.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, ok := c.handlers[topic]; ok {
		c.l.Warn("kafka handler already registered", applogger.String("topic", topic))
		return
	}
	c.handlers[topic] = handler
}

// Start launches one reader per registered topic and the worker pool. It returns immediately.
func (c *Consumer) Start(ctx context.Context) error {
	if len(c.handlers) == 0 {
		return fmt.Errorf("no handlers registered")
	}
	ctx, c.cancel = context.WithCancel(ctx)

	for _, q := range c.queues {
		c.workWG.Add(1)
		go c.worker(q)
	}
	for topic := range c.handlers {
		r := c.newReader(topic)
		c.readers[topic] = r
		c.readWG.Add(1)
		go c.read(ctx, topic, r)
	}

	c.l.Info("kafka consumer started",
		applogger.Int("workers", len(c.queues)),
		applogger.Int("topics", len(c.handlers)),
		applogger.String("group", c.cfg.GroupID),
	)
	return nil
}

// Stop cancels the readers, drains queued messages and closes readers and the DLQ writer.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error
	c.stopOnce.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}
		c.readWG.Wait()
		for _, q := range c.queues {
			close(q)
		}

		done := make(chan struct{})
		go func() {
			c.workWG.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			stopErr = fmt.Errorf("timeout waiting for consumer workers: %w", ctx.Err())
		}

		for topic, r := range c.readers {
			if err := r.Close(); err != nil {
				c.l.Warn("kafka reader close failed", applogger.String("topic", topic), applogger.Error(err))
			}
		}
		if c.dlq != nil {
			if err := c.dlq.Close(); err != nil {
				c.l.Warn("kafka dlq close failed", applogger.Error(err))
			}
		}
	})
	return stopErr
}

func (c *Consumer) read(ctx context.Context, topic string, r Reader) {
	defer c.readWG.Done()
	for {
		km, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.l.Warn("kafka fetch failed", applogger.String("topic", topic), applogger.Error(err))
			select {
			case <-time.After(c.cfg.BackoffMin):
			case <-ctx.Done():
				return
			}
			continue
		}

		q := c.queues[c.shard(topic, km.Partition)]
		select {
		case q <- &message{topic: topic, km: km}:
			consumerQueueDepth.WithLabelValues(topic).Set(float64(len(q)))
		case <-ctx.Done():
			return
		}
	}
}

// shard picks the worker that owns a topic partition.
func (c *Consumer) shard(topic string, partition int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(topic))
	_, _ = fmt.Fprintf(h, "/%d", partition)
	return int(h.Sum32() % uint32(len(c.queues)))
}

func (c *Consumer) worker(q <-chan *message) {
	defer c.workWG.Done()
	for msg := range q {
		c.process(msg)
	}
}

func (c *Consumer) process(msg *message) {
	handler, ok := c.handlers[msg.topic]
	if !ok {
		return
	}
	start := time.Now()

	attempts, err := c.handleWithRetry(handler, msg)
	result := "ok"
	if err != nil {
		result = "failed"
		c.hook.OnError(context.Background(), msg.topic, msg.km, msg.km.Value, err)
		c.l.Error("kafka message failed",
			applogger.String("topic", msg.topic),
			applogger.Int("partition", msg.km.Partition),
			applogger.Int64("offset", msg.km.Offset),
			applogger.Int("attempts", attempts),
			applogger.Error(err),
		)
		if c.toDLQ(msg, err) {
			result = "dlq"
		}
	}

	// commit on success, or once the message is parked in the DLQ. A failure with no DLQ is
	// left uncommitted; the next commit on the partition moves past it.
	if err == nil || result == "dlq" {
		if r := c.readers[msg.topic]; r != nil {
			_ = c.commitWithRetry(r, msg.km, 3)
		}
	}
	consumerMessagesTotal.WithLabelValues(msg.topic, result).Inc()
	consumerHandleLatency.WithLabelValues(msg.topic).Observe(time.Since(start).Seconds())
}

func (c *Consumer) handleWithRetry(handler MessageHandler, msg *message) (attempts int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Permanent(fmt.Errorf("handler panic: %v", r))
		}
	}()

	for {
		attempts++
		hctx, hmsg, data, berr := c.hook.BeforeHandle(context.Background(), msg.topic, msg.km, msg.km.Value)
		if berr != nil {
			return attempts, berr
		}
		err = handler.Handle(hctx, data)
		c.hook.AfterHandle(hctx, msg.topic, hmsg, data, err)
		if err == nil || IsPermanent(err) || attempts > c.cfg.RetryMax {
			return attempts, err
		}
		time.Sleep(backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempts))
	}
}

func (c *Consumer) toDLQ(msg *message, cause error) bool {
	if c.dlq == nil || c.cfg.DLQTopic == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := c.dlq.WriteMessages(ctx, kafka.Message{
		Topic: c.cfg.DLQTopic,
		Key:   msg.km.Key,
		Value: msg.km.Value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "source_topic", Value: []byte(msg.topic)},
			{Key: "error", Value: []byte(cause.Error())},
		},
	})
	if err != nil {
		c.l.Error("kafka dlq write failed", applogger.String("dlq", c.cfg.DLQTopic), applogger.Error(err))
		return false
	}
	return true
}

func (c *Consumer) commitWithRetry(r Reader, km kafka.Message, max int) error {
	var err error
	for attempt := 1; attempt <= max; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = r.CommitMessages(ctx, km)
		cancel()
		if err == nil {
			return nil
		}
		time.Sleep(backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	c.l.Warn("kafka commit failed", applogger.Int64("offset", km.Offset), applogger.Error(err))
	return err
}

func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	exp := min << uint(attempt-1)
	if exp > max || exp <= 0 {
		exp = max
	}
	// up to 50% jitter
	if half := int64(exp) / 2; half > 0 {
		exp -= time.Duration(rand.Int63n(half))
	}
	return exp
}

var (
	consumerQueueDepth    *prometheus.GaugeVec
	consumerMessagesTotal *prometheus.CounterVec
	consumerHandleLatency *prometheus.HistogramVec
	consumerOnce          sync.Once
)

func initConsumerMetricsOnce() {
	consumerOnce.Do(func() {
		factory := promauto.With(metricsRegisterer())
		consumerQueueDepth = factory.NewGaugeVec(
			prometheus.GaugeOpts{Name: "signaldesk_kafka_consumer_queue_depth", Help: "Messages waiting for a worker"},
			[]string{"topic"},
		)
		consumerMessagesTotal = factory.NewCounterVec(
			prometheus.CounterOpts{Name: "signaldesk_kafka_consumer_messages_total", Help: "Consumed messages by outcome"},
			[]string{"topic", "result"},
		)
		consumerHandleLatency = factory.NewHistogramVec(
			prometheus.HistogramOpts{Name: "signaldesk_kafka_consumer_handle_seconds", Help: "Handling time per message"},
			[]string{"topic"},
		)
	})
}
