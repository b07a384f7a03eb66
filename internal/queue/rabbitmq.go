// Package queue carries conversion jobs over RabbitMQ.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/tendant/simple-image-manip/pkg/pipeline"
)

// ErrInvalidJob is returned for messages that do not decode to a usable job
var ErrInvalidJob = errors.New("invalid convert job")

// ProcessFunc handles one job
type ProcessFunc func(ctx context.Context, job pipeline.ConvertJob) error

// Client publishes and consumes convert jobs on a durable queue
type Client struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
}

// NewClient connects to url and declares queueName
func NewClient(url, queueName string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare a queue: %w", err)
	}

	return &Client{
		conn:      conn,
		channel:   ch,
		queueName: queueName,
	}, nil
}

// Close closes the channel and connection
func (c *Client) Close() {
	if c.channel != nil {
		c.channel.Close()
	}

	if c.conn != nil {
		c.conn.Close()
	}
}

// PublishJob sends job as a persistent JSON message
func (c *Client) PublishJob(ctx context.Context, job pipeline.ConvertJob) error {
	body, err := encodeJob(job)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		"",          // exchange
		c.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    job.JobID,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish a message: %w", err)
	}

	return nil
}

// ConsumeJobs processes one message at a time until ctx is done or the
// channel closes. Every message is acked, including ones that fail.
func (c *Client) ConsumeJobs(ctx context.Context, process ProcessFunc) error {
	err := c.channel.Qos(
		1,     // prefetch count
		0,     // prefetch size
		false, // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	log.Printf("✓ Waiting for messages on %s", c.queueName)

	for {
		select {
		case <-ctx.Done():
			log.Println("Worker shutting down")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}

			handleDelivery(ctx, d.Body, process)
			d.Ack(false)
		}
	}
}

// handleDelivery decodes and processes one message body
func handleDelivery(ctx context.Context, body []byte, process ProcessFunc) error {
	job, err := decodeJob(body)
	if err != nil {
		log.Printf("ERROR decoding job: %v", err)
		return err
	}

	log.Printf("[%s] Received job with %d path(s)", job.JobID, len(job.InputPaths))
	if err := process(ctx, job); err != nil {
		log.Printf("[%s] Error processing job: %v", job.JobID, err)
		return err
	}

	log.Printf("[%s] ✓ Job processed", job.JobID)
	return nil
}

func encodeJob(job pipeline.ConvertJob) ([]byte, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}
	return body, nil
}

func decodeJob(body []byte) (pipeline.ConvertJob, error) {
	var job pipeline.ConvertJob
	if err := json.Unmarshal(body, &job); err != nil {
		return job, fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}
	if job.JobID == "" {
		return job, fmt.Errorf("%w: job_id is required", ErrInvalidJob)
	}
	if len(job.InputPaths) == 0 {
		return job, fmt.Errorf("%w: input_paths is required", ErrInvalidJob)
	}
	return job, nil
}
