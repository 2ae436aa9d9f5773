package ingest

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/ignite/deliverability/internal/domain"
)

// Processor handles one decoded delivery event. Satisfied by
// tracking.Service.
type Processor interface {
	ProcessEvent(ctx context.Context, evt domain.EmailEvent) error
}

// Consumer long-polls the event queue and feeds events to the processor.
//
// Delivery is at-least-once: a message is deleted only after the processor
// returns nil, so storage failures leave it on the queue for redelivery.
// Messages that cannot be decoded or fail validation are deleted immediately,
// since redelivering them can never succeed.
type Consumer struct {
	sqsClient *sqs.Client
	queueURL  string
	processor Processor
	done      chan struct{}
}

// NewConsumer creates an SQS event consumer.
func NewConsumer(sqsClient *sqs.Client, queueURL string, processor Processor) *Consumer {
	return &Consumer{
		sqsClient: sqsClient,
		queueURL:  queueURL,
		processor: processor,
		done:      make(chan struct{}),
	}
}

// Start begins polling in a background goroutine.
func (c *Consumer) Start(ctx context.Context) {
	log.Printf("[Ingest] SQS consumer started (queue=%s)", c.queueURL)
	go c.poll(ctx)
}

// Stop terminates the polling loop.
func (c *Consumer) Stop() {
	close(c.done)
}

func (c *Consumer) poll(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		out, err := c.sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[Ingest] SQS receive error: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		for _, msg := range out.Messages {
			var evt domain.EmailEvent
			if err := json.Unmarshal([]byte(*msg.Body), &evt); err != nil {
				log.Printf("[Ingest] bad message, dropping: %v", err)
				c.deleteMessage(ctx, msg.ReceiptHandle)
				continue
			}
			if err := evt.Validate(); err != nil {
				log.Printf("[Ingest] invalid %s event, dropping: %v", evt.Type, err)
				c.deleteMessage(ctx, msg.ReceiptHandle)
				continue
			}

			if err := c.processor.ProcessEvent(ctx, evt); err != nil {
				// left on the queue for redelivery
				log.Printf("[Ingest] process error (%s): %v", evt.Type, err)
				continue
			}

			c.deleteMessage(ctx, msg.ReceiptHandle)
		}
	}
}

func (c *Consumer) deleteMessage(ctx context.Context, handle *string) {
	c.sqsClient.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: handle,
	})
}
