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

// Publisher pushes normalized delivery events onto an SQS queue for
// asynchronous processing. Publish is fire-and-forget: webhook handlers must
// acknowledge the provider fast, so the send happens in a goroutine with its
// own timeout and failures are only logged.
type Publisher struct {
	client   *sqs.Client
	queueURL string
}

// NewPublisher creates an SQS event publisher.
func NewPublisher(client *sqs.Client, queueURL string) *Publisher {
	return &Publisher{client: client, queueURL: queueURL}
}

// Publish enqueues one event. Never blocks the caller.
func (p *Publisher) Publish(_ context.Context, evt domain.EmailEvent) {
	body, err := json.Marshal(evt)
	if err != nil {
		log.Printf("[Ingest] ERROR: marshal event: %v", err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_, err := p.client.SendMessage(ctx, &sqs.SendMessageInput{
			QueueUrl:    aws.String(p.queueURL),
			MessageBody: aws.String(string(body)),
		})
		if err != nil {
			log.Printf("[Ingest] ERROR: publish %s event for %s: %v",
				evt.Type, evt.ProviderMessageID, err)
		}
	}()
}
