package aws

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	amazonsqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	errspkg "github.com/drblury/mozdef/internal/runtime/errors"
	"github.com/drblury/mozdef/internal/runtime/logging"
	"github.com/drblury/mozdef/internal/runtime/message"
	"github.com/drblury/mozdef/internal/runtime/metadata"
	"github.com/drblury/mozdef/pathway"
)

// QueuePathwayName is the name used to register the SQS pathway.
const QueuePathwayName = "sqs"

const sqsService = "SQS"

// Queue publishes messages to a named SQS queue.
type Queue struct {
	name      string
	accountID string
	region    string
	client    SQSClient
	logger    logging.ServiceLogger

	mu       sync.Mutex
	queueURL string
}

// BuildQueue creates an SQS pathway from configuration.
func BuildQueue(ctx context.Context, cfg pathway.Config, logger logging.ServiceLogger) (pathway.Pathway, error) {
	q, err := NewQueue(ctx, cfg.GetSQSQueueName(), optionsFromConfig(cfg, logger)...)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// NewQueue returns a pathway for the queue called name. The queue is looked
// up in the account given by WithAccountID, or the caller's own account.
// Construction fails with a *errors.ConfigurationError when no region can
// be resolved.
func NewQueue(ctx context.Context, name string, opts ...Option) (*Queue, error) {
	if name == "" {
		return nil, errspkg.ErrQueueNameRequired
	}
	s := newSettings(opts)

	awsCfg, err := s.loadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}
	if awsCfg.Region == "" {
		return nil, regionError("SQS queue")
	}

	optFns, err := s.sqsOptions()
	if err != nil {
		return nil, err
	}

	q := &Queue{
		name:      name,
		accountID: s.accountID,
		region:    awsCfg.Region,
		client:    SQSClientFactory(awsCfg, optFns...),
		logger:    s.logger.With(logging.LogFields{"pathway": QueuePathwayName, "queue": name}),
	}
	q.logger.Debug("Created SQS pathway", logging.LogFields{
		"region":          q.region,
		"account_id":      q.accountID,
		"custom_endpoint": s.endpoint != "",
	})
	return q, nil
}

func (q *Queue) Name() string { return QueuePathwayName }

// Region returns the region the queue is resolved in.
func (q *Queue) Region() string { return q.region }

// Send publishes the message body. The size check runs before the queue is
// resolved, so oversized messages never reach AWS. On success Response is
// the *sqs.SendMessageOutput.
func (q *Queue) Send(ctx context.Context, msg *message.Message) (pathway.Result, error) {
	body, err := Body(msg)
	if err != nil {
		return pathway.Result{}, err
	}

	queueURL, err := q.resolveQueueURL(ctx)
	if err != nil {
		return pathway.Result{}, err
	}

	out, err := q.client.SendMessage(ctx, &amazonsqs.SendMessageInput{
		QueueUrl:          aws.String(queueURL),
		MessageBody:       aws.String(string(body)),
		MessageAttributes: sqsAttributes(deliveryMetadata()),
	})
	if err != nil {
		return pathway.Result{}, deliveryError(q.logger, sqsService, "SendMessage", err)
	}
	return pathway.Result{Status: pathway.StatusSent, Response: out}, nil
}

// resolveQueueURL looks the queue up once and caches the URL.
func (q *Queue) resolveQueueURL(ctx context.Context) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.queueURL != "" {
		return q.queueURL, nil
	}

	input := &amazonsqs.GetQueueUrlInput{QueueName: aws.String(q.name)}
	if q.accountID != "" {
		input.QueueOwnerAWSAccountId = aws.String(q.accountID)
	}
	out, err := q.client.GetQueueUrl(ctx, input)
	if err != nil {
		return "", deliveryError(q.logger, sqsService, "GetQueueUrl", err)
	}
	q.queueURL = aws.ToString(out.QueueUrl)
	q.logger.Debug("Resolved SQS queue URL", logging.LogFields{"queue_url": q.queueURL})
	return q.queueURL, nil
}

func sqsAttributes(md metadata.Metadata) map[string]sqstypes.MessageAttributeValue {
	attrs := make(map[string]sqstypes.MessageAttributeValue, len(md))
	for _, k := range md.Keys() {
		attrs[k] = sqstypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(md[k]),
		}
	}
	return attrs
}
