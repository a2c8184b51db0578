package aws

import (
	"context"

	"github.com/ThreeDotsLabs/watermill-aws/sns"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/arn"
	amazonsns "github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	errspkg "github.com/drblury/mozdef/internal/runtime/errors"
	"github.com/drblury/mozdef/internal/runtime/logging"
	"github.com/drblury/mozdef/internal/runtime/message"
	"github.com/drblury/mozdef/internal/runtime/metadata"
	"github.com/drblury/mozdef/pathway"
)

// TopicPathwayName is the name used to register the SNS pathway.
const TopicPathwayName = "sns"

const snsService = "SNS"

// Topic publishes messages to an SNS topic.
type Topic struct {
	arn    string
	region string
	client SNSClient
	logger logging.ServiceLogger
}

// BuildTopic creates an SNS pathway from configuration.
func BuildTopic(ctx context.Context, cfg pathway.Config, logger logging.ServiceLogger) (pathway.Pathway, error) {
	t, err := NewTopic(ctx, cfg.GetSNSTopic(), optionsFromConfig(cfg, logger)...)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// NewTopic returns a pathway for topic, which is either a topic ARN or a
// bare topic name. A bare name is turned into an ARN from the account id
// and region. The client region is WithRegion, then the ARN's region, then
// the loaded AWS configuration.
func NewTopic(ctx context.Context, topic string, opts ...Option) (*Topic, error) {
	if topic == "" {
		return nil, errspkg.ErrTopicRequired
	}
	s := newSettings(opts)

	if s.region == "" {
		if parsed, err := arn.Parse(topic); err == nil && parsed.Region != "" {
			s.region = parsed.Region
		}
	}

	awsCfg, err := s.loadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}
	if awsCfg.Region == "" {
		return nil, regionError("SNS topic")
	}

	topicARN, err := resolveTopicARN(ctx, topic, s.resolvedAccountID(), awsCfg.Region, s.logger)
	if err != nil {
		return nil, err
	}

	optFns, err := s.snsOptions()
	if err != nil {
		return nil, err
	}

	t := &Topic{
		arn:    topicARN,
		region: awsCfg.Region,
		client: SNSClientFactory(awsCfg, optFns...),
		logger: s.logger.With(logging.LogFields{"pathway": TopicPathwayName, "topic_arn": topicARN}),
	}
	fields := logging.LogFields{
		"region":          t.region,
		"custom_endpoint": s.endpoint != "",
	}
	if name, err := sns.ExtractTopicNameFromTopicArn(sns.TopicArn(topicARN)); err == nil {
		fields["topic"] = string(name)
	}
	t.logger.Debug("Created SNS pathway", fields)
	return t, nil
}

func (t *Topic) Name() string { return TopicPathwayName }

// ARN returns the resolved topic ARN.
func (t *Topic) ARN() string { return t.arn }

// Region returns the region of the SNS client.
func (t *Topic) Region() string { return t.region }

// Send publishes the message body. On success Response is the
// *sns.PublishOutput.
func (t *Topic) Send(ctx context.Context, msg *message.Message) (pathway.Result, error) {
	body, err := Body(msg)
	if err != nil {
		return pathway.Result{}, err
	}

	out, err := t.client.Publish(ctx, &amazonsns.PublishInput{
		TopicArn:          aws.String(t.arn),
		Message:           aws.String(string(body)),
		MessageAttributes: snsAttributes(deliveryMetadata()),
	})
	if err != nil {
		return pathway.Result{}, deliveryError(t.logger, snsService, "Publish", err)
	}
	return pathway.Result{Status: pathway.StatusSent, Response: out}, nil
}

func resolveTopicARN(ctx context.Context, topic, accountID, region string, logger logging.ServiceLogger) (string, error) {
	if arn.IsARN(topic) {
		return topic, nil
	}
	if accountID == "" {
		return "", &errspkg.ConfigurationError{Key: "aws_account_id", Reason: "required to resolve topic name " + topic}
	}

	resolver, err := TopicResolverFactory(accountID, region)
	if err != nil {
		logger.Error("Failed to create SNS topic resolver", err, logging.LogFields{
			"accountID": accountID,
			"region":    region,
		})
		return "", &errspkg.ConfigurationError{Key: "sns_topic", Reason: "unable to create topic resolver", Cause: err}
	}
	resolved, err := resolver.ResolveTopic(ctx, topic)
	if err != nil {
		return "", &errspkg.ConfigurationError{Key: "sns_topic", Reason: "unable to resolve topic " + topic, Cause: err}
	}
	return string(resolved), nil
}

func snsAttributes(md metadata.Metadata) map[string]snstypes.MessageAttributeValue {
	attrs := make(map[string]snstypes.MessageAttributeValue, len(md))
	for _, k := range md.Keys() {
		attrs[k] = snstypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(md[k]),
		}
	}
	return attrs
}
