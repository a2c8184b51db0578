// Package aws provides the SQS queue and SNS topic pathways. Both share the
// same body rules: compact JSON no larger than 256 KiB, checked before any
// call to AWS.
package aws

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/ThreeDotsLabs/watermill-aws/sns"
	"github.com/ThreeDotsLabs/watermill-aws/sqs"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	amazonsns "github.com/aws/aws-sdk-go-v2/service/sns"
	amazonsqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/smithy-go"
	smithyendpoints "github.com/aws/smithy-go/endpoints"

	errspkg "github.com/drblury/mozdef/internal/runtime/errors"
	"github.com/drblury/mozdef/internal/runtime/ids"
	"github.com/drblury/mozdef/internal/runtime/logging"
	"github.com/drblury/mozdef/internal/runtime/message"
	"github.com/drblury/mozdef/internal/runtime/metadata"
	"github.com/drblury/mozdef/pathway"
)

// MaxMessageSize is the largest body SQS and SNS accept.
const MaxMessageSize = pathway.MaxAWSMessageSize

const (
	localstackAccountID = "000000000000"
	awsAccountIDLength  = 12
)

// SQSClient is the subset of the SQS API used by Queue.
type SQSClient interface {
	GetQueueUrl(ctx context.Context, params *amazonsqs.GetQueueUrlInput, optFns ...func(*amazonsqs.Options)) (*amazonsqs.GetQueueUrlOutput, error)
	SendMessage(ctx context.Context, params *amazonsqs.SendMessageInput, optFns ...func(*amazonsqs.Options)) (*amazonsqs.SendMessageOutput, error)
}

// SNSClient is the subset of the SNS API used by Topic.
type SNSClient interface {
	Publish(ctx context.Context, params *amazonsns.PublishInput, optFns ...func(*amazonsns.Options)) (*amazonsns.PublishOutput, error)
}

// DefaultConfigLoader allows overriding the AWS config loader for testing.
var DefaultConfigLoader = awsconfig.LoadDefaultConfig

// TopicResolverFactory allows overriding the topic resolver creation for testing.
var TopicResolverFactory = sns.NewGenerateArnTopicResolver

// SQSClientFactory allows overriding the SQS client creation for testing.
var SQSClientFactory = func(cfg aws.Config, optFns ...func(*amazonsqs.Options)) SQSClient {
	return amazonsqs.NewFromConfig(cfg, optFns...)
}

// SNSClientFactory allows overriding the SNS client creation for testing.
var SNSClientFactory = func(cfg aws.Config, optFns ...func(*amazonsns.Options)) SNSClient {
	return amazonsns.NewFromConfig(cfg, optFns...)
}

// Option customises a Queue or a Topic.
type Option func(*settings)

type settings struct {
	region          string
	accountID       string
	accessKeyID     string
	secretAccessKey string
	endpoint        string
	logger          logging.ServiceLogger
}

// WithRegion sets the AWS region. Without it the region comes from the
// loaded AWS configuration (and, for topics, from the topic ARN).
func WithRegion(region string) Option {
	return func(s *settings) { s.region = region }
}

// WithAccountID sets the account that owns the queue or topic.
func WithAccountID(accountID string) Option {
	return func(s *settings) { s.accountID = strings.Trim(accountID, "\"' ") }
}

// WithCredentials uses static credentials instead of the default chain.
func WithCredentials(accessKeyID, secretAccessKey string) Option {
	return func(s *settings) {
		s.accessKeyID = accessKeyID
		s.secretAccessKey = secretAccessKey
	}
}

// WithEndpoint points the clients at a custom endpoint such as LocalStack.
func WithEndpoint(endpoint string) Option {
	return func(s *settings) { s.endpoint = endpoint }
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger logging.ServiceLogger) Option {
	return func(s *settings) { s.logger = logger }
}

func newSettings(opts []Option) *settings {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrNop(s.logger)
	return s
}

func optionsFromConfig(cfg pathway.Config, logger logging.ServiceLogger) []Option {
	opts := []Option{
		WithRegion(cfg.GetAWSRegion()),
		WithAccountID(cfg.GetAWSAccountID()),
		WithEndpoint(cfg.GetAWSEndpoint()),
		WithLogger(logger),
	}
	if cfg.GetAWSAccessKeyID() != "" && cfg.GetAWSSecretAccessKey() != "" {
		opts = append(opts, WithCredentials(cfg.GetAWSAccessKeyID(), cfg.GetAWSSecretAccessKey()))
	}
	return opts
}

// Body returns the compact JSON body for msg, or a *errors.SizeLimitError
// when it is longer than MaxMessageSize bytes.
func Body(msg *message.Message) ([]byte, error) {
	if msg == nil {
		return nil, errspkg.ErrMessageRequired
	}
	body, err := msg.Marshal()
	if err != nil {
		return nil, err
	}
	if err := pathway.CheckSize(body, MaxMessageSize); err != nil {
		return nil, err
	}
	return body, nil
}

func (s *settings) loadAWSConfig(ctx context.Context) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if s.region != "" {
		s.logger.Debug("Setting AWS region from config", logging.LogFields{"region": s.region})
		opts = append(opts, awsconfig.WithRegion(s.region))
	}
	if s.accessKeyID != "" && s.secretAccessKey != "" {
		s.logger.Debug("Using static AWS credentials from config", nil)
		opts = append(opts, awsconfig.WithCredentialsProvider(staticCredentialsProvider(s.accessKeyID, s.secretAccessKey)))
	}

	awsCfg, err := DefaultConfigLoader(ctx, opts...)
	if err != nil {
		fields := logging.LogFields{}
		if s.region != "" {
			fields["requested_region"] = s.region
		}
		s.logger.Error("Failed to load AWS default config", err, fields)
		return aws.Config{}, &errspkg.ConfigurationError{Key: "aws", Reason: "unable to load AWS configuration", Cause: err}
	}

	// Ensure region is set even if the loader ignores options
	if s.region != "" {
		awsCfg.Region = s.region
	}
	if s.endpoint == "" && awsCfg.BaseEndpoint != nil {
		s.endpoint = *awsCfg.BaseEndpoint
	}
	return awsCfg, nil
}

func (s *settings) endpointURL() (*url.URL, error) {
	if s.endpoint == "" {
		return nil, nil
	}
	parsed, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, &errspkg.ConfigurationError{Key: "aws_endpoint", Reason: "invalid endpoint URL", Cause: err}
	}
	return parsed, nil
}

func (s *settings) sqsOptions() ([]func(*amazonsqs.Options), error) {
	endpoint, err := s.endpointURL()
	if err != nil || endpoint == nil {
		return nil, err
	}
	return []func(*amazonsqs.Options){
		amazonsqs.WithEndpointResolverV2(sqs.OverrideEndpointResolver{
			Endpoint: smithyendpoints.Endpoint{URI: *endpoint},
		}),
	}, nil
}

func (s *settings) snsOptions() ([]func(*amazonsns.Options), error) {
	endpoint, err := s.endpointURL()
	if err != nil || endpoint == nil {
		return nil, err
	}
	return []func(*amazonsns.Options){
		amazonsns.WithEndpointResolverV2(sns.OverrideEndpointResolver{
			Endpoint: smithyendpoints.Endpoint{URI: *endpoint},
		}),
	}, nil
}

// resolvedAccountID applies the LocalStack default account when a custom
// endpoint is configured and the account id is missing or malformed.
func (s *settings) resolvedAccountID() string {
	accountID := s.accountID
	if s.endpoint == "" {
		return accountID
	}
	if accountID == "" {
		s.logger.Info("AWS account ID empty; using LocalStack default", logging.LogFields{"accountID": localstackAccountID})
		return localstackAccountID
	}
	if len(accountID) != awsAccountIDLength {
		s.logger.Info("Invalid AWS account ID; falling back to LocalStack default", logging.LogFields{"accountID": accountID})
		return localstackAccountID
	}
	return accountID
}

func staticCredentialsProvider(accessKeyID, secretAccessKey string) aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     accessKeyID,
			SecretAccessKey: secretAccessKey,
		}, nil
	})
}

// deliveryMetadata returns the attributes attached to every AWS delivery.
func deliveryMetadata() metadata.Metadata {
	return metadata.New(
		metadata.KeyDeliveryID, ids.NewDeliveryID(),
		metadata.KeyContentType, "application/json",
	)
}

func deliveryError(logger logging.ServiceLogger, service, op string, err error) error {
	fields := logging.LogFields{"service": service, "operation": op}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		fields["error_code"] = apiErr.ErrorCode()
		fields["fault"] = apiErr.ErrorFault().String()
	}
	logger.Error("AWS delivery failed", err, fields)
	return &errspkg.DeliveryError{Pathway: service, Op: op, Cause: err}
}

func regionError(service string) error {
	return &errspkg.ConfigurationError{
		Key:    "aws_region",
		Reason: "AWS region is unset, unable to connect to " + service,
	}
}
