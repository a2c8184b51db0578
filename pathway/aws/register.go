package aws

import "github.com/drblury/mozdef/pathway"

func init() {
	Register()
}

// Register adds the SQS and SNS pathways to the default registry.
func Register() {
	pathway.RegisterWithCapabilities(QueuePathwayName, BuildQueue, pathway.SQSCapabilities)
	pathway.RegisterWithCapabilities(TopicPathwayName, BuildTopic, pathway.SNSCapabilities)
}

// QueueCapabilities returns the capabilities of the SQS pathway.
func QueueCapabilities() pathway.Capabilities {
	return pathway.SQSCapabilities
}

// TopicCapabilities returns the capabilities of the SNS pathway.
func TopicCapabilities() pathway.Capabilities {
	return pathway.SNSCapabilities
}
