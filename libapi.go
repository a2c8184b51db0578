package mozdef

import (
	runtimepkg "github.com/drblury/mozdef/internal/runtime"
	configpkg "github.com/drblury/mozdef/internal/runtime/config"
	envpkg "github.com/drblury/mozdef/internal/runtime/environment"
	errspkg "github.com/drblury/mozdef/internal/runtime/errors"
	idspkg "github.com/drblury/mozdef/internal/runtime/ids"
	jsoncodec "github.com/drblury/mozdef/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/mozdef/internal/runtime/logging"
	messagepkg "github.com/drblury/mozdef/internal/runtime/message"
	metadatapkg "github.com/drblury/mozdef/internal/runtime/metadata"
	metricspkg "github.com/drblury/mozdef/internal/runtime/metrics"
	validatepkg "github.com/drblury/mozdef/internal/runtime/validate"
	"github.com/drblury/mozdef/pathway"
)

type (
	Config  = configpkg.Config
	Message = messagepkg.Message
	Details = messagepkg.Details
	Option  = messagepkg.Option

	Validator = validatepkg.Validator
	Rule      = validatepkg.Rule

	Pathway       = pathway.Pathway
	Closer        = pathway.Closer
	Result        = pathway.Result
	Status        = pathway.Status
	PathwayConfig = pathway.Config
	Builder       = pathway.Builder
	Registry      = pathway.Registry
	Capabilities  = pathway.Capabilities

	Sender             = runtimepkg.Sender
	SenderDependencies = runtimepkg.SenderDependencies
	SendOption         = runtimepkg.SendOption

	// Send lifecycle hooks
	SendContext = runtimepkg.SendContext
	SendHooks   = runtimepkg.SendHooks

	SendMetrics    = metricspkg.SendMetrics
	PathwayMetrics = metricspkg.PathwayMetrics

	Environment       = envpkg.Environment
	SystemEnvironment = envpkg.System
	StaticEnvironment = envpkg.Static

	Metadata = metadatapkg.Metadata

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger

	ConfigurationError  = errspkg.ConfigurationError
	ValidationError     = errspkg.ValidationError
	SizeLimitError      = errspkg.SizeLimitError
	DeliveryError       = errspkg.DeliveryError
	ResponseStatusError = errspkg.ResponseStatusError
)

// Result statuses.
const (
	StatusSent       = pathway.StatusSent
	StatusBuffered   = pathway.StatusBuffered
	StatusDispatched = pathway.StatusDispatched
)

// Recognized message fields, in canonical order.
const (
	FieldSource       = messagepkg.FieldSource
	FieldHostname     = messagepkg.FieldHostname
	FieldCategory     = messagepkg.FieldCategory
	FieldProcessID    = messagepkg.FieldProcessID
	FieldProcessName  = messagepkg.FieldProcessName
	FieldTags         = messagepkg.FieldTags
	FieldSummary      = messagepkg.FieldSummary
	FieldSeverity     = messagepkg.FieldSeverity
	FieldDetails      = messagepkg.FieldDetails
	FieldTimestamp    = messagepkg.FieldTimestamp
	FieldUTCTimestamp = messagepkg.FieldUTCTimestamp
)

var (
	NewMessage       = messagepkg.New
	WithHostname     = messagepkg.WithHostname
	WithSeverity     = messagepkg.WithSeverity
	WithCategory     = messagepkg.WithCategory
	WithProcessID    = messagepkg.WithProcessID
	WithProcessName  = messagepkg.WithProcessName
	WithTags         = messagepkg.WithTags
	WithDetails      = messagepkg.WithDetails
	WithTimestamp    = messagepkg.WithTimestamp
	WithUTCTimestamp = messagepkg.WithUTCTimestamp
	WithEnvironment  = messagepkg.WithEnvironment
	Omit             = messagepkg.Omit
	FormatTimestamp  = messagepkg.FormatTimestamp

	NewValidator     = validatepkg.New
	ExampleValidator = validatepkg.Example
	RequireDetail    = validatepkg.RequireDetail
	RequireTag       = validatepkg.RequireTag
	RequireCategory  = validatepkg.RequireCategory

	Send           = runtimepkg.Send
	WithValidator  = runtimepkg.WithValidator
	WithPathway    = runtimepkg.WithPathway
	DefaultPathway = runtimepkg.DefaultPathway

	NewSender           = runtimepkg.NewSender
	NewSenderFromConfig = runtimepkg.NewSenderFromConfig

	// Send lifecycle hooks
	LoggingHooks  = runtimepkg.LoggingHooks
	AlertingHooks = runtimepkg.AlertingHooks

	NewSendMetrics = metricspkg.New

	Use = pathway.Use

	// Pathway registry. Every built-in pathway is registered by this package.
	RegisterPathway = pathway.Register
	BuildPathway    = pathway.Build
	GetCapabilities = pathway.GetCapabilities
	NewRegistry     = pathway.NewRegistry

	LoadConfig     = configpkg.Load
	LoadConfigFile = configpkg.LoadFile
	ValidateConfig = configpkg.ValidateConfig

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal

	ErrUnknownField      = errspkg.ErrUnknownField
	ErrReservedField     = errspkg.ErrReservedField
	ErrFieldType         = errspkg.ErrFieldType
	ErrMessageRequired   = errspkg.ErrMessageRequired
	ErrPathwayClosed     = errspkg.ErrPathwayClosed
	ErrUnknownPathway    = errspkg.ErrUnknownPathway
	ErrPublisherRequired = errspkg.ErrPublisherRequired
	ErrTopicRequired     = errspkg.ErrTopicRequired
	ErrURLRequired       = errspkg.ErrURLRequired
	ErrQueueNameRequired = errspkg.ErrQueueNameRequired
	ErrConfigRequired    = errspkg.ErrConfigRequired

	IsValidation = errspkg.IsValidation
	IsDelivery   = errspkg.IsDelivery

	NewSlogServiceLogger = loggingpkg.NewSlogServiceLogger

	NewMetadata = metadatapkg.New

	// NewDeliveryID generates a unique delivery ID using ULID.
	NewDeliveryID = idspkg.NewDeliveryID
)
