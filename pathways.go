package mozdef

import (
	"github.com/drblury/mozdef/pathway/aws"
	"github.com/drblury/mozdef/pathway/console"
	"github.com/drblury/mozdef/pathway/http"
	"github.com/drblury/mozdef/pathway/processlog"

	_ "github.com/drblury/mozdef/pathway/pathways"
)

type (
	Console    = console.Console
	ProcessLog = processlog.ProcessLog
	Queue      = aws.Queue
	Topic      = aws.Topic
	Endpoint   = http.Endpoint
	Response   = http.Response

	ConsoleOption    = console.Option
	ProcessLogOption = processlog.Option
	AWSOption        = aws.Option
	HTTPOption       = http.Option
)

// Console pathway.
var (
	NewConsole        = console.New
	WithConsolePrefix = console.WithPrefix
	WithConsoleWriter = console.WithWriter
)

// Process log pathway.
var (
	NewProcessLog  = processlog.New
	WithLogLevel   = processlog.WithLevel
	WithSlogLogger = processlog.WithLogger
)

// SQS and SNS pathways.
var (
	NewQueue        = aws.NewQueue
	NewTopic        = aws.NewTopic
	WithRegion      = aws.WithRegion
	WithAccountID   = aws.WithAccountID
	WithCredentials = aws.WithCredentials
	WithEndpoint    = aws.WithEndpoint
	WithAWSLogger   = aws.WithLogger
)

// HTTP pathway.
var (
	NewHTTP        = http.New
	WithBlocking   = http.WithBlocking
	WithVerifyCert = http.WithVerifyCert
	WithBufferSize = http.WithBufferSize
	WithHeaders    = http.WithHeaders
	WithHTTPClient = http.WithHTTPClient
	WithHTTPLogger = http.WithLogger
)
