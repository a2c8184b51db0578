// Package pathways imports all built-in pathways for auto-registration.
// Import this package to have all pathways registered with the default registry.
package pathways

import (
	// Import all pathways for side-effect registration
	_ "github.com/drblury/mozdef/pathway/aws"
	_ "github.com/drblury/mozdef/pathway/channel"
	_ "github.com/drblury/mozdef/pathway/console"
	_ "github.com/drblury/mozdef/pathway/http"
	_ "github.com/drblury/mozdef/pathway/jetstream"
	_ "github.com/drblury/mozdef/pathway/kafka"
	_ "github.com/drblury/mozdef/pathway/nats"
	_ "github.com/drblury/mozdef/pathway/processlog"
	_ "github.com/drblury/mozdef/pathway/rabbitmq"
)
