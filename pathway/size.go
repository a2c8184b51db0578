package pathway

import errspkg "github.com/drblury/mozdef/internal/runtime/errors"

// CheckSize fails with a *errors.SizeLimitError when body is longer than
// limit. A limit of zero or less disables the check.
func CheckSize(body []byte, limit int) error {
	if limit > 0 && len(body) > limit {
		return &errspkg.SizeLimitError{Size: len(body), Limit: limit}
	}
	return nil
}
