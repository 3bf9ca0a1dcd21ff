package hcloud

import (
	"context"
	"errors"
	"net"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/gantry-sh/gantry/internal/provider"
)

// classify maps an hcloud API failure onto the provider error taxonomy.
// Rate limits, locked resources and network timeouts are worth retrying;
// invalid input and permission problems are not.
func classify(err error) error {
	if err == nil {
		return nil
	}

	if isHCloudErrorCode(err,
		hcloud.ErrorCodeRateLimitExceeded,
		hcloud.ErrorCodeLocked,
		hcloud.ErrorCodeConflict,
		hcloud.ErrorCodeResourceLocked,
		hcloud.ErrorCodeResourceUnavailable,
	) {
		return provider.Transient(err)
	}

	if isHCloudErrorCode(err,
		hcloud.ErrorCodeInvalidInput,
		hcloud.ErrorCodeInvalidServerType,
		hcloud.ErrorCodeForbidden,
		hcloud.ErrorCodeUnauthorized,
	) {
		return provider.Permanent(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return provider.Transient(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return provider.Transient(err)
	}

	return provider.Permanent(err)
}

// isNotFound checks if an error indicates a resource was not found.
func isNotFound(err error) bool {
	return isHCloudErrorCode(err, hcloud.ErrorCodeNotFound)
}

// isHCloudErrorCode checks if the error is an hcloud API error with one of
// the given codes.
func isHCloudErrorCode(err error, codes ...hcloud.ErrorCode) bool {
	if err == nil {
		return false
	}

	var hcloudErr hcloud.Error
	if errors.As(err, &hcloudErr) {
		for _, code := range codes {
			if hcloudErr.Code == code {
				return true
			}
		}
	}
	return false
}
