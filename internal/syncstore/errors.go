package syncstore

import "errors"

// Errors returned by Save and Load. Check them with errors.Is:
//
//	if errors.Is(err, syncstore.ErrStorageUnavailable) {
//	    // report an internal error, keep the detail in the server log
//	}
var (
	// ErrInvalidRequest is returned when the body is empty, is not valid
	// JSON or is not a JSON object.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidPayload is returned when a JSON object matches no region.
	ErrInvalidPayload = errors.New("invalid data format")

	// ErrStorageUnavailable is returned when the backend fails or times out.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// IsClientError reports whether err was caused by the request content.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) || errors.Is(err, ErrInvalidPayload)
}
