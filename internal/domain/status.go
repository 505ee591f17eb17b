package domain

import "net/http"

// ErrorKind is the closed set of protocol failures recognised by Classify.
type ErrorKind int

// Error kinds. KindNone means the status is not a protocol failure.
const (
	KindNone ErrorKind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindServerError
	KindBadGateway
	KindUnavailable
	KindTimeOut
)

// statusKinds is the exhaustive status table. Anything missing classifies as KindNone.
var statusKinds = map[int]ErrorKind{
	http.StatusUnauthorized:        KindUnauthorized,
	http.StatusForbidden:           KindForbidden,
	http.StatusNotFound:            KindNotFound,
	http.StatusInternalServerError: KindServerError,
	http.StatusBadGateway:          KindBadGateway,
	http.StatusServiceUnavailable:  KindUnavailable,
	http.StatusGatewayTimeout:      KindTimeOut,
}

// Classify maps an HTTP status code to an ErrorKind. It is total over all integers.
func Classify(status int) ErrorKind {
	return statusKinds[status]
}

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindUnauthorized:
		return "Unauthorized"
	case KindForbidden:
		return "Forbidden"
	case KindNotFound:
		return "NotFound"
	case KindServerError:
		return "ServerError"
	case KindBadGateway:
		return "BadGateway"
	case KindUnavailable:
		return "Unavailable"
	case KindTimeOut:
		return "TimeOut"
	default:
		return "Unknown"
	}
}

// Status returns the HTTP status code the kind is classified from, or 0 for KindNone.
func (k ErrorKind) Status() int {
	for status, kind := range statusKinds {
		if kind == k {
			return status
		}
	}

	return 0
}

// Sentinel returns the sentinel error matched by errors.Is for this kind.
func (k ErrorKind) Sentinel() error {
	switch k {
	case KindUnauthorized:
		return ErrUnauthorized
	case KindForbidden:
		return ErrForbidden
	case KindNotFound:
		return ErrNotFound
	case KindServerError:
		return ErrServerError
	case KindBadGateway:
		return ErrBadGateway
	case KindUnavailable:
		return ErrUnavailable
	case KindTimeOut:
		return ErrTimeOut
	default:
		return nil
	}
}
