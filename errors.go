package securitycenter

import (
	"errors"
	"fmt"

	"github.com/tphakala/go-securitycenter/internal/api"
)

// Sentinel errors for common failure modes.
var (
	ErrNoHost = errors.New("securitycenter: no host configured")
	ErrNoTool = errors.New("securitycenter: analysis query requires a tool or a raw query")
)

// APIError is an application-level error reported by SecurityCenter in a
// well-formed JSON body as error_code/error_msg. It is produced by the
// transport's response check, which runs on every call the client makes.
type APIError = api.Error

// ServerNotFoundError indicates no reachable SecurityCenter at the target.
type ServerNotFoundError struct {
	Host string
	Err  error
}

func (e *ServerNotFoundError) Error() string {
	return fmt.Sprintf("securitycenter: no SecurityCenter instance at %s: %v", e.Host, e.Err)
}

func (e *ServerNotFoundError) Unwrap() error {
	return e.Err
}

// InvalidServerError indicates the target responded, but not with the shape a
// SecurityCenter status response has. The client refuses to proceed against
// such a server.
type InvalidServerError struct {
	Host string
	Err  error
}

func (e *InvalidServerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("securitycenter: invalid SecurityCenter instance at %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("securitycenter: invalid SecurityCenter instance at %s", e.Host)
}

func (e *InvalidServerError) Unwrap() error {
	return e.Err
}
