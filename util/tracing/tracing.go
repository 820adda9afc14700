package tracing

import "fmt"

// Context carries the identifiers of a single inbound request.
type Context struct {
	RequestID     string `json:"request_id"`
	RequestSource string `json:"request_source"`
}

func (c Context) String() string {
	return fmt.Sprintf("request_id=%s source=%s", c.RequestID, c.RequestSource)
}
