// File: internal/session/capture.go
package session

import (
	"fmt"
	"net/url"

	"github.com/chromedp/cdproto/network"

	"github.com/campuscat/seatwatch/internal/portal"
)

// sessionIDParam is the query parameter the portal uses to key a search
// session. Its absence from the intercepted request is not an error; the
// downstream fetch simply omits it.
const sessionIDParam = "uniqueSessionId"

// credentialsFromRequest converts an intercepted availability request into a
// fresh credential snapshot: headers verbatim, plus the session-identifier
// query parameter's first value when present.
func credentialsFromRequest(req *network.Request) portal.Credentials {
	creds := portal.Credentials{
		Headers:     make(map[string]string, len(req.Headers)),
		QueryParams: make(map[string]string, 1),
	}

	for name, value := range req.Headers {
		if s, ok := value.(string); ok {
			creds.Headers[name] = s
		} else {
			creds.Headers[name] = fmt.Sprint(value)
		}
	}

	if u, err := url.Parse(req.URL); err == nil {
		if vals, ok := u.Query()[sessionIDParam]; ok && len(vals) > 0 {
			creds.QueryParams[sessionIDParam] = vals[0]
		}
	}

	return creds
}
