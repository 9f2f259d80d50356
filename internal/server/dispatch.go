package server

import (
	"github.com/indigo-web/microrest/http"
	"github.com/indigo-web/microrest/router"
)

// Dispatch performs exactly one lookup of the request in the table. On match the success
// header is written and the handler is called once, otherwise the not-found reply is sent.
// The payload handed to handlers of GET routes is empty.
func Dispatch(table *router.Table, request *http.Request, resp *http.Response) (found bool, err error) {
	handler, found := table.Match(request.Path, request.Method)
	if !found {
		return false, resp.NotFound()
	}

	if err = resp.Header(); err != nil {
		return true, err
	}

	handler(resp, request.Payload)

	return true, nil
}
