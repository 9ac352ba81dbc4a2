package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dshills/acra/internal/review"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// maxLiveFrame is the default size limit of one inbound live-review message.
const maxLiveFrame = 1 << 20

var errNotObject = errors.New("message must be a JSON object")

// liveRequest is one inbound live-review frame. A missing code is reviewed
// as empty code.
type liveRequest struct {
	Code     string  `json:"code"`
	Language *string `json:"language"`
}

type liveIssues struct {
	Issues []review.Finding `json:"issues"`
}

type liveError struct {
	Error string `json:"error"`
}

// liveReview handles GET /ws/review. Every inbound frame gets exactly one
// reply; a bad or oversized frame gets an error reply and the loop
// continues. The loop ends when the client disconnects.
func (a *API) liveReview(c *gin.Context) {
	conn, err := a.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		a.log.Warn("live review upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		data, tooLarge, err := a.readFrame(conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				a.log.Debug("live review connection closed", "error", err)
			}
			return
		}

		var reply any
		if tooLarge {
			reply = liveError{Error: fmt.Sprintf("message exceeds %d bytes", a.frameLimit)}
		} else {
			reply = liveReply(data)
		}
		if err := conn.WriteJSON(reply); err != nil {
			a.log.Debug("live review write failed", "error", err)
			return
		}
	}
}

// readFrame reads one message, keeping at most frameLimit bytes. The rest
// of an oversized message is discarded so the connection stays usable.
func (a *API) readFrame(conn *websocket.Conn) (data []byte, tooLarge bool, err error) {
	_, r, err := conn.NextReader()
	if err != nil {
		return nil, false, err
	}
	data, err = io.ReadAll(io.LimitReader(r, a.frameLimit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(data)) <= a.frameLimit {
		return data, false, nil
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, false, err
	}
	return nil, true, nil
}

func liveReply(data []byte) any {
	var req *liveRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return liveError{Error: err.Error()}
	}
	if req == nil {
		return liveError{Error: errNotObject.Error()}
	}
	language := ""
	if req.Language != nil {
		language = *req.Language
	}
	return liveIssues{Issues: review.Evaluate(req.Code, language)}
}

// originChecker accepts requests with no Origin header, same-host origins
// and any origin in allowed. A "*" entry accepts everything.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.ToLower(o), "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || set["*"] {
			return true
		}
		if set[strings.TrimRight(strings.ToLower(origin), "/")] {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}
