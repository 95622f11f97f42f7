package hubclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/hubforge/sync-core/internal/types"
)

// Client is a session-scoped wrapper over one Hub Transport. A session
// connects to at most one project at a time; ConnectToProject replaces
// whatever project was previously connected.
type Client struct {
	transport Transport

	username string
	password string

	sessionToken    string
	connectedProjectID int
}

// New builds a Client bound to a Transport. Call Authenticate before any
// other operation.
func New(transport Transport, username, password string) *Client {
	return &Client{transport: transport, username: username, password: password}
}

type loginArgs struct {
	Username string
	Password string
}

type loginReply struct {
	SessionToken string
}

// Authenticate logs in and stores the session token used by every
// subsequent call. The engine calls this once at the start of a run and
// again before each major phase to survive server-side session timeouts.
func (c *Client) Authenticate(ctx context.Context) error {
	var reply loginReply
	err := c.call(ctx, "Login", loginArgs{Username: c.username, Password: c.password}, &reply)
	if err != nil {
		return &types.AuthError{Cause: err}
	}
	if reply.SessionToken == "" {
		return &types.AuthError{Cause: fmt.Errorf("empty session token")}
	}
	c.sessionToken = reply.SessionToken
	return nil
}

type connectArgs struct {
	SessionToken string
	ProjectID    int
}

// ConnectToProject scopes the session to one project. Most other
// operations are only valid after a successful connect.
func (c *Client) ConnectToProject(ctx context.Context, projectID int) error {
	err := c.call(ctx, "ConnectToProject", connectArgs{SessionToken: c.sessionToken, ProjectID: projectID}, &struct{}{})
	if err != nil {
		return &types.ProjectConnectError{HubProjectID: projectID, Cause: err}
	}
	c.connectedProjectID = projectID
	return nil
}

// call wraps one RPC with transient-error retry, mirroring the retry
// policy the Tracker client applies to its own HTTP calls.
func (c *Client) call(ctx context.Context, method string, args, reply interface{}) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		err := c.transport.Call(ctx, method, args, reply)
		if err == nil {
			return nil
		}
		if isTransientRPCError(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(bo, ctx))
}

func isTransientRPCError(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	for _, substr := range []string{"connection reset", "broken pipe", "timeout", "eof", "connection refused", "service unavailable"} {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

// ResolveURL substitutes the Hub's "~" web-server URL placeholder with
// webBaseURL, used when composing a link back to an artifact from the
// Tracker side.
func ResolveURL(rawURL, webBaseURL string) string {
	if !strings.Contains(rawURL, "~") {
		return rawURL
	}
	return strings.ReplaceAll(rawURL, "~", strings.TrimSuffix(webBaseURL, "/"))
}
