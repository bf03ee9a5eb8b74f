package scan

import (
	"context"
	"fmt"

	"github.com/appraysec/appray-cli/internal/appray"
	"github.com/appraysec/appray-cli/internal/errors"
)

// ConnectionInfo describes a successfully verified service connection
type ConnectionInfo struct {
	User         *appray.User `json:"user"`
	Organization string       `json:"organization"`
}

// String renders the connection summary for the text formatter
func (c *ConnectionInfo) String() string {
	return fmt.Sprintf("Successfully connected. %s (%s) @ %s", c.User.Name, c.User.Email, c.Organization)
}

// CheckConnection authenticates with the configured service and verifies
// the account is usable for scan submission: full-access role required.
// The session opened for the check is closed before returning.
func (o *Orchestrator) CheckConnection(ctx context.Context) (*ConnectionInfo, error) {
	cfg := o.Config

	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.NewCredentialMissingError(cfg.CredentialID)
	}
	if cfg.URL == "" {
		return nil, errors.NewURLMissingError()
	}

	var proxy *appray.Proxy
	if host, port, ok := cfg.Proxy(); ok {
		proxy = &appray.Proxy{Host: host, Port: port}
	}

	session, err := o.authenticate()(ctx, cfg.URL, cfg.Username, cfg.Password, proxy)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	user, err := session.GetUser(ctx)
	if err != nil {
		return nil, err
	}
	organization, err := session.GetOrganization(ctx)
	if err != nil {
		return nil, err
	}

	if user.Role != appray.RoleFull {
		return nil, errors.New(errors.ErrCodeAuthRoleInsufficient,
			fmt.Sprintf("user must have full-access role: %s current role: %s", user.Email, user.RawRole))
	}

	return &ConnectionInfo{User: user, Organization: organization}, nil
}
