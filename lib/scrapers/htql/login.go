package htql

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/codes"
)

// the registration subsystem only checks that the field is present
const grantAccessPassword = "p"

// Authenticate logs in with the student's credentials and activates the
// resulting session for the registration subsystem.
func (c *Client) Authenticate(ctx context.Context, studentId, password string) (Session, error) {
	ctx, span := tracer.Start(ctx, "client:Authenticate")
	defer span.End()

	res, err := c.request(ctx, "").
		SetFormData(map[string]string{
			"txtDinhDanh": studentId,
			"txtMatKhau":  password,
		}).
		Post(loginPath)
	err = checkResponse(res, err)
	if errors.Is(err, ErrInvalidSession) {
		err = ErrAuth
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make login request")
		return "", err
	}

	// a failed login renders the portal front page which links to logout.php
	if strings.Contains(res.String(), "logout.php") {
		span.SetStatus(codes.Error, ErrAuth.Error())
		return "", ErrAuth
	}

	var session Session
	for _, cookie := range res.Cookies() {
		if cookie.Name == sessionCookie && cookie.Value != "" {
			session = Session(cookie.Value)
		}
	}
	if session == "" {
		span.SetStatus(codes.Error, "no session cookie")
		return "", ErrAuth
	}

	res, err = c.request(ctx, session).
		SetFormData(map[string]string{
			"txtDinhDanh": studentId,
			"txtMatKhau":  grantAccessPassword,
		}).
		Post(grantAccessPath)
	if err := checkResponse(res, err); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to grant registration access")
		return "", err
	}

	return session, nil
}
