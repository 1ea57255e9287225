package passport

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Strategy authenticates a request one way (credentials, token, federated identity).
type Strategy interface {
	Name() string
	Authenticate(c echo.Context) Result
}

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeFail
	outcomeRedirect
	outcomeError
	outcomePass
)

func (o outcome) String() string {
	switch o {
	case outcomeSuccess:
		return "success"
	case outcomeFail:
		return "fail"
	case outcomeRedirect:
		return "redirect"
	case outcomeError:
		return "error"
	default:
		return "pass"
	}
}

// Result is what a strategy decided about the request.
type Result struct {
	outcome   outcome
	user      any
	message   string
	challenge string
	status    int
	url       string
	err       error
}

// Success authenticates user. message is shown as a success flash when enabled.
func Success(user any, message string) Result {
	return Result{outcome: outcomeSuccess, user: user, message: message}
}

// Fail rejects the request. A zero status means 401.
func Fail(message, challenge string, status int) Result {
	if status == 0 {
		status = http.StatusUnauthorized
	}
	return Result{outcome: outcomeFail, message: message, challenge: challenge, status: status}
}

// Redirect sends the client elsewhere, typically to a third-party provider.
func Redirect(url string, status int) Result {
	if status == 0 {
		status = http.StatusFound
	}
	return Result{outcome: outcomeRedirect, url: url, status: status}
}

// Error aborts authentication with an internal error.
func Error(err error) Result {
	return Result{outcome: outcomeError, err: err}
}

// Pass skips authentication and lets the request through untouched.
func Pass() Result {
	return Result{outcome: outcomePass}
}

// User returns the authenticated user of a successful result.
func (r Result) User() any { return r.user }

// Message returns the flash or failure message.
func (r Result) Message() string { return r.message }

// Status returns the HTTP status of a failure or redirect.
func (r Result) Status() int { return r.status }

// Succeeded reports whether the result authenticated a user.
func (r Result) Succeeded() bool { return r.outcome == outcomeSuccess }
