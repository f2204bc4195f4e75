package harvest

import (
	"context"
	"errors"
	"time"

	"github.com/use-agent/followharvest/config"
	"github.com/use-agent/followharvest/driver"
	"github.com/use-agent/followharvest/models"
)

// LoginStep tags the steps of the authentication flow.
type LoginStep int

const (
	EnterUsername LoginStep = iota + 1
	AwaitChallenge
	EnterPassword
	Submit
	ConfirmSuccess
)

func (s LoginStep) String() string {
	switch s {
	case EnterUsername:
		return "enter_username"
	case AwaitChallenge:
		return "await_challenge"
	case EnterPassword:
		return "enter_password"
	case Submit:
		return "submit"
	case ConfirmSuccess:
		return "confirm_success"
	default:
		return "unknown"
	}
}

// StepRecord notes which locator strategy completed a step. Skipped is set
// when the optional challenge never appeared.
type StepRecord struct {
	Step     LoginStep
	Strategy string
	Skipped  bool
}

// LoginTrace lists the executed steps in order.
type LoginTrace []StepRecord

// LoginError is the terminal Failed state of the login flow.
type LoginError struct {
	Step   LoginStep
	Reason string
	Err    error
}

func (e *LoginError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *LoginError) Unwrap() error { return e.Err }

// Credentials authenticate the browsing account.
type Credentials struct {
	Username string
	Password string
}

type loginState int

const (
	stateStart loginState = iota
	stateUsernameEntered
	stateChallengeResolved // resolved or never shown
	statePasswordEntered
	stateSubmitted
	stateAuthenticated
)

// Login opens the login page and drives the flow to an authenticated
// session. A page that fails to load is reported as ErrCodeLoginPage; any
// Failed transition as ErrCodeLoginFailed wrapping a *LoginError. There is
// no retry.
func Login(ctx context.Context, drv driver.Driver, cfg config.HarvestConfig, creds Credentials, ev Events) (LoginTrace, error) {
	if err := drv.Navigate(ctx, cfg.BaseURL+cfg.LoginPath); err != nil {
		return nil, models.NewHarvestError(models.ErrCodeLoginPage, models.MsgLoginPageFailed, err)
	}

	m := &loginMachine{drv: drv, cfg: cfg, creds: creds, ev: ev}
	err := m.run(ctx)
	if err == nil {
		return m.trace, nil
	}

	var le *LoginError
	if errors.As(err, &le) {
		return m.trace, models.NewHarvestError(models.ErrCodeLoginFailed, models.MsgLoginFailed, le)
	}
	return m.trace, fetchFailure(err)
}

type loginMachine struct {
	drv   driver.Driver
	cfg   config.HarvestConfig
	creds Credentials
	ev    Events
	trace LoginTrace
}

func (m *loginMachine) run(ctx context.Context) error {
	state := stateStart
	for state != stateAuthenticated {
		var err error
		switch state {
		case stateStart:
			state, err = m.enterUsername(ctx)
		case stateUsernameEntered:
			state, err = m.awaitChallenge(ctx)
		case stateChallengeResolved:
			state, err = m.enterPassword(ctx)
		case statePasswordEntered:
			state, err = m.submit(ctx)
		case stateSubmitted:
			state, err = m.confirmSuccess(ctx)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *loginMachine) enterUsername(ctx context.Context) (loginState, error) {
	field, loc, err := m.find(ctx, EnterUsername, m.cfg.LoginWait, usernameLocators, "username field not found")
	if err != nil {
		return 0, err
	}
	if err := m.act(ctx, func(actx context.Context) error { return field.Fill(actx, m.creds.Username) }); err != nil {
		return 0, m.fail(ctx, EnterUsername, "could not enter username", err)
	}
	if err := m.clickThrough(ctx, EnterUsername, continueLocators, "continue button"); err != nil {
		return 0, err
	}
	m.record(EnterUsername, loc.Name, false)
	return stateUsernameEntered, nil
}

func (m *loginMachine) awaitChallenge(ctx context.Context) (loginState, error) {
	field, loc, err := driver.FindFirst(ctx, m.drv, m.cfg.ChallengeWait, m.cfg.PollInterval, challengeLocators)
	if err != nil {
		if errors.Is(err, driver.ErrNotFound) {
			m.record(AwaitChallenge, "", true)
			return stateChallengeResolved, nil
		}
		return 0, err
	}

	if err := m.act(ctx, func(actx context.Context) error { return field.Fill(actx, m.creds.Username) }); err != nil {
		return 0, m.fail(ctx, AwaitChallenge, "could not answer verification challenge", err)
	}
	if err := m.clickThrough(ctx, AwaitChallenge, challengeConfirmLocators, "challenge confirmation button"); err != nil {
		return 0, err
	}
	m.record(AwaitChallenge, loc.Name, false)
	return stateChallengeResolved, nil
}

func (m *loginMachine) enterPassword(ctx context.Context) (loginState, error) {
	field, loc, err := m.find(ctx, EnterPassword, m.cfg.LoginWait, passwordLocators, "password field not found")
	if err != nil {
		return 0, err
	}
	if err := m.act(ctx, func(actx context.Context) error { return field.Fill(actx, m.creds.Password) }); err != nil {
		return 0, m.fail(ctx, EnterPassword, "could not enter password", err)
	}
	m.record(EnterPassword, loc.Name, false)
	return statePasswordEntered, nil
}

func (m *loginMachine) submit(ctx context.Context) (loginState, error) {
	if err := m.clickThrough(ctx, Submit, submitLocators, "login button"); err != nil {
		return 0, err
	}
	return stateSubmitted, nil
}

func (m *loginMachine) confirmSuccess(ctx context.Context) (loginState, error) {
	_, loc, err := m.find(ctx, ConfirmSuccess, m.cfg.LoginWait, landmarkLocators, "login verification failed")
	if err != nil {
		return 0, err
	}
	m.record(ConfirmSuccess, loc.Name, false)
	return stateAuthenticated, nil
}

// find wraps FindFirst, turning a miss into a Failed transition.
// Context errors pass through untouched.
func (m *loginMachine) find(ctx context.Context, step LoginStep, wait time.Duration, locs []driver.Locator, reason string) (driver.Element, driver.Locator, error) {
	el, loc, err := driver.FindFirst(ctx, m.drv, wait, m.cfg.PollInterval, locs)
	if err == nil {
		return el, loc, nil
	}
	if errors.Is(err, driver.ErrNotFound) {
		return nil, loc, m.fail(ctx, step, reason, nil)
	}
	return nil, loc, err
}

// clickThrough locates a control, clicks it and waits the settle delay.
// Submit records its strategy here; other steps record after their own
// field is handled.
func (m *loginMachine) clickThrough(ctx context.Context, step LoginStep, locs []driver.Locator, control string) error {
	btn, loc, err := m.find(ctx, step, m.cfg.LoginWait, locs, control+" not found")
	if err != nil {
		return err
	}
	if err := m.act(ctx, btn.Click); err != nil {
		return m.fail(ctx, step, "could not click "+control, err)
	}
	if step == Submit {
		m.record(Submit, loc.Name, false)
	}
	return driver.Pause(ctx, m.cfg.SettleDelay)
}

// act runs one element action under ActionTimeout. An expired action
// deadline comes back as an ordinary error, so the caller reports a Failed
// transition while the run itself is still alive.
func (m *loginMachine) act(ctx context.Context, action func(context.Context) error) error {
	if m.cfg.ActionTimeout <= 0 {
		return action(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, m.cfg.ActionTimeout)
	defer cancel()
	return action(actx)
}

// fail builds the terminal error. When the context is already done the
// context error wins so the run is reported as a timeout, not a login
// problem.
func (m *loginMachine) fail(ctx context.Context, step LoginStep, reason string, cause error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.ev.LoginFailed(step, reason, cause)
	return &LoginError{Step: step, Reason: reason, Err: cause}
}

func (m *loginMachine) record(step LoginStep, strategy string, skipped bool) {
	rec := StepRecord{Step: step, Strategy: strategy, Skipped: skipped}
	m.trace = append(m.trace, rec)
	m.ev.LoginStep(rec)
}
