package site

import (
	"context"
	"fmt"
	"log"

	"github.com/example/court-scheduler/internal/domain/reservation"
	"github.com/example/court-scheduler/internal/domain/user"
	"github.com/example/court-scheduler/internal/driver"
)

// Session owns the login state of the single browsing session.
type Session struct {
	Driver driver.Driver
	Layout Layout

	stealthed bool
	current   user.Credentials
	loggedIn  bool
}

func NewSession(d driver.Driver, l Layout) *Session {
	return &Session{Driver: d, Layout: l}
}

// Ensure authenticates creds unless they are already the active login. The stealth
// script is installed once, before the first login.
func (s *Session) Ensure(ctx context.Context, creds user.Credentials) error {
	if !s.stealthed && s.Layout.StealthScript != "" {
		if err := s.Driver.AddInitScript(ctx, s.Layout.StealthScript); err != nil {
			return &reservation.AuthError{Username: creds.Username, Err: fmt.Errorf("stealth init: %w", err)}
		}
		s.stealthed = true
	}
	if s.loggedIn && s.current.Same(creds) {
		return nil
	}
	s.loggedIn = false
	if err := s.login(ctx, creds); err != nil {
		return &reservation.AuthError{Username: creds.Username, Err: err}
	}
	s.current, s.loggedIn = creds, true
	log.Printf("site: logged in as %s", creds.Username)
	return nil
}

func (s *Session) login(ctx context.Context, creds user.Credentials) error {
	l := s.Layout.Login
	if err := s.Driver.Navigate(ctx, s.Layout.LoginURL); err != nil {
		return err
	}
	if err := s.typeInto(ctx, l.Username, creds.Username); err != nil {
		return fmt.Errorf("username: %w", err)
	}
	if err := s.typeInto(ctx, l.Password, creds.Password); err != nil {
		return fmt.Errorf("password: %w", err)
	}
	if err := s.click(ctx, l.Submit); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if l.Slider != "" {
		slider, err := s.Driver.Locate(ctx, l.Slider)
		if err != nil {
			return fmt.Errorf("slider: %w", err)
		}
		if err := s.Driver.Drag(ctx, slider, l.SliderOffsetPX, 0); err != nil {
			return fmt.Errorf("slider: %w", err)
		}
	}
	if _, err := s.Driver.Locate(ctx, l.LoggedIn); err != nil {
		return fmt.Errorf("wait for login: %w", err)
	}
	return nil
}

// Confirm runs the confirmation sequence against the booking summary view.
func (s *Session) Confirm(ctx context.Context) error {
	for i, step := range s.Layout.Confirm {
		var err error
		switch step.Action {
		case "click":
			err = s.click(ctx, step.XPath)
		case "wait":
			_, err = s.Driver.Locate(ctx, step.XPath)
		case "resize":
			err = s.Driver.ResizeViewport(ctx, step.Height, step.Width)
		default:
			err = fmt.Errorf("unknown action %q", step.Action)
		}
		if err != nil {
			return fmt.Errorf("confirm step %d (%s): %w", i+1, step.Action, err)
		}
	}
	return nil
}

func (s *Session) typeInto(ctx context.Context, xpath, text string) error {
	el, err := s.Driver.Locate(ctx, xpath)
	if err != nil {
		return err
	}
	return s.Driver.Type(ctx, el, text)
}

func (s *Session) click(ctx context.Context, xpath string) error {
	el, err := s.Driver.Locate(ctx, xpath)
	if err != nil {
		return err
	}
	return s.Driver.Click(ctx, el)
}
