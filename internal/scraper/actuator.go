// internal/scraper/actuator.go
package scraper

import (
	"context"
	"sync"

	"github.com/valpere/jobharvest/internal/browser"
	"github.com/valpere/jobharvest/internal/utils"
)

// driverSlot forwards actuator calls to whichever driver is current, so a
// session's behavior engine survives the browser being relaunched.
type driverSlot struct {
	mu     sync.Mutex
	driver browser.Driver
}

func (s *driverSlot) set(d browser.Driver) {
	s.mu.Lock()
	s.driver = d
	s.mu.Unlock()
}

func (s *driverSlot) get() (browser.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.driver == nil {
		return nil, utils.NewError(utils.ErrCodeBrowserFailed, "no browser open").Build()
	}
	return s.driver, nil
}

func (s *driverSlot) ScrollBy(ctx context.Context, dx, dy int) error {
	d, err := s.get()
	if err != nil {
		return err
	}
	return d.ScrollBy(ctx, dx, dy)
}

func (s *driverSlot) ScrollTo(ctx context.Context, x, y int) error {
	d, err := s.get()
	if err != nil {
		return err
	}
	return d.ScrollTo(ctx, x, y)
}

func (s *driverSlot) MouseMove(ctx context.Context, x, y float64) error {
	d, err := s.get()
	if err != nil {
		return err
	}
	return d.MouseMove(ctx, x, y)
}

func (s *driverSlot) Click(ctx context.Context, x, y float64) error {
	d, err := s.get()
	if err != nil {
		return err
	}
	return d.Click(ctx, x, y)
}

func (s *driverSlot) PressKey(ctx context.Context, key string, modifiers ...string) error {
	d, err := s.get()
	if err != nil {
		return err
	}
	return d.PressKey(ctx, key, modifiers...)
}

func (s *driverSlot) HistoryBack(ctx context.Context) error {
	d, err := s.get()
	if err != nil {
		return err
	}
	return d.HistoryBack(ctx)
}

func (s *driverSlot) HistoryForward(ctx context.Context) error {
	d, err := s.get()
	if err != nil {
		return err
	}
	return d.HistoryForward(ctx)
}

func (s *driverSlot) Viewport(ctx context.Context) (int, int, error) {
	d, err := s.get()
	if err != nil {
		return 0, 0, err
	}
	return d.Viewport(ctx)
}

func (s *driverSlot) WindowSize(ctx context.Context) (int, int, error) {
	d, err := s.get()
	if err != nil {
		return 0, 0, err
	}
	return d.WindowSize(ctx)
}

func (s *driverSlot) SetWindowSize(ctx context.Context, width, height int) error {
	d, err := s.get()
	if err != nil {
		return err
	}
	return d.SetWindowSize(ctx, width, height)
}

func (s *driverSlot) MinimizeWindow(ctx context.Context) error {
	d, err := s.get()
	if err != nil {
		return err
	}
	return d.MinimizeWindow(ctx)
}

func (s *driverSlot) MaximizeWindow(ctx context.Context) error {
	d, err := s.get()
	if err != nil {
		return err
	}
	return d.MaximizeWindow(ctx)
}
