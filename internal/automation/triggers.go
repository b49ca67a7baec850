package automation

import (
	"context"
	"time"

	"github.com/aidanlsb/ebbinghaus/internal/schedule"
)

// Start registers the triggers enabled in the current settings and returns.
// Trigger errors are logged, never returned. Background work stops when ctx
// is cancelled; Wait blocks until it has.
func (p *Plugin) Start(ctx context.Context) {
	s := p.settings()

	if s.AutoUpdateTemplates {
		if _, err := p.UpdateTemplatePagesOnce(ctx); err != nil {
			p.logger.Error("startup template pass failed", "error", err)
		}

		daily := p.daily
		if daily == nil {
			daily = &schedule.Daily{}
		}
		daily.Pass = p.dailyPass
		if daily.Logger == nil {
			daily.Logger = p.logger
		}
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			_ = daily.Run(ctx)
		}()
	}

	if s.UpdateWhenOpenTemplatePage {
		p.host.OnRouteChanged(func() { p.onRouteTemplate(ctx) })
	}

	if s.AutoUpdateRangeOnOpenPage {
		p.host.OnRouteChanged(func() { p.onRouteRange(ctx) })
	}

	if s.AutoUpdateRangeOnEdit {
		deb := schedule.NewDebouncer(func() error {
			if !p.settings().AutoUpdateRangeOnEdit {
				return nil
			}
			_, err := p.UpdateCurrentPageRangeOnce(ctx)
			return err
		}, func() time.Duration { return p.settings().EditDebounce() }, p.logger)

		p.host.OnContentChanged(deb.Trigger)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			<-ctx.Done()
			deb.Stop()
		}()
	}

	p.logger.Debug("triggers registered",
		"auto_update_templates", s.AutoUpdateTemplates,
		"update_when_open_template_page", s.UpdateWhenOpenTemplatePage,
		"auto_update_range_on_open_page", s.AutoUpdateRangeOnOpenPage,
		"auto_update_range_on_edit", s.AutoUpdateRangeOnEdit,
	)
}

// Wait blocks until background triggers started by Start have stopped.
func (p *Plugin) Wait() {
	p.wg.Wait()
}

func (p *Plugin) dailyPass(ctx context.Context) error {
	if !p.settings().AutoUpdateTemplates {
		return nil
	}
	_, err := p.UpdateTemplatePagesOnce(ctx)
	return err
}

func (p *Plugin) onRouteTemplate(ctx context.Context) {
	if !p.settings().UpdateWhenOpenTemplatePage {
		return
	}
	cur, err := p.host.CurrentPageName(ctx)
	if err != nil {
		p.logger.Error("route change: current page", "error", err)
		return
	}
	if cur == "" || !p.MatchTemplatePage(cur) {
		return
	}
	if _, err := p.UpdateTemplatePagesOnce(ctx); err != nil {
		p.logger.Error("route change: template pass failed", "page", cur, "error", err)
	}
}

func (p *Plugin) onRouteRange(ctx context.Context) {
	if !p.settings().AutoUpdateRangeOnOpenPage {
		return
	}
	if _, err := p.UpdateCurrentPageRangeOnce(ctx); err != nil {
		p.logger.Error("route change: range pass failed", "error", err)
	}
}
