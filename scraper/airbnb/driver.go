package airbnb

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"

	"airbnb-review-analyzer/models"
	"airbnb-review-analyzer/utils"
)

// chromeDriver implements PageDriver against a live chromedp tab.
type chromeDriver struct {
	tab       context.Context
	extractor *Extractor
	policy    CollectPolicy
	logger    *utils.Logger
}

func newChromeDriver(tab context.Context, extractor *Extractor, policy CollectPolicy, logger *utils.Logger) *chromeDriver {
	return &chromeDriver{tab: tab, extractor: extractor, policy: policy, logger: logger}
}

// measurePositionJS combines window offset and the reviews container offset
// into one number so any strategy's movement is observable.
const measurePositionJS = `
	(function() {
		var pos = window.pageYOffset || 0;
		var region = document.querySelector('[data-section-id*="REVIEW"]') ||
		             document.querySelector('div[role="dialog"]');
		if (region) {
			var scrollers = region.querySelectorAll('*');
			for (var i = 0; i < scrollers.length; i++) {
				if (scrollers[i].scrollTop > 0) pos += scrollers[i].scrollTop;
			}
		}
		return pos;
	})()
`

// expansionStrategies is the ordered cascade: the first strategy that
// measurably changes the expansion position wins for the iteration.
var expansionStrategies = []struct {
	name string
	js   string
}{
	{"load-more-click", `
		(function() {
			var buttons = document.querySelectorAll('button, a[role="button"]');
			for (var i = 0; i < buttons.length; i++) {
				var t = (buttons[i].innerText || '').toLowerCase();
				if (/show (all|more).*review|load more/.test(t)) {
					buttons[i].click();
					return true;
				}
			}
			return false;
		})()
	`},
	{"review-region-scroll", `
		(function() {
			var region = document.querySelector('[data-section-id*="REVIEW"]') ||
			             document.querySelector('div[role="dialog"]');
			if (!region) return false;
			var nodes = region.querySelectorAll('*');
			for (var i = 0; i < nodes.length; i++) {
				if (nodes[i].scrollHeight > nodes[i].clientHeight + 10) {
					nodes[i].scrollTop = nodes[i].scrollHeight;
					return true;
				}
			}
			region.scrollTop = region.scrollHeight;
			return true;
		})()
	`},
	{"window-scroll", `
		(function() {
			window.scrollTo(0, document.body.scrollHeight);
			return true;
		})()
	`},
	{"largest-scrollable", `
		(function() {
			var best = null, bestGap = 0;
			var nodes = document.querySelectorAll('div, section, main');
			for (var i = 0; i < nodes.length; i++) {
				var gap = nodes[i].scrollHeight - nodes[i].clientHeight;
				if (gap > bestGap) { bestGap = gap; best = nodes[i]; }
			}
			if (!best) return false;
			best.scrollTop = best.scrollHeight;
			return true;
		})()
	`},
	{"candidate-ranking", `
		(function() {
			var ranked = [];
			var nodes = document.querySelectorAll('*');
			for (var i = 0; i < nodes.length; i++) {
				var style = window.getComputedStyle(nodes[i]);
				if (/(auto|scroll)/.test(style.overflowY) && nodes[i].scrollHeight > nodes[i].clientHeight) {
					ranked.push(nodes[i]);
				}
			}
			ranked.sort(function(a, b) { return b.scrollHeight - a.scrollHeight; });
			for (var j = 0; j < ranked.length && j < 3; j++) {
				ranked[j].scrollTop = ranked[j].scrollHeight;
			}
			return ranked.length > 0;
		})()
	`},
	{"synthetic-wheel", `
		(function() {
			var target = document.querySelector('div[role="dialog"]') || document.body;
			target.dispatchEvent(new WheelEvent('wheel', {deltaY: 2000, bubbles: true, cancelable: true}));
			return true;
		})()
	`},
}

func (d *chromeDriver) position() (float64, error) {
	var pos float64
	err := chromedp.Run(d.tab, chromedp.Evaluate(measurePositionJS, &pos))
	return pos, err
}

func (d *chromeDriver) Expand(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	before, err := d.position()
	if err != nil {
		return false, fmt.Errorf("expand: measure position: %w", err)
	}

	for _, strategy := range expansionStrategies {
		var triggered bool
		if err := chromedp.Run(d.tab, chromedp.Evaluate(strategy.js, &triggered)); err != nil {
			// A broken strategy is "no effect" — try the next one.
			d.logger.Debug("[driver] strategy %s: %v", strategy.name, err)
			continue
		}
		if !triggered {
			continue
		}
		after, err := d.position()
		if err != nil {
			continue
		}
		if after != before {
			d.logger.Debug("[driver] strategy %s moved %0.f → %0.f", strategy.name, before, after)
			return true, nil
		}
	}
	return false, nil
}

// loadingIndicatorJS detects in-progress loading UI.
const loadingIndicatorJS = `
	(function() {
		return document.querySelector('[aria-busy="true"], [role="progressbar"], [data-testid*="loading"]') !== null;
	})()
`

func (d *chromeDriver) Settle(ctx context.Context, final bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	delay := d.policy.SettleDelay
	if final {
		delay = d.policy.FinalSettleDelay
	}
	if err := chromedp.Run(d.tab, chromedp.Sleep(delay)); err != nil {
		return err
	}

	var loading bool
	if err := chromedp.Run(d.tab, chromedp.Evaluate(loadingIndicatorJS, &loading)); err == nil && loading {
		d.logger.Debug("[driver] loading indicator visible — settling longer")
		return chromedp.Run(d.tab, chromedp.Sleep(delay))
	}
	return nil
}

func (d *chromeDriver) Extract(ctx context.Context) ([]*models.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var htmlSrc string
	if err := chromedp.Run(d.tab, chromedp.OuterHTML("html", &htmlSrc)); err != nil {
		return nil, fmt.Errorf("extract: read page html: %w", err)
	}
	return d.extractor.Extract(htmlSrc)
}

// exhaustedJS probes textual and structural end-of-reviews signals.
const exhaustedJS = `
	(function() {
		var text = (document.body.innerText || '').toLowerCase();
		if (/no more reviews|that's all|end of reviews/.test(text)) return true;
		var counts = text.match(/showing (\d+) of (\d+) review/);
		if (counts && counts[1] === counts[2]) return true;
		return document.querySelector('[data-testid*="reviews-end"]') !== null;
	})()
`

func (d *chromeDriver) Exhausted(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var done bool
	if err := chromedp.Run(d.tab, chromedp.Evaluate(exhaustedJS, &done)); err != nil {
		return false, err
	}
	return done, nil
}

func (d *chromeDriver) FinalPass(ctx context.Context, n int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Odd passes hammer the bottom; even passes reset to the top first to
	// retrigger lazy renderers.
	js := `window.scrollTo(0, document.body.scrollHeight)`
	if n%2 == 0 {
		js = `(function(){ window.scrollTo(0, 0); window.scrollTo(0, document.body.scrollHeight); })()`
	}
	if err := chromedp.Run(d.tab, chromedp.Evaluate(js, nil)); err != nil {
		return fmt.Errorf("final pass %d: %w", n, err)
	}

	var triggered bool
	return chromedp.Run(d.tab, chromedp.Evaluate(expansionStrategies[1].js, &triggered))
}

const dismissOverlayJS = `
	(function() {
		var dialog = document.querySelector('div[role="dialog"]');
		if (!dialog) return false;
		var close = dialog.querySelector('button[aria-label*="Close"], button[aria-label*="close"]');
		if (close) { close.click(); return true; }
		return false;
	})()
`

func (d *chromeDriver) DismissOverlay(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var dismissed bool
	if err := chromedp.Run(d.tab, chromedp.Evaluate(dismissOverlayJS, &dismissed)); err != nil {
		return err
	}
	if dismissed {
		d.logger.Debug("[driver] dismissed leftover overlay")
	}
	return nil
}
