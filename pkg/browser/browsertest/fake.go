// Package browsertest provides a scriptable in-memory page and driver for
// testing code built on package browser.
package browsertest

import (
	"sync"

	"github.com/entrhq/chatrelay/pkg/browser"
)

// OpKind names an operation performed against the fake page.
type OpKind string

const (
	OpGoto      OpKind = "goto"
	OpQuery     OpKind = "query"
	OpQueryAll  OpKind = "query_all"
	OpClick     OpKind = "click"
	OpFill      OpKind = "fill"
	OpInnerText OpKind = "inner_text"
	OpInnerHTML OpKind = "inner_html"
	OpClose     OpKind = "close"
)

const blankURL = "about:blank"

// Op is one recorded operation.
type Op struct {
	Kind     OpKind
	Selector string
	Value    string
}

// Element is a fake document element.
type Element struct {
	Text     string
	HTML     string
	ClickErr error
	FillErr  error

	// OnClick runs after a successful click, e.g. to append a reply
	OnClick func()

	page     *Page
	selector string
	filled   string
	clicks   int
}

var _ browser.Element = (*Element)(nil)

func (e *Element) Click() error {
	e.page.record(Op{Kind: OpClick, Selector: e.selector})
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.page.mu.Lock()
	e.clicks++
	onClick := e.OnClick
	e.page.mu.Unlock()
	if onClick != nil {
		onClick()
	}
	return nil
}

func (e *Element) Fill(text string) error {
	e.page.record(Op{Kind: OpFill, Selector: e.selector, Value: text})
	if e.FillErr != nil {
		return e.FillErr
	}
	e.page.mu.Lock()
	e.filled = text
	e.page.mu.Unlock()
	return nil
}

func (e *Element) InnerText() (string, error) {
	e.page.record(Op{Kind: OpInnerText, Selector: e.selector})
	return e.Text, nil
}

func (e *Element) InnerHTML() (string, error) {
	e.page.record(Op{Kind: OpInnerHTML, Selector: e.selector})
	return e.HTML, nil
}

// Filled returns the last text filled into the element.
func (e *Element) Filled() string {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return e.filled
}

// Clicks returns how many times the element was clicked successfully.
func (e *Element) Clicks() int {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return e.clicks
}

// Page is a fake browser.Page whose document is a map from selector to elements.
type Page struct {
	// OnOp observes every operation as it happens
	OnOp    func(Op)
	GotoErr error

	mu       sync.Mutex
	url      string
	elements map[string][]*Element
	vanish   map[string]int
	errs     map[string][]error
	ops      []Op
	closed   bool
}

var _ browser.Page = (*Page)(nil)

// NewPage returns an empty page.
func NewPage() *Page {
	return &Page{
		url:      blankURL,
		elements: make(map[string][]*Element),
		vanish:   make(map[string]int),
		errs:     make(map[string][]error),
	}
}

// Add appends an element matching selector and returns it.
func (p *Page) Add(selector string, el *Element) *Element {
	if el == nil {
		el = &Element{}
	}
	el.page = p
	el.selector = selector

	p.mu.Lock()
	defer p.mu.Unlock()
	p.elements[selector] = append(p.elements[selector], el)
	return el
}

// Remove deletes every element matching selector.
func (p *Page) Remove(selector string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.elements, selector)
	delete(p.vanish, selector)
}

// RemoveAfter makes selector match for the next polls queries and then
// disappear, like a streaming marker.
func (p *Page) RemoveAfter(selector string, polls int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vanish[selector] = polls
}

// FailNext queues errors returned by the next queries for selector.
func (p *Page) FailNext(selector string, errs ...error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[selector] = append(p.errs[selector], errs...)
}

// Ops returns a copy of the recorded operations.
func (p *Page) Ops() []Op {
	p.mu.Lock()
	defer p.mu.Unlock()
	ops := make([]Op, len(p.ops))
	copy(ops, p.ops)
	return ops
}

// Count returns how many recorded operations have the given kind and selector.
func (p *Page) Count(kind OpKind, selector string) int {
	n := 0
	for _, op := range p.Ops() {
		if op.Kind == kind && op.Selector == selector {
			n++
		}
	}
	return n
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) record(op Op) {
	p.mu.Lock()
	p.ops = append(p.ops, op)
	hook := p.OnOp
	p.mu.Unlock()
	if hook != nil {
		hook(op)
	}
}

func (p *Page) Goto(url string) error {
	p.record(Op{Kind: OpGoto, Value: url})
	if p.GotoErr != nil {
		return p.GotoErr
	}
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
	return nil
}

// popErr returns the next queued error for selector. Callers hold p.mu.
func (p *Page) popErr(selector string) error {
	queue := p.errs[selector]
	if len(queue) == 0 {
		return nil
	}
	p.errs[selector] = queue[1:]
	return queue[0]
}

// visible applies RemoveAfter accounting. Callers hold p.mu.
func (p *Page) visible(selector string) []*Element {
	if remaining, ok := p.vanish[selector]; ok {
		if remaining <= 0 {
			delete(p.elements, selector)
			delete(p.vanish, selector)
			return nil
		}
		p.vanish[selector] = remaining - 1
	}
	return p.elements[selector]
}

func (p *Page) QuerySelector(selector string) (browser.Element, error) {
	p.record(Op{Kind: OpQuery, Selector: selector})

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.popErr(selector); err != nil {
		return nil, err
	}
	els := p.visible(selector)
	if len(els) == 0 {
		return nil, nil
	}
	return els[0], nil
}

func (p *Page) QuerySelectorAll(selector string) ([]browser.Element, error) {
	p.record(Op{Kind: OpQueryAll, Selector: selector})

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.popErr(selector); err != nil {
		return nil, err
	}
	els := p.visible(selector)
	out := make([]browser.Element, 0, len(els))
	for _, el := range els {
		out = append(out, el)
	}
	return out, nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Close() error {
	p.record(Op{Kind: OpClose})
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Driver is a fake browser.Driver that hands out Page.
type Driver struct {
	Page      *Page
	LaunchErr error

	mu       sync.Mutex
	launched []browser.LaunchOptions
	closed   bool
}

var _ browser.Driver = (*Driver)(nil)

// NewDriver returns a driver serving page, or a fresh page when nil.
func NewDriver(page *Page) *Driver {
	if page == nil {
		page = NewPage()
	}
	return &Driver{Page: page}
}

func (d *Driver) Name() string {
	return "fake"
}

func (d *Driver) Launch(opts browser.LaunchOptions) (browser.Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.launched = append(d.launched, opts)
	if d.LaunchErr != nil {
		return nil, d.LaunchErr
	}
	return d.Page, nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Launches returns the options of every Launch call.
func (d *Driver) Launches() []browser.LaunchOptions {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]browser.LaunchOptions, len(d.launched))
	copy(out, d.launched)
	return out
}

// Closed reports whether Close was called.
func (d *Driver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
