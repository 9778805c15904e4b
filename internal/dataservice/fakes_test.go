package dataservice

import (
	"context"
	"sync"
)

type fakeStructured struct {
	mu    sync.Mutex
	calls []Call
	env   Envelope
	err   error
	panic bool
}

func (f *fakeStructured) CallStructured(_ context.Context, call Call) (Envelope, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	if f.panic {
		panic("transport exploded")
	}
	return f.env, f.err
}

type legacyCall struct {
	path    string
	params  []any
	payload []any
}

type fakeLegacy struct {
	calls []legacyCall
	env   Envelope
	err   error
}

func (f *fakeLegacy) CallLegacy(_ context.Context, path string, params, payload []any) (Envelope, error) {
	f.calls = append(f.calls, legacyCall{path: path, params: params, payload: payload})
	return f.env, f.err
}

type recordingBusy struct {
	shows   []string
	hides   int
	visible bool
}

func (b *recordingBusy) Show(msg string) {
	b.shows = append(b.shows, msg)
	b.visible = true
}

func (b *recordingBusy) Hide() {
	b.hides++
	b.visible = false
}

type report struct {
	code string
	env  Envelope
}

type recordingDiag struct {
	reports  []report
	messages []string
}

func (d *recordingDiag) Report(_ context.Context, env Envelope, code string) {
	d.reports = append(d.reports, report{code: code, env: env})
}

func (d *recordingDiag) Message(_ context.Context, msg string) {
	d.messages = append(d.messages, msg)
}

type recordingNotifier struct {
	alerts []string
	err    error
}

func (n *recordingNotifier) Alert(_ context.Context, msg string) error {
	n.alerts = append(n.alerts, msg)
	return n.err
}
