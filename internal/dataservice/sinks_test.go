package dataservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/gridform/internal/schema"
)

func TestLoadPage_DistributesTargets(t *testing.T) {
	transport := &fakeStructured{env: Envelope{
		"ErrorCode": "",
		"rsData01":  `[{"CD":"A"},{"CD":"B"}]`,
		"rsData02":  `{"TOTAL":2}`,
		"rsData03":  "hello",
	}}
	busy := &recordingBusy{}
	svc := NewService(Capabilities{Structured: transport, Busy: busy})

	var grid []any
	var header any
	var total any
	var skipped bool

	ok := svc.LoadPage(context.Background(), PageQuery{
		Path:   "/rpc/bpa100n",
		Params: []any{" A01 "},
		Targets: []Target{
			{Sink: GridSink(func(rows []any) { grid = rows }), DataName: "rsData01"},
			{Sink: DataSink(func(d any) { header = d }), DataName: "rsData03"},
			{
				Sink:     ValueSink(func(v any) { total = v }),
				DataName: "rsData02",
				Transform: func(data any, _ Envelope) any {
					return data.(map[string]any)["TOTAL"]
				},
			},
			{Sink: DataSink(func(any) { skipped = true }), DataName: "rsData09"},
		},
	})

	require.True(t, ok)
	require.Len(t, transport.calls, 1)
	assert.Equal(t, DefaultQueryFunc, transport.calls[0].FuncName)
	assert.Equal(t, []any{"A01"}, transport.calls[0].Params)

	assert.Len(t, grid, 2)
	assert.Equal(t, "hello", header, "non-JSON payloads are delivered raw")
	assert.Equal(t, float64(2), total)
	assert.False(t, skipped, "missing payloads are not delivered")
	assert.False(t, busy.visible)
}

func TestLoadPage_GridWrapsObject(t *testing.T) {
	svc := NewService(Capabilities{Structured: &fakeStructured{env: Envelope{
		"ErrorCode": "", "rsData01": `{"CD":"A"}`,
	}}})

	var grid []any
	ok := svc.LoadPage(context.Background(), PageQuery{
		Path:    "/p",
		Targets: []Target{{Sink: GridSink(func(rows []any) { grid = rows }), DataName: "rsData01"}},
	})
	require.True(t, ok)
	assert.Equal(t, []any{map[string]any{"CD": "A"}}, grid)
}

func TestLoadPage_Failures(t *testing.T) {
	t.Run("missing path", func(t *testing.T) {
		svc := NewService(Capabilities{Structured: &fakeStructured{}})
		assert.False(t, svc.LoadPage(context.Background(), PageQuery{}))
	})

	t.Run("no transport", func(t *testing.T) {
		svc := NewService(Capabilities{})
		assert.False(t, svc.LoadPage(context.Background(), PageQuery{Path: "/p"}))
	})

	t.Run("transport error", func(t *testing.T) {
		busy := &recordingBusy{}
		diag := &recordingDiag{}
		svc := NewService(Capabilities{Structured: &fakeStructured{err: errNetwork}, Busy: busy, Diagnostics: diag})
		assert.False(t, svc.LoadPage(context.Background(), PageQuery{Path: "/p"}))
		assert.Equal(t, 1, busy.hides)
		require.Len(t, diag.messages, 1)
		assert.Contains(t, diag.messages[0], "connection refused")
	})

	t.Run("business error", func(t *testing.T) {
		diag := &recordingDiag{}
		delivered := false
		svc := NewService(Capabilities{
			Structured:  &fakeStructured{env: Envelope{"ErrorCode": "E9", "rsData01": "[]"}},
			Diagnostics: diag,
		})
		ok := svc.LoadPage(context.Background(), PageQuery{
			Path:    "/p",
			Targets: []Target{{Sink: DataSink(func(any) { delivered = true }), DataName: "rsData01"}},
		})
		assert.False(t, ok)
		assert.False(t, delivered)
		require.Len(t, diag.reports, 1)
		assert.Equal(t, "E9", diag.reports[0].code)
	})
}

func TestSink_EmptyReceiver(t *testing.T) {
	var s Sink
	assert.Error(t, s.deliver("x"))
	assert.Error(t, GridSink(nil).deliver([]any{}))
	assert.Equal(t, SinkValue, ValueSink(func(any) {}).Kind())
	assert.Equal(t, "grid", SinkGrid.String())
}

// ============================================================================
// Combo Tests
// ============================================================================

func TestLoadCombos(t *testing.T) {
	info := `[{"CODE":"10","NAME":"Seoul"},{"CODE":"20","NAME":"Busan"}]■[{"value":"Y","text":"Yes"}]■oops`
	transport := &fakeStructured{env: Envelope{"ErrorCode": "", "gComboInfoc": info}}
	svc := NewService(Capabilities{Structured: transport})

	options := svc.LoadCombos(context.Background(), ComboQuery{
		Path:    "/rpc/combo",
		DivCode: "D1",
		ERPDB:   "ERP",
		Codes:   []any{"CITY", "YN", "BAD"},
	})

	require.Len(t, transport.calls, 1)
	call := transport.calls[0]
	assert.Equal(t, ComboFunc, call.FuncName)
	assert.Equal(t, []any{"D1", "ERP"}, call.Params)
	assert.Equal(t, []any{"CITY", "YN", "BAD"}, call.Payload)

	require.Len(t, options, 3)
	cities, ok := options.Options(0)
	require.True(t, ok)
	assert.Equal(t, []schema.Option{{Value: "10", Text: "Seoul"}, {Value: "20", Text: "Busan"}}, cities)

	yn, ok := options.Options(1)
	require.True(t, ok)
	assert.Equal(t, "Yes", yn[0].Text)

	_, ok = options.Options(2)
	assert.False(t, ok, "malformed segments stay unresolved")
}

func TestLoadCombos_FeedsExpander(t *testing.T) {
	svc := NewService(Capabilities{Structured: &fakeStructured{env: Envelope{
		"ErrorCode": "", "gComboInfoc": `[{"CODE":"Y","NAME":"Use"}]`,
	}}})
	options := svc.LoadCombos(context.Background(), ComboQuery{Path: "/c", Codes: []any{"YN"}})

	descs := schema.ApplyColTypes([]schema.Declaration{
		{Field: "YN_USE", Combo: schema.ComboIndex(0)},
	}, options)
	require.Len(t, descs[0].Items, 1)
	assert.Equal(t, "Use", descs[0].Items[0].Text)
}

func TestLoadCombos_Failures(t *testing.T) {
	diag := &recordingDiag{}
	svc := NewService(Capabilities{Structured: &fakeStructured{err: errNetwork}, Diagnostics: diag})
	assert.Nil(t, svc.LoadCombos(context.Background(), ComboQuery{Path: "/c", Codes: []any{"A"}}))
	require.Len(t, diag.reports, 1)
	assert.Equal(t, "ERROR", diag.reports[0].code)

	svc = NewService(Capabilities{Structured: &fakeStructured{env: Envelope{"ErrorCode": "C1"}}})
	assert.Nil(t, svc.LoadCombos(context.Background(), ComboQuery{Path: "/c", Codes: []any{"A"}}))

	assert.Nil(t, svc.LoadCombos(context.Background(), ComboQuery{Path: "/c"}), "no codes, no call")
}

func TestLoadCombos_BusySignal(t *testing.T) {
	tests := []struct {
		name      string
		transport *fakeStructured
	}{
		{"success", &fakeStructured{env: Envelope{"ErrorCode": "", "gComboInfoc": `[]`}}},
		{"transport error", &fakeStructured{err: errNetwork}},
		{"business error", &fakeStructured{env: Envelope{"ErrorCode": "C1"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			busy := &recordingBusy{}
			svc := NewService(Capabilities{Structured: tt.transport, Busy: busy})
			svc.LoadCombos(context.Background(), ComboQuery{Path: "/c", Codes: []any{"A"}})

			assert.Len(t, busy.shows, 1)
			assert.Equal(t, 1, busy.hides)
			assert.False(t, busy.visible)
		})
	}

	busy := &recordingBusy{}
	svc := NewService(Capabilities{Structured: &fakeStructured{}, Busy: busy})
	svc.LoadCombos(context.Background(), ComboQuery{Path: "/c"})
	assert.Empty(t, busy.shows, "no codes, no busy signal")
}
