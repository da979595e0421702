package api

import (
	"context"
	"errors"

	"bakedtools/pkg/flowptr"
	"bakedtools/pkg/props"
	"bakedtools/pkg/sheets"
	"bakedtools/pkg/workflow"
)

type mockSyncer struct {
	SendFunc func(req flowptr.SyncRequest) (*flowptr.SyncResponse, error)
	Calls    []flowptr.SyncRequest
}

func (m *mockSyncer) Send(_ context.Context, req flowptr.SyncRequest) (*flowptr.SyncResponse, error) {
	m.Calls = append(m.Calls, req)
	if m.SendFunc == nil {
		return &flowptr.SyncResponse{Status: flowptr.StatusSuccess}, nil
	}
	return m.SendFunc(req)
}

type failingProps struct{}

func (failingProps) Get(string) (string, bool, error) { return "", false, errors.New("disk gone") }
func (failingProps) Set(string, string) error         { return errors.New("disk gone") }

type fixture struct {
	workbook *sheets.MemoryWorkbook
	sheet    *sheets.MemorySheet
	props    *props.MemoryStore
	workflow *workflow.Store
	syncer   *mockSyncer
	tools    *Tools
}

func newFixture() *fixture {
	f := &fixture{
		workbook: sheets.NewMemoryWorkbook("ss-123", "Notes Back"),
		props:    props.NewMemoryStore(),
		syncer:   &mockSyncer{},
	}
	f.sheet = f.workbook.AddSheet("Notes Back", [][]string{
		{"Version Code", "Client Version", "Client Notes", "Version Status", "Body", "Links"},
		{"HAL_1_1_v1", "HAL_1_2_c1", "two", ""},
		{"HAL_1_2_v1", "HAL_1_1_c1", "one", ""},
		{"HAL_1_3_v1", "", "", "Client Note"},
	})
	f.sheet.Set(sheets.Cell{Row: 2, Col: 5}, sheets.MemoryCell{Formula: "=C2"})
	f.sheet.Set(sheets.Cell{Row: 2, Col: 6}, sheets.MemoryCell{Formula: "=A2&$B$1"})
	f.workflow = workflow.NewStore(f.props)
	f.tools = NewTools(f.workbook, f.workflow, StaticIdentity("coord@example.com"), f.syncer)
	return f
}

func (f *fixture) setState(stage workflow.Stage, sent bool) {
	if err := f.workflow.Save(workflow.Snapshot{Stage: stage, Sent: sent}); err != nil {
		panic(err)
	}
}

func (f *fixture) state() workflow.Snapshot {
	snap, err := f.workflow.Load()
	if err != nil {
		panic(err)
	}
	return snap
}
