package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lexdesk/internal/client"
	"lexdesk/internal/config"
	"lexdesk/internal/state"
	"lexdesk/internal/store"
	"lexdesk/internal/types"
)

type memGateway[T types.Entity] struct {
	items       []T
	lastFilters map[string]string
	lastQuery   string
	created     []T
	deleteErr   string
}

func (g *memGateway[T]) List(_ context.Context, filters map[string]string) client.Envelope[[]T] {
	g.lastFilters = filters
	out := []T{}
	for _, item := range g.items {
		if types.Matches(item, "", filters) {
			out = append(out, item)
		}
	}
	return client.Envelope[[]T]{Success: true, Data: out, StatusCode: 200}
}

func (g *memGateway[T]) Get(_ context.Context, id string) client.Envelope[T] {
	for _, item := range g.items {
		if item.EntityID() == id {
			return client.Envelope[T]{Success: true, Data: item, StatusCode: 200}
		}
	}
	return client.Envelope[T]{Message: "not found", StatusCode: 404}
}

func (g *memGateway[T]) Create(_ context.Context, draft T) client.Envelope[T] {
	g.created = append(g.created, draft)
	g.items = append(g.items, draft)
	return client.Envelope[T]{Success: true, Data: draft, StatusCode: 201}
}

func (g *memGateway[T]) Update(_ context.Context, _ string, patch T) client.Envelope[T] {
	return client.Envelope[T]{Success: true, Data: patch, StatusCode: 200}
}

func (g *memGateway[T]) Delete(_ context.Context, id string) client.Envelope[string] {
	if g.deleteErr != "" {
		return client.Envelope[string]{Message: g.deleteErr, StatusCode: 409}
	}
	return client.Envelope[string]{Success: true, Data: id, StatusCode: 200}
}

func (g *memGateway[T]) Search(_ context.Context, query string) client.Envelope[[]T] {
	g.lastQuery = query
	out := []T{}
	for _, item := range g.items {
		if types.MatchesTerm(item, query) {
			out = append(out, item)
		}
	}
	return client.Envelope[[]T]{Success: true, Data: out, StatusCode: 200}
}

type fakeCommandClient struct {
	ensureServerCalls int
	ensureCompatible  []bool
	cases             *memGateway[*types.Case]
	clients           *memGateway[*types.Client]
	documents         *memGateway[*types.Document]
	tasks             *memGateway[*types.Task]

	uploadReq     client.UploadRequest
	uploadBody    string
	downloadBody  string
	exportBody    string
	exportFilters map[string]string
	meetingReq    types.MeetingRequest
	meetingStatus client.MeetingStatus

	runUICalls   int
	runUIProfile types.Profile
}

func newFakeClient() *fakeCommandClient {
	return &fakeCommandClient{
		cases: &memGateway[*types.Case]{items: []*types.Case{
			{ID: "case_1", CaseNumber: "24-001", Title: "Estate of Ruiz", ClientID: "client_1", ClientName: "Dana Ruiz", AttorneyEmail: "counsel@firm.test", Status: types.CaseStatusActive, Priority: types.PriorityHigh},
			{ID: "case_2", Title: "Acme v. Beta", ClientID: "client_2", ClientName: "Acme", Status: types.CaseStatusClosed, Priority: types.PriorityLow},
		}},
		clients: &memGateway[*types.Client]{items: []*types.Client{
			{ID: "client_1", Name: "Dana Ruiz", Email: "dana@example.com", Status: types.ClientStatusActive},
		}},
		documents: &memGateway[*types.Document]{},
		tasks:     &memGateway[*types.Task]{},
	}
}

func (f *fakeCommandClient) EnsureServer(context.Context) error {
	f.ensureServerCalls++
	return nil
}

func (f *fakeCommandClient) EnsureServerCompatible(_ context.Context, restart bool) error {
	f.ensureCompatible = append(f.ensureCompatible, restart)
	return nil
}

func (f *fakeCommandClient) Health(context.Context) (*client.HealthResponse, error) {
	return &client.HealthResponse{OK: true}, nil
}

func (f *fakeCommandClient) ShutdownServer(context.Context) error { return nil }

func (f *fakeCommandClient) Gateways() state.Gateways {
	return state.Gateways{Cases: f.cases, Clients: f.clients, Documents: f.documents, Tasks: f.tasks}
}

func (f *fakeCommandClient) UploadDocument(_ context.Context, req client.UploadRequest) client.Envelope[*types.Document] {
	data, _ := io.ReadAll(req.Content)
	f.uploadReq = req
	f.uploadBody = string(data)
	return client.Envelope[*types.Document]{Success: true, Data: &types.Document{ID: "doc_1", FileName: req.FileName, CaseID: req.CaseID}, StatusCode: 201}
}

func (f *fakeCommandClient) DownloadDocument(_ context.Context, id string, w io.Writer) client.Envelope[client.DownloadInfo] {
	if id != "doc_1" {
		return client.Envelope[client.DownloadInfo]{Message: "document not found", StatusCode: 404}
	}
	n, _ := io.WriteString(w, f.downloadBody)
	return client.Envelope[client.DownloadInfo]{Success: true, Data: client.DownloadInfo{FileName: "will.pdf", Bytes: int64(n)}, StatusCode: 200}
}

func (f *fakeCommandClient) ExportCases(_ context.Context, filters map[string]string, w io.Writer) client.Envelope[int64] {
	f.exportFilters = filters
	n, _ := io.WriteString(w, f.exportBody)
	return client.Envelope[int64]{Success: true, Data: int64(n), StatusCode: 200}
}

func (f *fakeCommandClient) CreateMeeting(_ context.Context, req types.MeetingRequest) client.Envelope[types.Meeting] {
	f.meetingReq = req
	return client.Envelope[types.Meeting]{Success: true, Data: types.Meeting{EventID: "evt_1", MeetingLink: "https://meet.google.com/abc"}, StatusCode: 201}
}

func (f *fakeCommandClient) MeetingStatus(context.Context) client.Envelope[client.MeetingStatus] {
	return client.Envelope[client.MeetingStatus]{Success: true, Data: f.meetingStatus, StatusCode: 200}
}

func (f *fakeCommandClient) RunUI(profile types.Profile, _ time.Duration) error {
	f.runUICalls++
	f.runUIProfile = profile
	return nil
}

func fixedFactory(client commandClient) clientFactory {
	return func() (commandClient, error) {
		return client, nil
	}
}

func testWiring(fake *fakeCommandClient, stdout *bytes.Buffer) commandWiring {
	return commandWiring{
		stdout:     stdout,
		stderr:     &bytes.Buffer{},
		stdin:      strings.NewReader(""),
		newClient:  fixedFactory(fake),
		loadConfig: func() (config.CoreConfig, error) { return config.DefaultCoreConfig(), nil },
	}
}

func TestServeCommandKillFlag(t *testing.T) {
	var calls []string
	cmd := NewServeCommand(
		&bytes.Buffer{},
		func(background bool) error {
			calls = append(calls, "run")
			if background {
				calls = append(calls, "background")
			}
			return nil
		},
		func() error {
			calls = append(calls, "kill")
			return nil
		},
	)

	if err := cmd.Run([]string{"--kill"}); err != nil {
		t.Fatalf("expected kill run to succeed, got err=%v", err)
	}
	if strings.Join(calls, ",") != "kill" {
		t.Fatalf("unexpected call order: %v", calls)
	}

	calls = nil
	if err := cmd.Run([]string{"--force", "--background"}); err != nil {
		t.Fatalf("expected forced run to succeed, got err=%v", err)
	}
	if strings.Join(calls, ",") != "kill,run,background" {
		t.Fatalf("unexpected call order: %v", calls)
	}
}

func TestBuildCommandsCoversUsage(t *testing.T) {
	commands := buildCommands(testWiring(newFakeClient(), &bytes.Buffer{}))
	for _, name := range []string{"serve", "config", "cases", "clients", "documents", "tasks", "upload", "download", "export", "meet", "calendar", "store", "ui"} {
		if _, ok := commands[name]; !ok {
			t.Fatalf("missing command %q", name)
		}
		if !strings.Contains(usageText, "  "+name+" ") {
			t.Fatalf("usage does not mention %q", name)
		}
	}
}

func TestRunExitCodes(t *testing.T) {
	stdout := &bytes.Buffer{}
	wiring := testWiring(newFakeClient(), stdout)
	wiring.version = "1.2.3"
	stderr := wiring.stderr.(*bytes.Buffer)

	if code := run([]string{"version"}, wiring); code != 0 || strings.TrimSpace(stdout.String()) != "1.2.3" {
		t.Fatalf("version: code=%d out=%q", code, stdout.String())
	}
	if code := run([]string{"bogus"}, wiring); code != 2 || !strings.Contains(stderr.String(), "unknown command: bogus") {
		t.Fatalf("unknown: code=%d err=%q", code, stderr.String())
	}
	stderr.Reset()
	if code := run([]string{"cases", "get"}, wiring); code != 1 || !strings.Contains(stderr.String(), "cases error: id is required") {
		t.Fatalf("missing id: code=%d err=%q", code, stderr.String())
	}
}

func TestCasesListPrintsTable(t *testing.T) {
	stdout := &bytes.Buffer{}
	fake := newFakeClient()
	cmd := newCaseCommand(testWiring(fake, stdout))

	if err := cmd.Run([]string{"list", "--filter", "status=Active"}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if fake.ensureServerCalls != 1 {
		t.Fatalf("expected ensure server once, got %d", fake.ensureServerCalls)
	}
	if fake.cases.lastFilters["status"] != "Active" {
		t.Fatalf("filter not sent: %#v", fake.cases.lastFilters)
	}
	out := stdout.String()
	if !strings.Contains(out, "NUMBER") || !strings.Contains(out, "Estate of Ruiz") {
		t.Fatalf("unexpected output %q", out)
	}
	if strings.Contains(out, "Acme v. Beta") {
		t.Fatalf("closed case should be filtered out: %q", out)
	}
}

func TestCasesSearchJSON(t *testing.T) {
	stdout := &bytes.Buffer{}
	fake := newFakeClient()
	cmd := newCaseCommand(testWiring(fake, stdout))

	if err := cmd.Run([]string{"search", "--json", "acme"}); err != nil {
		t.Fatalf("search: %v", err)
	}
	if fake.cases.lastQuery != "acme" {
		t.Fatalf("unexpected query %q", fake.cases.lastQuery)
	}
	var cases []*types.Case
	if err := json.Unmarshal(stdout.Bytes(), &cases); err != nil {
		t.Fatalf("decode: %v raw=%q", err, stdout.String())
	}
	if len(cases) != 1 || cases[0].ID != "case_2" {
		t.Fatalf("unexpected result %#v", cases)
	}
}

func TestClientsCreateValidatesBeforeSending(t *testing.T) {
	fake := newFakeClient()
	cmd := newClientCommand(testWiring(fake, &bytes.Buffer{}))

	err := cmd.Run([]string{"create", "--data", `{"name":"Bad","email":"not-an-email"}`})
	var verr *types.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(fake.clients.created) != 0 {
		t.Fatalf("invalid draft should not reach the server")
	}
}

func TestClientsCreateFromFile(t *testing.T) {
	stdout := &bytes.Buffer{}
	fake := newFakeClient()
	cmd := newClientCommand(testWiring(fake, stdout))
	path := filepath.Join(t.TempDir(), "client.json")
	if err := os.WriteFile(path, []byte(`{"id":"client_9","name":"Lee Park","email":"lee@example.com"}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := cmd.Run([]string{"create", "--file", path}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(fake.clients.created) != 1 || fake.clients.created[0].Email != "lee@example.com" {
		t.Fatalf("unexpected created %#v", fake.clients.created)
	}
	if !strings.Contains(stdout.String(), "Lee Park") {
		t.Fatalf("unexpected output %q", stdout.String())
	}
}

func TestCasesDeleteSurfacesConflict(t *testing.T) {
	fake := newFakeClient()
	fake.cases.deleteErr = "case has 2 document(s); delete them first"
	cmd := newCaseCommand(testWiring(fake, &bytes.Buffer{}))

	err := cmd.Run([]string{"delete", "case_1"})
	if err == nil || !strings.Contains(err.Error(), "delete them first") {
		t.Fatalf("expected conflict message, got %v", err)
	}
}

func TestEntityCommandArguments(t *testing.T) {
	cmd := newTaskCommand(testWiring(newFakeClient(), &bytes.Buffer{}))
	cases := []struct {
		args []string
		want string
	}{
		{nil, "requires a subcommand"},
		{[]string{"archive"}, "unknown tasks subcommand"},
		{[]string{"get"}, "id is required"},
		{[]string{"search"}, "search query is required"},
		{[]string{"create"}, "record is required"},
		{[]string{"list", "--filter", "status"}, "invalid filter"},
	}
	for _, tc := range cases {
		err := cmd.Run(tc.args)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("args %v: expected %q, got %v", tc.args, tc.want, err)
		}
	}
}

func TestUploadCommandStreamsFile(t *testing.T) {
	stdout := &bytes.Buffer{}
	fake := newFakeClient()
	path := filepath.Join(t.TempDir(), "complaint.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 body"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cmd := NewUploadCommand(stdout, &bytes.Buffer{}, fixedFactory(fake))

	if err := cmd.Run([]string{"--case", "case_1", "--category", "pleading", path}); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if fake.uploadReq.FileName != "complaint.pdf" || fake.uploadReq.CaseID != "case_1" || fake.uploadReq.Category != "pleading" {
		t.Fatalf("unexpected request %#v", fake.uploadReq)
	}
	if fake.uploadBody != "%PDF-1.4 body" {
		t.Fatalf("unexpected body %q", fake.uploadBody)
	}
	if stdout.String() != "doc_1\n" {
		t.Fatalf("unexpected stdout %q", stdout.String())
	}
	if err := cmd.Run([]string{path}); err == nil {
		t.Fatalf("expected --case to be required")
	}
}

func TestDownloadCommandWritesFile(t *testing.T) {
	fake := newFakeClient()
	fake.downloadBody = "will contents"
	target := filepath.Join(t.TempDir(), "copy.pdf")
	cmd := NewDownloadCommand(&bytes.Buffer{}, &bytes.Buffer{}, fixedFactory(fake))

	if err := cmd.Run([]string{"-o", target, "doc_1"}); err != nil {
		t.Fatalf("download: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil || string(data) != "will contents" {
		t.Fatalf("unexpected file %q err=%v", data, err)
	}

	stdout := &bytes.Buffer{}
	cmd = NewDownloadCommand(stdout, &bytes.Buffer{}, fixedFactory(fake))
	if err := cmd.Run([]string{"-o", "-", "doc_1"}); err != nil {
		t.Fatalf("download to stdout: %v", err)
	}
	if stdout.String() != "will contents" {
		t.Fatalf("unexpected stdout %q", stdout.String())
	}

	missing := filepath.Join(t.TempDir(), "missing.pdf")
	if err := cmd.Run([]string{"-o", missing, "doc_404"}); err == nil {
		t.Fatalf("expected not found error")
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Fatalf("failed download should leave no file")
	}
}

func TestExportCommandWritesReport(t *testing.T) {
	fake := newFakeClient()
	fake.exportBody = "PK-xlsx"
	stdout := &bytes.Buffer{}
	cmd := NewExportCommand(stdout, &bytes.Buffer{}, fixedFactory(fake))
	target := filepath.Join(t.TempDir(), "cases.xlsx")

	if err := cmd.Run([]string{"-o", target, "--filter", "status=Active"}); err != nil {
		t.Fatalf("export: %v", err)
	}
	if fake.exportFilters["status"] != "Active" {
		t.Fatalf("unexpected filters %#v", fake.exportFilters)
	}
	data, err := os.ReadFile(target)
	if err != nil || string(data) != "PK-xlsx" {
		t.Fatalf("unexpected file %q err=%v", data, err)
	}
	if !strings.Contains(stdout.String(), "(7 bytes)") {
		t.Fatalf("unexpected stdout %q", stdout.String())
	}
}

func TestMeetCommandFillsFromCase(t *testing.T) {
	fake := newFakeClient()
	stdout := &bytes.Buffer{}
	var copied string
	cmd := NewMeetCommand(stdout, &bytes.Buffer{}, fixedFactory(fake))
	cmd.copyLink = func(link string) error { copied = link; return nil }

	err := cmd.Run([]string{"--case", "case_1", "--date", "2026-11-03", "--time", "14:30", "--copy"})
	if err != nil {
		t.Fatalf("meet: %v", err)
	}
	req := fake.meetingReq
	if req.CaseID != "case_1" || req.ClientEmail != "dana@example.com" || req.ClientName != "Dana Ruiz" {
		t.Fatalf("client fields not filled: %#v", req)
	}
	if req.AttorneyEmail != "counsel@firm.test" || req.CaseTitle != "Estate of Ruiz" {
		t.Fatalf("case fields not filled: %#v", req)
	}
	if copied != "https://meet.google.com/abc" {
		t.Fatalf("unexpected copied link %q", copied)
	}
	if !strings.Contains(stdout.String(), "evt_1") {
		t.Fatalf("unexpected stdout %q", stdout.String())
	}
}

func TestMeetCommandValidatesLocally(t *testing.T) {
	fake := newFakeClient()
	cmd := NewMeetCommand(&bytes.Buffer{}, &bytes.Buffer{}, fixedFactory(fake))
	err := cmd.Run([]string{"--client-name", "Dana", "--client-email", "dana@example.com", "--attorney-email", "counsel@firm.test", "--date", "11/03/2026", "--time", "14:30"})
	var verr *types.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if fake.meetingReq.ClientName != "" {
		t.Fatalf("invalid request should not reach the server")
	}
}

func TestMeetCommandStatus(t *testing.T) {
	fake := newFakeClient()
	fake.meetingStatus = client.MeetingStatus{Available: false, Status: "calendar disabled"}
	stdout := &bytes.Buffer{}
	cmd := NewMeetCommand(stdout, &bytes.Buffer{}, fixedFactory(fake))
	if err := cmd.Run([]string{"--status"}); err != nil {
		t.Fatalf("status: %v", err)
	}
	if stdout.String() != "unavailable: calendar disabled\n" {
		t.Fatalf("unexpected stdout %q", stdout.String())
	}
}

func TestConfigCommandFormats(t *testing.T) {
	cases := []struct {
		format string
		want   string
	}{
		{"json", `"backend": "bbolt"`},
		{"toml", "[storage]"},
		{"yaml", "backend: bbolt"},
	}
	for _, tc := range cases {
		stdout := &bytes.Buffer{}
		cmd := NewConfigCommand(stdout, &bytes.Buffer{}, nil)
		if err := cmd.Run([]string{"--default", "--format", tc.format}); err != nil {
			t.Fatalf("%s: %v", tc.format, err)
		}
		if !strings.Contains(stdout.String(), tc.want) {
			t.Fatalf("%s output missing %q: %s", tc.format, tc.want, stdout.String())
		}
	}
	if err := NewConfigCommand(&bytes.Buffer{}, &bytes.Buffer{}, nil).Run([]string{"--format", "xml"}); err == nil {
		t.Fatalf("expected invalid format error")
	}
}

func TestUICommandEnsuresCompatibleAndRuns(t *testing.T) {
	fake := newFakeClient()
	logConfigured := 0
	cmd := NewUICommand(
		&bytes.Buffer{},
		fixedFactory(fake),
		func() (config.CoreConfig, error) { return config.DefaultCoreConfig(), nil },
		func() { logConfigured++ },
	)

	if err := cmd.Run([]string{"--restart-server", "--role", "legal_assistant"}); err != nil {
		t.Fatalf("ui: %v", err)
	}
	if logConfigured != 1 {
		t.Fatalf("expected ui logging to be configured once")
	}
	if len(fake.ensureCompatible) != 1 || !fake.ensureCompatible[0] {
		t.Fatalf("expected compatibility check with restart, got %v", fake.ensureCompatible)
	}
	if fake.runUICalls != 1 || fake.runUIProfile.Role != types.RoleAssistant {
		t.Fatalf("unexpected ui run %d %#v", fake.runUICalls, fake.runUIProfile)
	}

	if err := cmd.Run([]string{"--role", "client"}); err == nil {
		t.Fatalf("client role without email should fail")
	}
	if err := cmd.Run([]string{"--role", "judge"}); err == nil {
		t.Fatalf("unknown role should fail")
	}
}

func TestResolveProfileOverrides(t *testing.T) {
	base := types.Profile{Name: "Sam", Role: types.RoleAttorney}
	got, err := resolveProfile(base, "client", "dana@example.com")
	if err != nil || got.Role != types.RoleClient || got.Email != "dana@example.com" || got.Name != "Sam" {
		t.Fatalf("unexpected profile %#v (%v)", got, err)
	}
	if got, _ := resolveProfile(base, "client", " Dana@Example.COM"); got.Email != "dana@example.com" {
		t.Fatalf("expected normalized email, got %q", got.Email)
	}
	if _, err := resolveProfile(base, "client", ""); !errors.Is(err, errClientEmail) {
		t.Fatalf("expected errClientEmail, got %v", err)
	}
	if got, err := resolveProfile(base, "", ""); err != nil || got != base {
		t.Fatalf("expected base profile, got %#v (%v)", got, err)
	}
}

func TestStoreSeedCopiesRecords(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	src := store.NewFileRepository(srcDir)
	if _, err := src.Clients().Upsert(context.Background(), &types.Client{ID: "client_1", Name: "Dana Ruiz", Email: "dana@example.com"}); err != nil {
		t.Fatalf("seed source: %v", err)
	}
	cfg := config.DefaultCoreConfig()
	cfg.Storage = config.StorageConfig{Backend: store.RepositoryBackendFile, Path: dstDir}

	stdout := &bytes.Buffer{}
	cmd := NewStoreCommand(stdout, &bytes.Buffer{}, func() (config.CoreConfig, error) { return cfg, nil })
	if err := cmd.Run([]string{"seed", "--from", "file", "--path", srcDir}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.Contains(stdout.String(), "clients     1") {
		t.Fatalf("unexpected report %q", stdout.String())
	}
	dst := store.NewFileRepository(dstDir)
	items, err := dst.Clients().List(context.Background())
	if err != nil || len(items) != 1 {
		t.Fatalf("expected copied client, got %d err=%v", len(items), err)
	}

	if err := cmd.Run([]string{"seed", "--from", "file", "--path", dstDir}); err == nil {
		t.Fatalf("expected same-source error")
	}
}
