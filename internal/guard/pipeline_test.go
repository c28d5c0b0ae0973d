package guard

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/twuijri/Vex/internal/models"
)

type fakeGroups struct {
	fakeWordStore
	managed bool
}

func (f *fakeGroups) IsManaged(ctx context.Context, telegramGroupID int64) (bool, error) {
	return f.managed, nil
}

type fakeAdmins struct {
	admins       map[int64]bool
	adminGroupID int64
}

func (f *fakeAdmins) IsAdmin(ctx context.Context, telegramID int64) (bool, error) {
	return f.admins[telegramID], nil
}

func (f *fakeAdmins) AdminGroupID(ctx context.Context) (int64, error) {
	return f.adminGroupID, nil
}

type fakeRoles struct {
	elevated map[int64]bool
}

func (f *fakeRoles) IsElevated(ctx context.Context, chatID, userID int64) (bool, error) {
	return f.elevated[userID], nil
}

type fakeAlerts struct {
	nextID   int64
	alerts   map[int64]*models.Alert
	resolved map[int64]bool
	notes    map[int64]string
}

func newFakeAlerts() *fakeAlerts {
	return &fakeAlerts{
		alerts:   make(map[int64]*models.Alert),
		resolved: make(map[int64]bool),
		notes:    make(map[int64]string),
	}
}

func (f *fakeAlerts) Create(ctx context.Context, alert *models.Alert) error {
	f.nextID++
	alert.ID = f.nextID
	alert.Status = models.AlertPending
	copied := *alert
	f.alerts[alert.ID] = &copied
	return nil
}

func (f *fakeAlerts) Get(ctx context.Context, id int64) (*models.Alert, error) {
	alert, ok := f.alerts[id]
	if !ok {
		return nil, nil
	}
	copied := *alert
	return &copied, nil
}

func (f *fakeAlerts) SetAlertMessage(ctx context.Context, id, alertChatID int64, alertMessageID int) error {
	alert := f.alerts[id]
	alert.AlertChatID.Valid = true
	alert.AlertChatID.Int64 = alertChatID
	alert.AlertMessageID.Valid = true
	alert.AlertMessageID.Int64 = int64(alertMessageID)
	return nil
}

func (f *fakeAlerts) Resolve(ctx context.Context, id int64, status string, resolvedBy int64) (bool, error) {
	if f.resolved[id] {
		return false, nil
	}
	f.resolved[id] = true
	f.alerts[id].Status = status
	return true, nil
}

func (f *fakeAlerts) SetResolutionNote(ctx context.Context, id int64, note string) error {
	f.notes[id] = note
	return nil
}

type fakeAnalyzer struct {
	score float64
	calls int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, text string) float64 {
	f.calls++
	return f.score
}

type fakeTransport struct {
	deletes   int
	deleteErr error
	sends     int
	sendErr   error
	edits     int
	lastEdit  string
}

func (f *fakeTransport) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	f.deletes++
	return f.deleteErr
}

func (f *fakeTransport) SendAlert(ctx context.Context, chatID int64, text string, alertID int64) (int, error) {
	f.sends++
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	return 777, nil
}

func (f *fakeTransport) EditAlert(ctx context.Context, chatID int64, messageID int, text string) error {
	f.edits++
	f.lastEdit = text
	return nil
}

type testPipeline struct {
	pipeline  *Pipeline
	groups    *fakeGroups
	admins    *fakeAdmins
	roles     *fakeRoles
	alerts    *fakeAlerts
	analyzer  *fakeAnalyzer
	transport *fakeTransport
}

func newTestPipeline() *testPipeline {
	tp := &testPipeline{
		groups:    &fakeGroups{managed: true},
		admins:    &fakeAdmins{admins: map[int64]bool{}, adminGroupID: -100},
		roles:     &fakeRoles{elevated: map[int64]bool{}},
		alerts:    newFakeAlerts(),
		analyzer:  &fakeAnalyzer{},
		transport: &fakeTransport{},
	}
	tp.pipeline = NewPipeline(tp.groups, tp.admins, tp.roles, tp.alerts, tp.analyzer, tp.transport, zap.NewNop())
	return tp
}

func message(text string) Message {
	return Message{ChatID: 100, MessageID: 5, UserID: 42, UserName: "@user", Text: text}
}

func TestPipelineIgnoresUnmanagedGroup(t *testing.T) {
	tp := newTestPipeline()
	tp.groups.managed = false
	tp.groups.blocked = []string{"كلب"}

	if err := tp.pipeline.HandleIncomingMessage(context.Background(), message("كلب")); err != nil {
		t.Fatalf("HandleIncomingMessage returned error: %v", err)
	}
	if tp.transport.deletes != 0 || tp.analyzer.calls != 0 {
		t.Errorf("unmanaged group triggered actions: deletes=%d, analyzer calls=%d",
			tp.transport.deletes, tp.analyzer.calls)
	}
}

func TestPipelineElevatedUserBypassesBeforeNormalize(t *testing.T) {
	tp := newTestPipeline()
	tp.roles.elevated[42] = true
	tp.groups.blocked = []string{"كلب"}

	normalizeCalls := 0
	tp.pipeline.normalizeFn = func(s string) string {
		normalizeCalls++
		return s
	}

	if err := tp.pipeline.HandleIncomingMessage(context.Background(), message("كلب")); err != nil {
		t.Fatalf("HandleIncomingMessage returned error: %v", err)
	}
	if normalizeCalls != 0 {
		t.Errorf("normalize ran %d times for elevated user, want 0", normalizeCalls)
	}
	if tp.transport.deletes != 0 {
		t.Errorf("elevated user's message was deleted")
	}
}

func TestPipelineTextlessMessageSkipped(t *testing.T) {
	tp := newTestPipeline()
	tp.analyzer.score = 0.99

	if err := tp.pipeline.HandleIncomingMessage(context.Background(), message("")); err != nil {
		t.Fatalf("HandleIncomingMessage returned error: %v", err)
	}
	if tp.analyzer.calls != 0 {
		t.Errorf("analyzer ran for textless message")
	}
}

func TestPipelineBlacklistHitDeletesAndStopsAI(t *testing.T) {
	tp := newTestPipeline()
	tp.groups.blocked = []string{"كلب"}
	tp.analyzer.score = 0.99

	if err := tp.pipeline.HandleIncomingMessage(context.Background(), message("هذا كَـلْـب سيء")); err != nil {
		t.Fatalf("HandleIncomingMessage returned error: %v", err)
	}
	if tp.transport.deletes != 1 {
		t.Errorf("deletes = %d, want 1", tp.transport.deletes)
	}
	if tp.analyzer.calls != 0 {
		t.Errorf("analyzer ran after a blacklist hit")
	}
	if len(tp.alerts.alerts) != 0 {
		t.Errorf("blacklist hit created an alert")
	}
}

func TestPipelineLowScoreDoesNothing(t *testing.T) {
	tp := newTestPipeline()
	tp.analyzer.score = 0.64

	if err := tp.pipeline.HandleIncomingMessage(context.Background(), message("رسالة عادية")); err != nil {
		t.Fatalf("HandleIncomingMessage returned error: %v", err)
	}
	if tp.analyzer.calls != 1 {
		t.Fatalf("analyzer calls = %d, want 1", tp.analyzer.calls)
	}
	if tp.transport.deletes != 0 || tp.transport.sends != 0 || len(tp.alerts.alerts) != 0 {
		t.Errorf("sub-threshold score triggered actions")
	}
}

func TestPipelineHighScoreEscalatesWithoutDeleting(t *testing.T) {
	tp := newTestPipeline()
	tp.analyzer.score = 0.65

	if err := tp.pipeline.HandleIncomingMessage(context.Background(), message("رسالة مشبوهة")); err != nil {
		t.Fatalf("HandleIncomingMessage returned error: %v", err)
	}
	if tp.transport.deletes != 0 {
		t.Errorf("escalation deleted the message")
	}
	if tp.transport.sends != 1 {
		t.Fatalf("alert sends = %d, want 1", tp.transport.sends)
	}
	alert, _ := tp.alerts.Get(context.Background(), 1)
	if alert == nil {
		t.Fatal("no alert row created")
	}
	if alert.Status != models.AlertPending {
		t.Errorf("alert status = %q, want pending", alert.Status)
	}
	if !alert.AlertMessageID.Valid || alert.AlertMessageID.Int64 != 777 {
		t.Errorf("alert message id not stored: %+v", alert.AlertMessageID)
	}
}

func TestPipelineNoAdminGroupSkipsAI(t *testing.T) {
	tp := newTestPipeline()
	tp.admins.adminGroupID = 0
	tp.analyzer.score = 0.99

	if err := tp.pipeline.HandleIncomingMessage(context.Background(), message("رسالة")); err != nil {
		t.Fatalf("HandleIncomingMessage returned error: %v", err)
	}
	if tp.analyzer.calls != 0 {
		t.Errorf("analyzer ran with no review group configured")
	}
}

func TestPipelineSendFailureKeepsAlertPending(t *testing.T) {
	tp := newTestPipeline()
	tp.analyzer.score = 0.9
	tp.transport.sendErr = errors.New("telegram down")

	if err := tp.pipeline.HandleIncomingMessage(context.Background(), message("رسالة")); err != nil {
		t.Fatalf("HandleIncomingMessage returned error: %v", err)
	}
	alert, _ := tp.alerts.Get(context.Background(), 1)
	if alert == nil {
		t.Fatal("alert row missing after send failure")
	}
	if alert.Status != models.AlertPending {
		t.Errorf("alert status = %q, want pending", alert.Status)
	}
}

func escalated(t *testing.T, tp *testPipeline) int64 {
	t.Helper()
	tp.analyzer.score = 0.9
	if err := tp.pipeline.HandleIncomingMessage(context.Background(), message("رسالة مشبوهة")); err != nil {
		t.Fatalf("HandleIncomingMessage returned error: %v", err)
	}
	return tp.alerts.nextID
}

func TestResolveAlertDeleteIsIdempotent(t *testing.T) {
	tp := newTestPipeline()
	alertID := escalated(t, tp)
	reviewer := Reviewer{ID: 7, Name: "@admin"}

	res, err := tp.pipeline.ResolveAlert(context.Background(), alertID, ActionDelete, reviewer)
	if err != nil {
		t.Fatalf("first ResolveAlert returned error: %v", err)
	}
	if res.Status != models.AlertDeleted {
		t.Errorf("status = %q, want deleted", res.Status)
	}
	if tp.transport.deletes != 1 {
		t.Fatalf("deletes after first press = %d, want 1", tp.transport.deletes)
	}

	_, err = tp.pipeline.ResolveAlert(context.Background(), alertID, ActionDelete, reviewer)
	if !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("second press error = %v, want ErrAlreadyResolved", err)
	}
	if tp.transport.deletes != 1 {
		t.Errorf("deletes after second press = %d, want still 1", tp.transport.deletes)
	}
}

func TestResolveAlertKeepNeverDeletes(t *testing.T) {
	tp := newTestPipeline()
	alertID := escalated(t, tp)

	res, err := tp.pipeline.ResolveAlert(context.Background(), alertID, ActionKeep, Reviewer{ID: 7, Name: "@admin"})
	if err != nil {
		t.Fatalf("ResolveAlert returned error: %v", err)
	}
	if res.Status != models.AlertKept {
		t.Errorf("status = %q, want kept", res.Status)
	}
	if tp.transport.deletes != 0 {
		t.Errorf("keep action deleted the message")
	}
	if tp.transport.edits != 1 {
		t.Errorf("alert message edits = %d, want 1", tp.transport.edits)
	}
}

func TestResolveAlertDeleteFailureIsNonFatal(t *testing.T) {
	tp := newTestPipeline()
	alertID := escalated(t, tp)
	tp.transport.deleteErr = errors.New("message to delete not found")

	res, err := tp.pipeline.ResolveAlert(context.Background(), alertID, ActionDelete, Reviewer{ID: 7, Name: "@admin"})
	if err != nil {
		t.Fatalf("ResolveAlert returned error: %v", err)
	}
	if res.Status != models.AlertDeleted {
		t.Errorf("status = %q, want deleted despite delete failure", res.Status)
	}
	if res.Note == "" {
		t.Error("expected a resolution note about the failed deletion")
	}
	if tp.alerts.notes[alertID] == "" {
		t.Error("resolution note was not persisted")
	}
}

func TestResolveAlertUnknownAlert(t *testing.T) {
	tp := newTestPipeline()
	_, err := tp.pipeline.ResolveAlert(context.Background(), 999, ActionDelete, Reviewer{ID: 7})
	if !errors.Is(err, ErrAlertNotFound) {
		t.Fatalf("error = %v, want ErrAlertNotFound", err)
	}
}

func TestResolveAlertRejectsUnknownAction(t *testing.T) {
	tp := newTestPipeline()
	alertID := escalated(t, tp)

	if _, err := tp.pipeline.ResolveAlert(context.Background(), alertID, "ban", Reviewer{ID: 7}); err == nil {
		t.Fatal("expected error for unknown action")
	}
	if tp.transport.deletes != 0 {
		t.Errorf("unknown action triggered a delete")
	}
}
