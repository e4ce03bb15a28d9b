package dispatch_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/nyashahama/receipt-dispatch-backend/internal/dispatch"
	"github.com/nyashahama/receipt-dispatch-backend/internal/email"
	"github.com/nyashahama/receipt-dispatch-backend/internal/notify"
	"github.com/nyashahama/receipt-dispatch-backend/internal/upload"
)

// ─── STUBS ────────────────────────────────────────────────────────────────────

// sent is a message as observed at send time, including the attachment bytes
// read while the scratch file still existed.
type sent struct {
	msg        notify.Message
	attachment string
}

type stubNotifier struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (n *stubNotifier) Send(_ context.Context, msg notify.Message) error {
	rec := sent{msg: msg}
	if msg.Attachment != nil {
		data, err := os.ReadFile(msg.Attachment.Path)
		if err != nil {
			return email.ErrDocumentNotFound
		}
		rec.attachment = string(data)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, rec)
	return n.err
}

func (n *stubNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testDeps struct {
	svc   *dispatch.Service
	store *upload.Store
	email *stubNotifier
	sms   *stubNotifier
}

func newTestService(t *testing.T, cfg dispatch.Config) *testDeps {
	t.Helper()
	st, err := upload.NewStore(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	em, sm := &stubNotifier{}, &stubNotifier{}
	return &testDeps{
		svc:   dispatch.NewService(st, em, sm, cfg, discardLogger()),
		store: st,
		email: em,
		sms:   sm,
	}
}

const milkContent = `{"items":[{"name":"Milk","price":2.5,"quantity":2}],"total":5.0}`

func request(recipient, method, content string, doc string) dispatch.Request {
	req := dispatch.Request{Recipient: recipient, Method: method, Content: content}
	if doc != "" {
		req.Document = strings.NewReader(doc)
	}
	return req
}

func assertKind(t *testing.T, err error, kind dispatch.Kind, msg string) {
	t.Helper()
	var de *dispatch.Error
	if !errors.As(err, &de) {
		t.Fatalf("expected *dispatch.Error, got %T: %v", err, err)
	}
	if de.Kind != kind {
		t.Errorf("kind: got %s, want %s", de.Kind, kind)
	}
	if msg != "" && de.Message != msg {
		t.Errorf("message: got %q, want %q", de.Message, msg)
	}
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no files left in %s, found %d", dir, len(entries))
	}
}

// ─── VALIDATION ───────────────────────────────────────────────────────────────

func TestDispatch_ValidationSequence(t *testing.T) {
	tests := []struct {
		name string
		req  dispatch.Request
		want string
	}{
		{"missing recipient", request("", "email", milkContent, "pdf"), dispatch.MsgMissingFields},
		{"missing method", request("a@b.com", "", milkContent, "pdf"), dispatch.MsgMissingFields},
		{"missing content", request("a@b.com", "email", "", "pdf"), dispatch.MsgMissingFields},
		{"missing document", request("a@b.com", "email", milkContent, ""), dispatch.MsgMissingFields},
		{"missing beats bad method", request("a@b.com", "fax", "", "pdf"), dispatch.MsgMissingFields},
		{"bad json", request("a@b.com", "email", "{nope", "pdf"), dispatch.MsgInvalidJSON},
		{"bad json beats bad method", request("a@b.com", "fax", "nope", "pdf"), dispatch.MsgInvalidJSON},
		{"json list", request("a@b.com", "email", `[1,2]`, "pdf"), dispatch.MsgNotObject},
		{"json scalar", request("a@b.com", "sms", `42`, "pdf"), dispatch.MsgNotObject},
		{"bad email", request("not-an-email", "email", milkContent, "pdf"), dispatch.MsgInvalidEmail},
		{"phone sent as email", request("+15551234567", "email", milkContent, "pdf"), dispatch.MsgInvalidEmail},
		{"bad phone", request("555-1234", "sms", milkContent, "pdf"), dispatch.MsgInvalidPhone},
		{"email sent as sms", request("a@b.com", "sms", milkContent, "pdf"), dispatch.MsgInvalidPhone},
		{"unknown method", request("a@b.com", "fax", milkContent, "pdf"), dispatch.MsgInvalidMethod},
		{"method is case sensitive", request("a@b.com", "EMAIL", milkContent, "pdf"), dispatch.MsgInvalidMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestService(t, dispatch.Config{})
			err := deps.svc.Dispatch(context.Background(), tt.req)
			assertKind(t, err, dispatch.KindValidation, tt.want)

			if deps.email.count()+deps.sms.count() != 0 {
				t.Error("validation failure must not reach a notifier")
			}
			assertDirEmpty(t, deps.store.Dir())
		})
	}
}

// ─── EMAIL ────────────────────────────────────────────────────────────────────

func TestDispatch_EmailSendsHTMLWithDocument(t *testing.T) {
	deps := newTestService(t, dispatch.Config{})

	err := deps.svc.Dispatch(context.Background(), request("a@b.com", "email", milkContent, "%PDF-1.4 milk"))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if deps.email.count() != 1 || deps.sms.count() != 0 {
		t.Fatalf("expected one email and no sms, got email=%d sms=%d", deps.email.count(), deps.sms.count())
	}
	got := deps.email.sent[0]

	if got.msg.To != "a@b.com" {
		t.Errorf("to: got %q", got.msg.To)
	}
	if got.msg.Subject != email.DefaultSubject {
		t.Errorf("subject: got %q", got.msg.Subject)
	}
	if !got.msg.HTML {
		t.Error("email body should be HTML")
	}
	for _, want := range []string{"<td>Milk</td>", "<td>PHP 2.5</td>", "<td>2</td>", "<td>PHP 5.00</td>", "Total Amount: PHP 5.00"} {
		if !strings.Contains(got.msg.Body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if got.msg.Attachment == nil || got.msg.Attachment.Filename != "receipt.pdf" {
		t.Fatalf("attachment: got %+v", got.msg.Attachment)
	}
	if got.attachment != "%PDF-1.4 milk" {
		t.Errorf("attachment content: got %q", got.attachment)
	}

	assertDirEmpty(t, deps.store.Dir())
}

func TestDispatch_ConfiguredSubjectAndCurrency(t *testing.T) {
	deps := newTestService(t, dispatch.Config{EmailSubject: "Your receipt", Currency: "USD"})

	if err := deps.svc.Dispatch(context.Background(), request("a@b.com", "email", milkContent, "pdf")); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	got := deps.email.sent[0].msg
	if got.Subject != "Your receipt" {
		t.Errorf("subject: got %q", got.Subject)
	}
	if !strings.Contains(got.Body, "Total Amount: USD 5.00") {
		t.Error("currency label not applied")
	}
}

func TestDispatch_EmailTransportErrorIsVerbatim(t *testing.T) {
	deps := newTestService(t, dispatch.Config{})
	deps.email.err = errors.New("535 5.7.8 Username and Password not accepted")

	err := deps.svc.Dispatch(context.Background(), request("a@b.com", "email", milkContent, "pdf"))
	assertKind(t, err, dispatch.KindTransport, "535 5.7.8 Username and Password not accepted")
	assertDirEmpty(t, deps.store.Dir())
}

func TestDispatch_DocumentNotFoundIsResourceFailure(t *testing.T) {
	deps := newTestService(t, dispatch.Config{})
	deps.email.err = email.ErrDocumentNotFound

	err := deps.svc.Dispatch(context.Background(), request("a@b.com", "email", milkContent, "pdf"))
	assertKind(t, err, dispatch.KindResource, "PDF file not found")
}

func TestDispatch_MalformedItemsIsResourceFailure(t *testing.T) {
	deps := newTestService(t, dispatch.Config{})

	err := deps.svc.Dispatch(context.Background(),
		request("a@b.com", "email", `{"items":[{"name":"Milk"}]}`, "pdf"))
	assertKind(t, err, dispatch.KindResource, "")
	if deps.email.count() != 0 {
		t.Error("malformed content must not be sent")
	}
	assertDirEmpty(t, deps.store.Dir())
}

func TestDispatch_EmptyContentObjectUsesDefaults(t *testing.T) {
	deps := newTestService(t, dispatch.Config{})

	if err := deps.svc.Dispatch(context.Background(), request("a@b.com", "email", `{}`, "pdf")); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !strings.Contains(deps.email.sent[0].msg.Body, "Total Amount: PHP 0.00") {
		t.Error("missing total should render as 0.00")
	}
}

// ─── SMS ──────────────────────────────────────────────────────────────────────

func TestDispatch_SMSSendsPlainText(t *testing.T) {
	deps := newTestService(t, dispatch.Config{})

	err := deps.svc.Dispatch(context.Background(), request("+15551234567", "sms", milkContent, "pdf"))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if deps.sms.count() != 1 || deps.email.count() != 0 {
		t.Fatalf("expected one sms and no email, got sms=%d email=%d", deps.sms.count(), deps.email.count())
	}

	got := deps.sms.sent[0].msg
	if got.To != "+15551234567" {
		t.Errorf("to: got %q", got.To)
	}
	if got.HTML || got.Attachment != nil {
		t.Error("sms must be plain text without attachment")
	}
	for _, want := range []string{"Milk - PHP 2.5 x 2", "Total: PHP 5.00"} {
		if !strings.Contains(got.Body, want) {
			t.Errorf("body missing %q: %q", want, got.Body)
		}
	}
	assertDirEmpty(t, deps.store.Dir())
}

func TestDispatch_SMSProviderError(t *testing.T) {
	deps := newTestService(t, dispatch.Config{})
	deps.sms.err = errors.New("sms: twilio create message: Status: 400 - invalid To")

	err := deps.svc.Dispatch(context.Background(), request("+15551234567", "sms", milkContent, "pdf"))
	assertKind(t, err, dispatch.KindTransport, "sms: twilio create message: Status: 400 - invalid To")
}

// ─── STRICT PDF ───────────────────────────────────────────────────────────────

func TestDispatch_StrictPDFRejectsGarbage(t *testing.T) {
	deps := newTestService(t, dispatch.Config{StrictPDF: true})

	err := deps.svc.Dispatch(context.Background(), request("a@b.com", "email", milkContent, "not a pdf"))
	assertKind(t, err, dispatch.KindValidation, dispatch.MsgInvalidPDF)
	if deps.email.count() != 0 {
		t.Error("invalid pdf must not be sent")
	}
	assertDirEmpty(t, deps.store.Dir())
}

func TestDispatch_LenientByDefault(t *testing.T) {
	deps := newTestService(t, dispatch.Config{})
	if err := deps.svc.Dispatch(context.Background(), request("a@b.com", "email", milkContent, "not a pdf")); err != nil {
		t.Fatalf("non-strict dispatch should not inspect the document: %v", err)
	}
}

// ─── CONCURRENCY ──────────────────────────────────────────────────────────────

func TestDispatch_ConcurrentRequestsKeepTheirOwnDocument(t *testing.T) {
	deps := newTestService(t, dispatch.Config{})

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			to := fmt.Sprintf("customer%d@shop.com", i)
			doc := fmt.Sprintf("%%PDF-1.4 doc-%d", i)
			errs <- deps.svc.Dispatch(context.Background(), request(to, "email", milkContent, doc))
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("Dispatch: %v", err)
		}
	}

	if deps.email.count() != n {
		t.Fatalf("expected %d emails, got %d", n, deps.email.count())
	}
	for _, s := range deps.email.sent {
		var i int
		if _, err := fmt.Sscanf(s.msg.To, "customer%d@shop.com", &i); err != nil {
			t.Fatalf("unexpected recipient %q", s.msg.To)
		}
		if want := fmt.Sprintf("%%PDF-1.4 doc-%d", i); s.attachment != want {
			t.Errorf("%s received %q, want %q", s.msg.To, s.attachment, want)
		}
	}
	assertDirEmpty(t, deps.store.Dir())
}
