package sendaccess

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sendvault/sendvault/internal/logging"
	"github.com/sendvault/sendvault/internal/otp"
	"github.com/sendvault/sendvault/internal/password"
	"github.com/sendvault/sendvault/internal/send"
)

type recordingMailer struct {
	mu     sync.Mutex
	emails []string
	codes  []string
	fail   bool
}

func (m *recordingMailer) SendOtpEmail(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.emails = append(m.emails, email)
	m.codes = append(m.codes, code)
	return nil
}

func (m *recordingMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.codes) == 0 {
		t.Fatal("no otp email was dispatched")
	}
	return m.codes[len(m.codes)-1]
}

type stubMinter struct {
	err error
}

func (m *stubMinter) Issue(_ context.Context, claims AccessTokenClaims) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "token-for-" + claims.SendID.String(), nil
}

type fixture struct {
	dispatcher *Dispatcher
	repo       *send.MemoryRepository
	mailer     *recordingMailer
	store      *otp.RedisStore
	selector   Selector
}

func newFixture(t *testing.T) (*fixture, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	repo := send.NewMemoryRepository()
	mailer := &recordingMailer{}
	store := otp.NewRedisStore(client, 3)
	selector := NewSelector(testSalt)

	dispatcher := NewDispatcher(Deps{
		Repo:        repo,
		Selector:    selector,
		OtpProvider: otp.NewProvider(store, time.Minute, 6),
		Mailer:      mailer,
		Verifier:    password.NewVerifier(),
		Minter:      &stubMinter{},
		ClientID:    "send",
		AccessTTL:   5 * time.Minute,
		Logger:      logging.Discard(),
	})

	cleanup := func() {
		client.Close()
		mr.Close()
	}
	return &fixture{dispatcher: dispatcher, repo: repo, mailer: mailer, store: store, selector: selector}, cleanup
}

func baseRequest(id string) TokenRequest {
	return TokenRequest{
		GrantType:  GrantTypeSendAccess,
		ClientID:   "send",
		SendID:     id,
		Scope:      ScopeSendAccess,
		DeviceType: "10",
	}
}

// decoyID generates identifiers with no backing record until one lands in
// the wanted category.
func decoyID(t *testing.T, selector Selector, category DecoyCategory) send.ID {
	t.Helper()
	for i := 0; i < 4096; i++ {
		id := send.ID(uuid.New())
		if selector.Category(id) == category {
			return id
		}
	}
	t.Fatalf("no id found for category %s", category)
	return send.ID{}
}

func expectError(t *testing.T, gerr *GrantError, code, description string) {
	t.Helper()
	if gerr == nil {
		t.Fatal("expected a grant error")
	}
	if gerr.Code != code {
		t.Fatalf("expected error %q, got %q (%s)", code, gerr.Code, gerr.Description)
	}
	if gerr.Description != description {
		t.Fatalf("expected description %q, got %q", description, gerr.Description)
	}
}

func TestOpenSendIssuesToken(t *testing.T) {
	f, cleanup := newFixture(t)
	defer cleanup()

	id := send.ID(uuid.New())
	f.repo.Put(id, send.OpenMethod())

	resp, gerr := f.dispatcher.Token(context.Background(), baseRequest(id.String()))
	if gerr != nil {
		t.Fatalf("unexpected error: %v", gerr)
	}
	if resp.AccessToken == "" {
		t.Fatal("missing access token")
	}
	if resp.TokenType != "bearer" {
		t.Fatalf("expected bearer token type, got %q", resp.TokenType)
	}
	if resp.Scope != ScopeSendAccess {
		t.Fatalf("unexpected scope %q", resp.Scope)
	}
	if resp.ExpiresIn != int64((5 * time.Minute).Seconds()) {
		t.Fatalf("unexpected expires_in %d", resp.ExpiresIn)
	}
}

func TestPasswordSend(t *testing.T) {
	f, cleanup := newFixture(t)
	defer cleanup()

	ctx := context.Background()
	id := send.ID(uuid.New())
	f.repo.Put(id, send.PasswordMethod("stored-password-hash"))

	req := baseRequest(id.String())
	req.ClientB64HashedPassword = "stored-password-hash"
	resp, gerr := f.dispatcher.Token(ctx, req)
	if gerr != nil {
		t.Fatalf("matching hash rejected: %v", gerr)
	}
	if resp.AccessToken == "" || resp.TokenType != "bearer" {
		t.Fatalf("unexpected response %+v", resp)
	}

	req.ClientB64HashedPassword = "wrong-client-password-hash"
	_, gerr = f.dispatcher.Token(ctx, req)
	expectError(t, gerr, ErrorInvalidGrant, DescPasswordInvalid)

	req.ClientB64HashedPassword = ""
	_, gerr = f.dispatcher.Token(ctx, req)
	expectError(t, gerr, ErrorInvalidRequest, DescPasswordRequired)
}

func TestEmailOtpPhaseA(t *testing.T) {
	f, cleanup := newFixture(t)
	defer cleanup()

	ctx := context.Background()
	id := send.ID(uuid.New())
	f.repo.Put(id, send.EmailOtpMethod([]string{"test@example.com"}))

	req := baseRequest(id.String())
	req.Email = "test@example.com"
	_, gerr := f.dispatcher.Token(ctx, req)
	expectError(t, gerr, ErrorInvalidRequest, DescEmailOtpSent)

	if len(f.mailer.emails) != 1 || f.mailer.emails[0] != "test@example.com" {
		t.Fatalf("otp email dispatch not recorded: %v", f.mailer.emails)
	}
}

func TestEmailOtpPhaseB(t *testing.T) {
	f, cleanup := newFixture(t)
	defer cleanup()

	ctx := context.Background()
	id := send.ID(uuid.New())
	f.repo.Put(id, send.EmailOtpMethod([]string{"test@example.com"}))

	req := baseRequest(id.String())
	req.Email = "test@example.com"
	if _, gerr := f.dispatcher.Token(ctx, req); gerr == nil || gerr.Description != DescEmailOtpSent {
		t.Fatalf("phase A failed: %v", gerr)
	}
	code := f.mailer.lastCode(t)

	wrong := req
	wrong.EmailOtp = "wrong123"
	_, gerr := f.dispatcher.Token(ctx, wrong)
	expectError(t, gerr, ErrorInvalidGrant, DescEmailOtpInvalid)

	right := req
	right.EmailOtp = code
	resp, gerr := f.dispatcher.Token(ctx, right)
	if gerr != nil {
		t.Fatalf("correct code rejected: %v", gerr)
	}
	if resp.AccessToken == "" || resp.TokenType != "bearer" {
		t.Fatalf("unexpected response %+v", resp)
	}

	// No replay.
	_, gerr = f.dispatcher.Token(ctx, right)
	expectError(t, gerr, ErrorInvalidGrant, DescEmailOtpInvalid)
}

func TestEmailOtpRejectsUnknownEmail(t *testing.T) {
	f, cleanup := newFixture(t)
	defer cleanup()

	id := send.ID(uuid.New())
	f.repo.Put(id, send.EmailOtpMethod([]string{"test@example.com"}))

	req := baseRequest(id.String())
	req.Email = "intruder@example.com"
	_, gerr := f.dispatcher.Token(context.Background(), req)
	expectError(t, gerr, ErrorInvalidGrant, DescEmailInvalid)

	if len(f.mailer.emails) != 0 {
		t.Fatalf("otp dispatched to a non-member email")
	}
}

func TestEmailOtpRequiresEmail(t *testing.T) {
	f, cleanup := newFixture(t)
	defer cleanup()

	id := send.ID(uuid.New())
	f.repo.Put(id, send.EmailOtpMethod([]string{"test@example.com"}))

	_, gerr := f.dispatcher.Token(context.Background(), baseRequest(id.String()))
	expectError(t, gerr, ErrorInvalidRequest, DescEmailRequired)
}

func TestEmailOtpMailFailureDowngraded(t *testing.T) {
	f, cleanup := newFixture(t)
	defer cleanup()

	id := send.ID(uuid.New())
	f.repo.Put(id, send.EmailOtpMethod([]string{"test@example.com"}))
	f.mailer.fail = true

	req := baseRequest(id.String())
	req.Email = "test@example.com"
	_, gerr := f.dispatcher.Token(context.Background(), req)
	expectError(t, gerr, ErrorInvalidRequest, DescEmailOtpSendFailed)
}

func TestEmailOtpExpiredChallenge(t *testing.T) {
	f, cleanup := newFixture(t)
	defer cleanup()

	id := send.ID(uuid.New())
	f.repo.Put(id, send.EmailOtpMethod([]string{"test@example.com"}))

	req := baseRequest(id.String())
	req.Email = "test@example.com"
	req.EmailOtp = "123456"
	_, gerr := f.dispatcher.Token(context.Background(), req)
	expectError(t, gerr, ErrorInvalidRequest, DescEmailOtpExpired)
}

func TestNeverAuthenticateSend(t *testing.T) {
	f, cleanup := newFixture(t)
	defer cleanup()

	id := send.ID(uuid.New())
	f.repo.Put(id, send.NeverMethod())

	_, gerr := f.dispatcher.Token(context.Background(), baseRequest(id.String()))
	expectError(t, gerr, ErrorInvalidGrant, DescInvalidSendID)
}

func TestUnknownSendInvalidSendIDDecoy(t *testing.T) {
	f, cleanup := newFixture(t)
	defer cleanup()

	id := decoyID(t, f.selector, DecoyInvalidSendID)

	_, gerr := f.dispatcher.Token(context.Background(), baseRequest(id.String()))
	expectError(t, gerr, ErrorInvalidGrant, DescInvalidSendID)
	first, _ := json.Marshal(gerr)

	_, gerr = f.dispatcher.Token(context.Background(), baseRequest(id.String()))
	second, _ := json.Marshal(gerr)
	if string(first) != string(second) {
		t.Fatalf("responses differ: %s vs %s", first, second)
	}
}

func TestUnknownSendEmailDecoyShape(t *testing.T) {
	f, cleanup := newFixture(t)
	defer cleanup()

	id := decoyID(t, f.selector, DecoyEmailRequired)

	// Missing email: same shape as a real email-protected Send.
	_, gerr := f.dispatcher.Token(context.Background(), baseRequest(id.String()))
	expectError(t, gerr, ErrorInvalidRequest, DescEmailRequired)

	// Any email fails membership like a non-member would on a real Send,
	// and no otp email goes out.
	req := baseRequest(id.String())
	req.Email = "anyone@example.com"
	_, gerr = f.dispatcher.Token(context.Background(), req)
	expectError(t, gerr, ErrorInvalidGrant, DescEmailInvalid)

	if len(f.mailer.emails) != 0 {
		t.Fatalf("otp dispatched for a decoy send")
	}
}

func TestUnknownSendPasswordDecoyShape(t *testing.T) {
	f, cleanup := newFixture(t)
	defer cleanup()

	id := decoyID(t, f.selector, DecoyPasswordRequired)

	_, gerr := f.dispatcher.Token(context.Background(), baseRequest(id.String()))
	expectError(t, gerr, ErrorInvalidRequest, DescPasswordRequired)
}

// TestDecoyPasswordMismatchErrorCode pins an intentional asymmetry: a real
// password mismatch answers invalid_grant, a decoy mismatch answers
// invalid_request. Observed upstream behavior; do not reconcile silently.
func TestDecoyPasswordMismatchErrorCode(t *testing.T) {
	f, cleanup := newFixture(t)
	defer cleanup()

	id := decoyID(t, f.selector, DecoyPasswordRequired)

	req := baseRequest(id.String())
	req.ClientB64HashedPassword = "wrong-client-password-hash"
	_, gerr := f.dispatcher.Token(context.Background(), req)
	expectError(t, gerr, ErrorInvalidRequest, DescPasswordInvalid)

	// The same submission against a real Send is invalid_grant.
	realID := send.ID(uuid.New())
	f.repo.Put(realID, send.PasswordMethod("stored-password-hash"))
	realReq := baseRequest(realID.String())
	realReq.ClientB64HashedPassword = "wrong-client-password-hash"
	_, gerr = f.dispatcher.Token(context.Background(), realReq)
	expectError(t, gerr, ErrorInvalidGrant, DescPasswordInvalid)
}

func TestUnknownSendDeterministicBodies(t *testing.T) {
	f, cleanup := newFixture(t)
	defer cleanup()

	id := send.ID(uuid.New())

	var bodies []string
	for i := 0; i < 5; i++ {
		_, gerr := f.dispatcher.Token(context.Background(), baseRequest(id.String()))
		if gerr == nil {
			t.Fatal("unknown send authenticated")
		}
		payload, err := json.Marshal(gerr)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		bodies = append(bodies, string(payload))
	}
	for i := 1; i < len(bodies); i++ {
		if bodies[i] != bodies[0] {
			t.Fatalf("response %d differs: %s vs %s", i, bodies[0], bodies[i])
		}
	}
}

func TestMalformedSendID(t *testing.T) {
	f, cleanup := newFixture(t)
	defer cleanup()

	for _, bad := range []string{"not-base64url!!", "AAAA", ""} {
		_, gerr := f.dispatcher.Token(context.Background(), baseRequest(bad))
		if gerr == nil {
			t.Fatalf("send_id %q accepted", bad)
		}
		if gerr.Code != ErrorInvalidRequest {
			t.Fatalf("send_id %q: expected invalid_request, got %s", bad, gerr.Code)
		}
	}
}

func TestShapeErrors(t *testing.T) {
	f, cleanup := newFixture(t)
	defer cleanup()

	id := send.ID(uuid.New())
	f.repo.Put(id, send.OpenMethod())

	cases := []struct {
		name        string
		mutate      func(*TokenRequest)
		description string
	}{
		{"wrong grant type", func(r *TokenRequest) { r.GrantType = "password" }, DescGrantTypeInvalid},
		{"missing client id", func(r *TokenRequest) { r.ClientID = "" }, DescClientIDRequired},
		{"missing send id", func(r *TokenRequest) { r.SendID = "" }, DescSendIDRequired},
		{"wrong scope", func(r *TokenRequest) { r.Scope = "api" }, DescScopeInvalid},
		{"missing device type", func(r *TokenRequest) { r.DeviceType = "" }, DescDeviceTypeRequired},
		{"unknown client id", func(r *TokenRequest) { r.ClientID = "web" }, DescClientIDInvalid},
	}

	for _, tc := range cases {
		req := baseRequest(id.String())
		tc.mutate(&req)
		_, gerr := f.dispatcher.Token(context.Background(), req)
		if gerr == nil {
			t.Fatalf("%s: accepted", tc.name)
		}
		if gerr.Code != ErrorInvalidRequest || gerr.Description != tc.description {
			t.Fatalf("%s: got %s %q", tc.name, gerr.Code, gerr.Description)
		}
	}
}

func TestMintingFailureDowngraded(t *testing.T) {
	f, cleanup := newFixture(t)
	defer cleanup()

	id := send.ID(uuid.New())
	f.repo.Put(id, send.OpenMethod())

	failing := NewDispatcher(Deps{
		Repo:        f.repo,
		Selector:    f.selector,
		OtpProvider: otp.NewProvider(f.store, time.Minute, 6),
		Mailer:      f.mailer,
		Verifier:    password.NewVerifier(),
		Minter:      &stubMinter{err: errors.New("keys unavailable")},
		ClientID:    "send",
		AccessTTL:   5 * time.Minute,
		Logger:      logging.Discard(),
	})

	_, gerr := failing.Token(context.Background(), baseRequest(id.String()))
	expectError(t, gerr, ErrorInvalidRequest, DescTokenIssuanceFailed)
}
