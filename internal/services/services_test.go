package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/axellelanca/shortlink/internal/auth"
	"github.com/axellelanca/shortlink/internal/config"
	apperrors "github.com/axellelanca/shortlink/internal/errors"
	"github.com/axellelanca/shortlink/internal/logging"
	"github.com/axellelanca/shortlink/internal/models"
	"github.com/axellelanca/shortlink/internal/repository"
	"gorm.io/gorm"
)

const strongPassword = "Secur3P@ss!"

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.BaseURL = "http://sho.rt/"
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.Name = ":memory:"
	cfg.QRCode.Size = 128
	return cfg
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repository.OpenDatabase(testConfig())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = repository.Close(db) })
	return db
}

// fixedGenerator hands out codes in order, then fails.
type fixedGenerator struct {
	mu    sync.Mutex
	codes []string
}

func (g *fixedGenerator) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.codes) == 0 {
		return "", errors.New("out of codes")
	}
	c := g.codes[0]
	g.codes = g.codes[1:]
	return c, nil
}

type fixture struct {
	links *LinkService
	auth  *AuthService
	repo  repository.LinkRepository
}

func newFixture(t *testing.T, gen CodeGenerator) fixture {
	t.Helper()
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	issuer := auth.NewTokenIssuer("secret", time.Hour, auth.NewMemoryBlacklist(time.Minute))

	f := fixture{
		links: NewLinkService(linkRepo, gen, testConfig(), logging.Discard()),
		auth:  NewAuthService(users, issuer, 4, logging.Discard()),
		repo:  linkRepo,
	}
	if _, err := f.auth.Register(context.Background(), "alice", "alice@example.com", strongPassword); err != nil {
		t.Fatalf("register alice: %v", err)
	}
	return f
}

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatal(err)
		}
		if len(code) != CodeLength {
			t.Fatalf("code %q has length %d", code, len(code))
		}
		for _, r := range code {
			if !strings.ContainsRune(charset, r) {
				t.Fatalf("code %q contains %q outside the charset", code, r)
			}
		}
		if seen[code] {
			t.Fatalf("duplicate code %q in 1000 draws", code)
		}
		seen[code] = true
	}
}

func TestValidateSlug(t *testing.T) {
	tests := []struct {
		slug  string
		valid bool
	}{
		{"my-link", true},
		{"abc", true},
		{"A_b-9", true},
		{"ab", false},
		{strings.Repeat("x", 65), false},
		{"has space", false},
		{"slash/no", false},
		{"health", false},
		{"AUTH", false},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			err := ValidateSlug(tt.slug)
			if tt.valid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.valid && !errors.Is(err, apperrors.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestIsValidURL(t *testing.T) {
	tests := []struct {
		url   string
		valid bool
	}{
		{"https://example.com", true},
		{"http://example.com/path?q=1#frag", true},
		{"https://localhost:8080", true},
		{"", false},
		{"example.com", false},
		{"ftp://example.com", false},
		{"javascript:alert(1)", false},
		{"https://", false},
		{"not a url", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := IsValidURL(tt.url); got != tt.valid {
				t.Fatalf("IsValidURL(%q) = %v, want %v", tt.url, got, tt.valid)
			}
		})
	}
}

func TestShortenGenerated(t *testing.T) {
	f := newFixture(t, RandomCodeGenerator{})
	ctx := context.Background()

	link, err := f.links.Shorten(ctx, "alice", "https://example.com/long", "")
	if err != nil {
		t.Fatalf("shorten: %v", err)
	}
	if len(link.Code) != CodeLength || link.HasCustomSlug() {
		t.Fatalf("unexpected link: %+v", link)
	}
	if !strings.HasPrefix(link.QRCode, "data:image/png;base64,") {
		t.Fatalf("missing QR code: %.40s", link.QRCode)
	}
	if got := f.links.ShortURL(link.Code); got != "http://sho.rt/"+link.Code {
		t.Fatalf("ShortURL = %q", got)
	}

	again, err := f.links.Shorten(ctx, "alice", "https://example.com/long", "")
	if err != nil {
		t.Fatal(err)
	}
	if again.Code == link.Code {
		t.Fatal("the same destination shortened twice should get two codes")
	}
}

func TestShortenCustomSlug(t *testing.T) {
	f := newFixture(t, RandomCodeGenerator{})
	ctx := context.Background()

	link, err := f.links.Shorten(ctx, "alice", "https://example.com", "my-link")
	if err != nil {
		t.Fatalf("shorten: %v", err)
	}
	if link.Code != "my-link" || !link.HasCustomSlug() {
		t.Fatalf("unexpected link: %+v", link)
	}

	_, err = f.links.Shorten(ctx, "alice", "https://other.example", "my-link")
	if !errors.Is(err, apperrors.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	_, err = f.links.Shorten(ctx, "alice", "https://other.example", "no")
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected ErrValidation for short slug, got %v", err)
	}
}

func TestShortenRejectsInvalidURL(t *testing.T) {
	f := newFixture(t, RandomCodeGenerator{})
	_, err := f.links.Shorten(context.Background(), "alice", "not-a-url", "")
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if fields := apperrors.Fields(err); len(fields) != 1 || fields[0].Field != "origUrl" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
}

func TestShortenRetriesOnCollision(t *testing.T) {
	gen := &fixedGenerator{codes: []string{"taken001", "taken001", "fresh001"}}
	f := newFixture(t, gen)
	ctx := context.Background()

	if _, err := f.links.Shorten(ctx, "alice", "https://a.example", ""); err != nil {
		t.Fatal(err)
	}
	link, err := f.links.Shorten(ctx, "alice", "https://b.example", "")
	if err != nil {
		t.Fatalf("shorten after collision: %v", err)
	}
	if link.Code != "fresh001" {
		t.Fatalf("code = %q, want fresh001", link.Code)
	}
}

func TestShortenGivesUpAfterMaxRetries(t *testing.T) {
	codes := make([]string, maxRetries+1)
	for i := range codes {
		codes[i] = "samecode"
	}
	f := newFixture(t, &fixedGenerator{codes: codes})
	ctx := context.Background()

	if _, err := f.links.Shorten(ctx, "alice", "https://a.example", ""); err != nil {
		t.Fatal(err)
	}
	_, err := f.links.Shorten(ctx, "alice", "https://b.example", "")
	if !errors.Is(err, apperrors.ErrShortCodeGenerationFailed) {
		t.Fatalf("expected ErrShortCodeGenerationFailed, got %v", err)
	}
}

func TestShortenQRFailureStoresNothing(t *testing.T) {
	f := newFixture(t, &fixedGenerator{codes: []string{"qrfail01"}})
	f.links.renderQR = func(string, int) (string, error) { return "", errors.New("encoder broke") }

	if _, err := f.links.Shorten(context.Background(), "alice", "https://a.example", ""); err == nil {
		t.Fatal("expected error")
	}
	if _, err := f.repo.GetLinkByCode(context.Background(), "qrfail01"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("link must not be stored, got %v", err)
	}
}

func TestResolveCountsClicks(t *testing.T) {
	f := newFixture(t, RandomCodeGenerator{})
	ctx := context.Background()
	link, err := f.links.Shorten(ctx, "alice", "https://example.com", "")
	if err != nil {
		t.Fatal(err)
	}

	for want := int64(1); want <= 3; want++ {
		got, err := f.links.Resolve(ctx, link.Code)
		if err != nil {
			t.Fatal(err)
		}
		if got.ClickCount != want || got.DestinationURL != "https://example.com" {
			t.Fatalf("resolve %d: %+v", want, got)
		}
	}

	stats, err := f.links.Stats(ctx, link.Code)
	if err != nil || stats.ClickCount != 3 {
		t.Fatalf("stats = %+v, %v", stats, err)
	}
	stats, _ = f.links.Stats(ctx, link.Code)
	if stats.ClickCount != 3 {
		t.Fatal("stats must not count a click")
	}

	if _, err := f.links.Resolve(ctx, "nope0000"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListByOwner(t *testing.T) {
	f := newFixture(t, RandomCodeGenerator{})
	ctx := context.Background()

	empty, err := f.links.ListByOwner(ctx, "alice")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty list, got %#v, %v", empty, err)
	}

	for _, u := range []string{"https://1.example", "https://2.example"} {
		if _, err := f.links.Shorten(ctx, "alice", u, ""); err != nil {
			t.Fatal(err)
		}
	}
	got, err := f.links.ListByOwner(ctx, "alice")
	if err != nil || len(got) != 2 || got[0].DestinationURL != "https://1.example" {
		t.Fatalf("ListByOwner = %+v, %v", got, err)
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t, RandomCodeGenerator{})
	ctx := context.Background()

	tests := []struct {
		name, username, email, password string
		field                           string
	}{
		{"short username", "al", "x@example.com", strongPassword, "username"},
		{"bad email", "bobby", "not-an-email", strongPassword, "email"},
		{"short password", "bobby", "b@example.com", "Aa1!", "password"},
		{"no uppercase", "bobby", "b@example.com", "secur3p@ss!", "password"},
		{"no digit", "bobby", "b@example.com", "SecureP@ss!", "password"},
		{"no special", "bobby", "b@example.com", "Secur3Pass", "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Register(ctx, tt.username, tt.email, tt.password)
			if !errors.Is(err, apperrors.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			found := false
			for _, fe := range apperrors.Fields(err) {
				if fe.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Fatalf("no error on field %s: %v", tt.field, err)
			}
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	f := newFixture(t, RandomCodeGenerator{})
	ctx := context.Background()

	if _, err := f.auth.Register(ctx, "alice", "new@example.com", strongPassword); !errors.Is(err, apperrors.ErrDuplicate) {
		t.Fatalf("duplicate username: %v", err)
	}
	if _, err := f.auth.Register(ctx, "alice2", "alice@example.com", strongPassword); !errors.Is(err, apperrors.ErrDuplicate) {
		t.Fatalf("duplicate email: %v", err)
	}
}

func TestRegisterStoresHash(t *testing.T) {
	f := newFixture(t, RandomCodeGenerator{})
	u, err := f.auth.Register(context.Background(), "bob", "bob@example.com", strongPassword)
	if err != nil {
		t.Fatal(err)
	}
	if u.PasswordHash == "" || u.PasswordHash == strongPassword {
		t.Fatalf("password not hashed: %q", u.PasswordHash)
	}
}

func TestLoginLogout(t *testing.T) {
	f := newFixture(t, RandomCodeGenerator{})
	ctx := context.Background()

	token, exp, err := f.auth.Login(ctx, "alice", strongPassword)
	if err != nil || token == "" || exp.Before(time.Now()) {
		t.Fatalf("login = %q, %v, %v", token, exp, err)
	}

	if _, _, err := f.auth.Login(ctx, "alice", "Wr0ng!pass"); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, _, err := f.auth.Login(ctx, "ghost", strongPassword); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Fatalf("unknown user: %v", err)
	}

	other, _, err := f.auth.Login(ctx, "alice", strongPassword)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.auth.Logout(ctx, "alice", token, exp); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := f.auth.tokens.Verify(ctx, token); !errors.Is(err, apperrors.ErrTokenRevoked) {
		t.Fatalf("logged out token still valid: %v", err)
	}
	if _, err := f.auth.tokens.Verify(ctx, other); err != nil {
		t.Fatalf("other session must stay valid: %v", err)
	}
}

func TestLinksKeepOwner(t *testing.T) {
	f := newFixture(t, RandomCodeGenerator{})
	link, err := f.links.Shorten(context.Background(), "alice", "https://example.com", "")
	if err != nil {
		t.Fatal(err)
	}
	var stored *models.Link
	if stored, err = f.repo.GetLinkByCode(context.Background(), link.Code); err != nil {
		t.Fatal(err)
	}
	if stored.OwnerUsername != "alice" {
		t.Fatalf("owner = %q", stored.OwnerUsername)
	}
}
