package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/axellelanca/shortlink/cmd"
	"github.com/axellelanca/shortlink/internal/config"
)

func useTestConfig(t *testing.T) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.BaseURL = "http://sho.rt"
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.Name = filepath.Join(t.TempDir(), "cli.db")
	cfg.Auth.JWTSecret = "cli-secret"
	cfg.Auth.TokenTTL = time.Hour
	cfg.Auth.BcryptCost = 4
	cfg.QRCode.Size = 128
	cfg.Log.Level = "error"

	prev := cmd.Cfg
	cmd.Cfg = cfg
	t.Cleanup(func() { cmd.Cfg = prev })
}

func TestCreateUserCreateAndStats(t *testing.T) {
	useTestConfig(t)

	usernameFlag, emailFlag, passwordFlag = "alice", "alice@example.com", "Str0ng!Pass"
	var out bytes.Buffer
	CreateUserCmd.SetOut(&out)
	if err := CreateUserCmd.RunE(CreateUserCmd, nil); err != nil {
		t.Fatalf("create-user: %v", err)
	}

	longURLFlag, ownerFlag, slugFlag = "https://go.dev", "alice", "go-home"
	out.Reset()
	CreateCmd.SetOut(&out)
	if err := CreateCmd.RunE(CreateCmd, nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.Contains(out.String(), "http://sho.rt/go-home") {
		t.Fatalf("unexpected output: %s", out.String())
	}

	out.Reset()
	StatsCmd.SetOut(&out)
	if err := runStats(StatsCmd, []string{"go-home"}); err != nil {
		t.Fatalf("stats: %v", err)
	}
	for _, want := range []string{"Destination: https://go.dev", "Total clicks: 0", "Owner: alice"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("stats output missing %q:\n%s", want, out.String())
		}
	}

	if err := runStats(StatsCmd, []string{"missing"}); err == nil {
		t.Fatal("expected error for unknown code")
	}
}

func TestCreateRequiresExistingOwner(t *testing.T) {
	useTestConfig(t)

	longURLFlag, ownerFlag, slugFlag = "https://go.dev", "ghost", ""
	if err := CreateCmd.RunE(CreateCmd, nil); err == nil {
		t.Fatal("expected error for unknown owner")
	}
}

func TestMigrate(t *testing.T) {
	useTestConfig(t)
	if err := MigrateCmd.RunE(MigrateCmd, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}
