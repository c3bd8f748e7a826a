package main

// Notes:
// - Chrome detection depends on the machine, so only the vault checks and
//   argument parsing are asserted. The Chrome section is checked for shape.

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseDoctorArgs(t *testing.T) {
	t.Setenv("VAULTSHOT_VAULT", "")

	tests := []struct {
		name      string
		args      []string
		wantJSON  bool
		wantVault string
		wantErr   bool
	}{
		{"defaults", nil, false, ".", false},
		{"json", []string{"--json"}, true, ".", false},
		{"vault separate", []string{"--vault", "/v"}, false, "/v", false},
		{"vault equals", []string{"--json", "--vault=/w"}, true, "/w", false},
		{"vault missing value", []string{"--vault"}, false, "", true},
		{"unknown", []string{"--fix"}, false, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseDoctorArgs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDoctorArgs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if opts.json != tt.wantJSON || opts.vault != tt.wantVault {
				t.Errorf("parseDoctorArgs() = %+v", opts)
			}
		})
	}
}

func TestParseDoctorArgs_EnvVault(t *testing.T) {
	t.Setenv("VAULTSHOT_VAULT", "/from-env")

	opts, err := parseDoctorArgs(nil)
	if err != nil || opts.vault != "/from-env" {
		t.Errorf("parseDoctorArgs() = %+v, %v, want the VAULTSHOT_VAULT directory", opts, err)
	}
}

func TestRunDoctorCmd_JSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	env, stdout, _ := testEnv(newMockPool(&mockPublisher{}, 1))

	code := runDoctorCmd([]string{"--json", "--vault", dir}, env)

	var result doctorResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		t.Fatalf("decoding doctor output: %v\n%s", err, stdout)
	}
	if !result.Vault.Writable || !result.Vault.TempWritable || result.Vault.Path != dir {
		t.Errorf("vault = %+v", result.Vault)
	}
	if result.Env.OS == "" || result.Env.Arch == "" {
		t.Errorf("environment = %+v", result.Env)
	}
	switch result.Status {
	case statusReady, statusWarnings:
		if code != ExitSuccess {
			t.Errorf("code = %d with status %s", code, result.Status)
		}
	case statusErrors:
		if code != ExitGeneral {
			t.Errorf("code = %d with status %s", code, result.Status)
		}
	default:
		t.Errorf("status = %q", result.Status)
	}
}

func TestRunDoctorCmd_MissingVault(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "nope")
	env, stdout, _ := testEnv(newMockPool(&mockPublisher{}, 1))

	code := runDoctorCmd([]string{"--vault", missing}, env)
	if code != ExitGeneral {
		t.Errorf("code = %d, want %d", code, ExitGeneral)
	}
	out := stdout.String()
	if !strings.Contains(out, "Vault not writable") || !strings.Contains(out, "Status: Not ready") {
		t.Errorf("output = %q", out)
	}
}

func TestProbeWritable_File(t *testing.T) {
	t.Parallel()

	file := writeTree(t, map[string]string{"f": "x"})
	if err := probeWritable(filepath.Join(file, "f")); err == nil {
		t.Error("probeWritable(file) error = nil, want not a directory")
	}
}
