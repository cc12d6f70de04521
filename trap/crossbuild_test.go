// SPDX-License-Identifier: Unlicense OR MIT

package trap

import (
	"os"
	"os/exec"
	"regexp"
	"testing"
)

// TestAssemblyRegisterNames checks that the trap assembly names the
// registers the Go assembler reserves by their reserved names.
func TestAssemblyRegisterNames(t *testing.T) {
	src, err := os.ReadFile("trap_riscv64.s")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		reg, name string
	}{
		{`X4`, "TP"},
		{`X27`, "g"},
	}
	for _, tt := range tests {
		re := regexp.MustCompile(`\b` + tt.reg + `\b`)
		if loc := re.FindIndex(src); loc != nil {
			t.Errorf("trap_riscv64.s uses %s at offset %d; the assembler requires %s", tt.reg, loc[0], tt.name)
		}
	}
}

// TestCrossBuild vets the module for the kernel's target, so that the
// riscv64 assembly is checked by hosted test runs.
func TestCrossBuild(t *testing.T) {
	if testing.Short() {
		t.Skip("cross build skipped in short mode")
	}
	goTool, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go tool not found")
	}
	cmd := exec.Command(goTool, "vet", "./...")
	cmd.Dir = ".."
	cmd.Env = append(os.Environ(), "GOOS=linux", "GOARCH=riscv64", "CGO_ENABLED=0")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("GOARCH=riscv64 go vet ./... failed: %v\n%s", err, out)
	}
}
