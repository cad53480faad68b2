package testutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type recordingT struct {
	msg string
}

func (r *recordingT) Fatalf(format string, args ...any) {
	r.msg = format
	if len(args) > 0 {
		r.msg = strings.Join([]string{format, args[len(args)-1].(string)}, "|")
	}
}

func writeFile(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDriverImportForbidden(t *testing.T) {
	cases := map[string]bool{
		"github.com/aws/aws-sdk-go-v2/service/s3": true,
		"github.com/jackc/pgx/v5/stdlib":          true,
		"modernc.org/sqlite":                      true,
		"database/sql":                            true,
		"github.com/prometheus/client_golang":     false,
		"dnacore/pkg/domain":                      false,
		"":                                        false,
	}
	for in, want := range cases {
		if got := DriverImportForbidden(in); got != want {
			t.Fatalf("DriverImportForbidden(%q)=%v want %v", in, got, want)
		}
	}
}

func TestInternalAndModulePredicates(t *testing.T) {
	if !InternalImportForbidden("dnacore/internal/document") || InternalImportForbidden("internal") || InternalImportForbidden("dnacore/pkg/domain") {
		t.Fatalf("unexpected internal predicate result")
	}
	mod := ModuleImportForbidden("dnacore")
	if !mod("dnacore") || !mod("dnacore/pkg/domain") || mod("dnacorex/pkg") {
		t.Fatalf("unexpected module predicate result")
	}
}

func TestAssertNoDirectImportsSkipsTestsAndSubdirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package tmp\nimport (\n\t\"fmt\"\n\talias \"context\"\n)\nfunc X() { fmt.Println(alias.Background()) }\n")
	writeFile(t, dir, "main_test.go", "package tmp\nimport \"forbidden/pkg\"\n")
	writeFile(t, dir, "notes.txt", "import \"forbidden/pkg\"")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(dir, "sub"), "sub.go", "package sub\nimport \"forbidden/pkg\"\n")

	AssertNoDirectImports(t, dir, func(p string) bool { return p == "forbidden/pkg" }, "only package sources count")
}

func TestDirectImportViolationsReported(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.go", "package tmp\nimport _ \"modernc.org/sqlite\"\n")
	viols, err := directImportViolations(dir, DriverImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || viols[0] != "modernc.org/sqlite (in bad.go)" {
		t.Fatalf("unexpected violations %v", viols)
	}
	if _, err := directImportViolations(filepath.Join(dir, "missing"), DriverImportForbidden); err == nil {
		t.Fatalf("expected missing dir error")
	}
	writeFile(t, dir, "broken.go", "package")
	if _, err := directImportViolations(dir, DriverImportForbidden); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestFailIfViolations(t *testing.T) {
	rec := &recordingT{}
	failIfViolations(rec, "forbidden direct imports", "reason", nil)
	if rec.msg != "" {
		t.Fatalf("no violations must not fail")
	}
	failIfViolations(rec, "forbidden direct imports", "reason", []string{"a", "b"})
	if !strings.HasSuffix(rec.msg, "|a\nb") {
		t.Fatalf("unexpected failure message %q", rec.msg)
	}
}

func TestAssertNoTransitiveDependencyUsesLoader(t *testing.T) {
	orig := loadDeps
	t.Cleanup(func() { loadDeps = orig })
	loadDeps = func(string) ([]string, error) {
		return []string{"dnacore/pkg/domain", "github.com/jackc/pgx/v5"}, nil
	}
	viols := filter([]string{"dnacore/pkg/domain", "github.com/jackc/pgx/v5"}, DriverImportForbidden)
	if len(viols) != 1 || viols[0] != "github.com/jackc/pgx/v5" {
		t.Fatalf("unexpected filter result %v", viols)
	}
	AssertNoTransitiveDependency(t, ".", func(p string) bool { return p == "nothing/here" }, "stubbed loader")

	loadDeps = func(string) ([]string, error) { return nil, errors.New("boom") }
	if _, err := loadDeps("."); err == nil {
		t.Fatalf("expected loader error")
	}
}

func TestAssertNoTransitiveDependencyOnThisPackage(t *testing.T) {
	if testing.Short() {
		t.Skip("loads the import graph through the go command")
	}
	AssertNoTransitiveDependency(t, ".", DriverImportForbidden, "testutil stays driver free")
}
