package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/necrolang/necro-mach/pkg/coreast"
)

func TestLoadSimpleConstantBind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "const.yaml")
	src := `
main_name: main
binds:
  - name: answer
    args: []
    type: {kind: con, name: Int}
    body:
      kind: lit
      lit_kind: int
      int: 42
      type: {kind: con, name: Int}
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	prog, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(prog.Binds) != 1 {
		t.Fatalf("expected 1 bind, got %d", len(prog.Binds))
	}
	bind := prog.Binds[0]
	if bind.Name != "answer" {
		t.Errorf("expected bind name %q, got %q", "answer", bind.Name)
	}
	lit, ok := bind.Body.(coreast.Lit)
	if !ok {
		t.Fatalf("expected coreast.Lit body, got %T", bind.Body)
	}
	if lit.Kind != coreast.LitInt || lit.Int != 42 {
		t.Errorf("expected int literal 42, got kind=%v int=%d", lit.Kind, lit.Int)
	}
}

func TestLoadAppWithDataDeclAndCase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "case.yaml")
	src := `
main_name: ""
datas:
  - name: Bool
    type: {kind: con, name: Bool}
    cons:
      - {name: False, fields: [], con_num: 0}
      - {name: True, fields: [], con_num: 1}
binds:
  - name: negate
    args: [x]
    type: {kind: con, name: Bool}
    body:
      kind: case
      scrutinee: {kind: var, name: x, type: {kind: con, name: Bool}}
      type: {kind: con, name: Bool}
      alts:
        - con_name: False
          binders: []
          var_bind: ""
          body: {kind: var, name: True, type: {kind: con, name: Bool}}
        - con_name: True
          binders: []
          var_bind: ""
          body: {kind: var, name: False, type: {kind: con, name: Bool}}
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	prog, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(prog.Datas) != 1 || len(prog.Datas[0].Cons) != 2 {
		t.Fatalf("expected 1 data decl with 2 cons, got %+v", prog.Datas)
	}
	bind := prog.Binds[0]
	if len(bind.Args) != 1 || bind.Args[0] != "x" {
		t.Errorf("expected single arg %q, got %v", "x", bind.Args)
	}
	cs, ok := bind.Body.(coreast.Case)
	if !ok {
		t.Fatalf("expected coreast.Case body, got %T", bind.Body)
	}
	if len(cs.Alts) != 2 {
		t.Fatalf("expected 2 alts, got %d", len(cs.Alts))
	}
	if cs.Alts[0].ConName != "False" || cs.Alts[1].ConName != "True" {
		t.Errorf("unexpected alt ordering: %+v", cs.Alts)
	}
}

func TestLoadRejectsUnknownExprKind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	src := `
binds:
  - name: broken
    args: []
    body:
      kind: mystery
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unrecognized expr kind, got nil")
	}
}
