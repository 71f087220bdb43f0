package env

import (
	"testing"
	"time"
)

func TestStr(t *testing.T) {
	t.Setenv("RS_TEST_STR", "value")
	if got := Str("RS_TEST_STR", "def"); got != "value" {
		t.Errorf("got %q", got)
	}
	if got := Str("RS_TEST_UNSET", "def"); got != "def" {
		t.Errorf("got %q", got)
	}
}

func TestTypedFallbacks(t *testing.T) {
	t.Setenv("RS_TEST_INT", "not a number")
	if got := Int("RS_TEST_INT", 7); got != 7 {
		t.Errorf("Int = %d", got)
	}
	t.Setenv("RS_TEST_DUR", "250ms")
	if got := Duration("RS_TEST_DUR", time.Second); got != 250*time.Millisecond {
		t.Errorf("Duration = %v", got)
	}
	t.Setenv("RS_TEST_BOOL", "true")
	if !Bool("RS_TEST_BOOL", false) {
		t.Error("Bool = false")
	}
	t.Setenv("RS_TEST_FLOAT", "0.5")
	if got := Float("RS_TEST_FLOAT", 1); got != 0.5 {
		t.Errorf("Float = %f", got)
	}
}

func TestList(t *testing.T) {
	t.Setenv("RS_TEST_LIST", "a, b,,c ")
	got := List("RS_TEST_LIST", "")
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("List = %v", got)
	}
	if got := List("RS_TEST_LIST_UNSET", "x,y"); len(got) != 2 {
		t.Errorf("List default = %v", got)
	}
}
