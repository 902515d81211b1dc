package jsengine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/devicelab-dev/screen-expect/pkg/check"
	"github.com/devicelab-dev/screen-expect/pkg/core"
	"github.com/devicelab-dev/screen-expect/pkg/screen"
	"github.com/devicelab-dev/screen-expect/pkg/vars"
)

func TestEval(t *testing.T) {
	engine := New(Bindings{})

	tests := []struct {
		name     string
		script   string
		expected interface{}
	}{
		{"simple number", "1 + 2", int64(3)},
		{"string concat", "'hello' + ' ' + 'world'", "hello world"},
		{"boolean", "true && false", false},
		{"null coalescing", "null ?? 'default'", "default"},
		{"array length", "[1, 2, 3].length", int64(3)},
		{"object property", "({name: 'test'}).name", "test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.Eval(tt.script)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %v (%T), got %v (%T)", tt.expected, tt.expected, result, result)
			}
		})
	}
}

func TestRun_ReturnsValue(t *testing.T) {
	engine := New(Bindings{TestData: map[string]interface{}{"user": "ann"}})

	got, err := engine.Run(context.Background(), `
		const greeting = await Promise.resolve("hi " + testData.user);
		return greeting;
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hi ann" {
		t.Errorf("Run() = %v", got)
	}
}

func TestRun_TestDataWritesThrough(t *testing.T) {
	data := map[string]interface{}{}
	engine := New(Bindings{TestData: data})

	if _, err := engine.Run(context.Background(), `testData.seen = true;`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data["seen"] != true {
		t.Errorf("testData = %v", data)
	}
}

func TestRun_Vars(t *testing.T) {
	store := vars.New()
	_ = store.Store("count", 5)
	data := map[string]interface{}{}
	engine := New(Bindings{Vars: store, TestData: data})

	_, err := engine.Run(context.Background(), `
		vars.set("doubled", vars.get("count") * 2);
		vars.persist("kept", "yes");
		if (!vars.has("doubled")) throw new Error("missing");
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := store.Get("doubled"); v != int64(10) {
		t.Errorf("doubled = %v (%T)", v, v)
	}
	if data["kept"] != "yes" {
		t.Errorf("persisted value not mirrored: %v", data)
	}
}

type loginScreen struct{ attempts int }

func (s *loginScreen) SignIn(ctx context.Context, user string) (string, error) {
	s.attempts++
	if user == "" {
		return "", errors.New("empty user")
	}
	return "welcome " + user, nil
}

func TestRun_Screen(t *testing.T) {
	ls := &loginScreen{}
	engine := New(Bindings{Screen: screen.FromStruct(ls)})

	got, err := engine.Run(context.Background(), `
		if (!screen.has("signIn")) throw new Error("no signIn");
		return screen.call("signIn", "ann");
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "welcome ann" || ls.attempts != 1 {
		t.Errorf("Run() = %v, attempts = %d", got, ls.attempts)
	}

	_, err = engine.Run(context.Background(), `screen.call("signIn", "")`)
	if err == nil || !strings.Contains(err.Error(), "empty user") {
		t.Errorf("error = %v, want the method error", err)
	}
}

func TestRun_ExpectFailureKeepsIdentity(t *testing.T) {
	engine := New(Bindings{})

	if _, err := engine.Run(context.Background(), `expect(3).toBeGreaterThan(2); expect("a").not.toBe("b");`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := engine.Run(context.Background(), `expect(1, "count").toBeGreaterThan(2);`)
	if !errors.Is(err, core.ErrAssertionFailure) {
		t.Fatalf("error = %v, want ErrAssertionFailure", err)
	}
	if !strings.Contains(err.Error(), "count") {
		t.Errorf("error = %v, want label in message", err)
	}
}

func TestRun_Check(t *testing.T) {
	var got check.Assertion
	engine := New(Bindings{Check: func(ctx context.Context, a check.Assertion) (interface{}, error) {
		got = a
		return true, nil
	}})

	out, err := engine.Run(context.Background(), `return check({fn: "rows[all]", expect: "isVisible", storeAs: "shown"});`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != true || got.Fn != "rows[all]" || got.Expect != "isVisible" || got.StoreAs != "shown" {
		t.Errorf("Run() = %v, assertion = %+v", out, got)
	}
}

func TestRun_Errors(t *testing.T) {
	engine := New(Bindings{})

	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"thrown error", `throw new Error("boom");`, "boom"},
		{"syntax error", `return (;`, "JS runtime error"},
		{"never settles", `await new Promise(function() {});`, "did not settle"},
		{"bad json", `json("{");`, "invalid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Run(context.Background(), tt.script)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestRun_ContextInterrupts(t *testing.T) {
	engine := New(Bindings{})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := engine.Run(ctx, `while (true) {}`)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}

	// the engine stays usable
	if _, err := engine.Run(context.Background(), `return 1;`); err != nil {
		t.Errorf("engine unusable after interrupt: %v", err)
	}
}

func TestConsoleLog(t *testing.T) {
	engine := New(Bindings{})

	_, err := engine.Run(context.Background(), `
		console.log("test message");
		console.error("error message");
		console.warn("warning message");
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestJSON(t *testing.T) {
	engine := New(Bindings{})

	got, err := engine.Run(context.Background(), `
		var data = json('{"name": "test", "value": 123}');
		return data.name + ":" + data.value;
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "test:123" {
		t.Errorf("Run() = %v", got)
	}
}
