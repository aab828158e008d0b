package goMFA

import (
	"context"
	"strings"
	"testing"
)

type fakeMethod struct {
	name string
}

func (m fakeMethod) Name() string { return m.name }
func (m fakeMethod) RegisterBegin(context.Context, UserRecord) ([]byte, []byte, error) {
	return []byte("{}"), []byte("state"), nil
}
func (m fakeMethod) RegisterComplete(context.Context, []byte, string) (string, error) {
	return "secret", nil
}
func (m fakeMethod) AuthenticateBegin(context.Context, UserRecord) ([]byte, []byte, error) {
	return nil, nil, nil
}
func (m fakeMethod) AuthenticateComplete(context.Context, []byte, UserRecord, string) error {
	return nil
}

func TestBuildRequiresStores(t *testing.T) {
	_, rdb := newTestRedis(t)
	cfg := flowTestConfig()

	if _, err := New().WithConfig(cfg).WithKeyStore(newTestKeyStore()).WithUserDirectory(flowUsers).Build(); err == nil {
		t.Fatal("expected missing session store to fail")
	}
	if _, err := New().WithConfig(cfg).WithRedis(rdb).WithUserDirectory(flowUsers).Build(); err == nil {
		t.Fatal("expected missing key store to fail")
	}
	if _, err := New().WithConfig(cfg).WithRedis(rdb).WithKeyStore(newTestKeyStore()).Build(); err == nil {
		t.Fatal("expected missing user directory to fail")
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	_, rdb := newTestRedis(t)
	cfg := flowTestConfig()
	cfg.RelyingParty.Domain = ""

	_, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithKeyStore(newTestKeyStore()).
		WithUserDirectory(flowUsers).
		Build()
	if err == nil {
		t.Fatal("expected config validation to fail")
	}
}

func TestBuildRejectsUnknownMethod(t *testing.T) {
	_, rdb := newTestRedis(t)
	cfg := flowTestConfig()
	cfg.Methods = []string{MethodTOTP, "sms"}

	_, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithKeyStore(newTestKeyStore()).
		WithUserDirectory(flowUsers).
		Build()
	if err == nil || !strings.Contains(err.Error(), "sms") {
		t.Fatalf("expected unknown method error, got %v", err)
	}
}

func TestBuildCustomMethodMustBeEnabled(t *testing.T) {
	_, rdb := newTestRedis(t)
	cfg := flowTestConfig()

	_, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithKeyStore(newTestKeyStore()).
		WithUserDirectory(flowUsers).
		WithMethod(fakeMethod{name: "sms"}).
		Build()
	if err == nil || !strings.Contains(err.Error(), "sms") {
		t.Fatalf("expected unreferenced custom method error, got %v", err)
	}
}

func TestBuildCustomMethodOverridesBuiltin(t *testing.T) {
	_, rdb := newTestRedis(t)
	cfg := flowTestConfig()
	cfg.Methods = []string{MethodTOTP}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithKeyStore(newTestKeyStore()).
		WithUserDirectory(flowUsers).
		WithMethod(fakeMethod{name: MethodTOTP}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	// The stand-in accepts anything, which the builtin would not.
	if _, err := engine.BeginRegister(context.Background(), "s1", MethodTOTP, flowUsers["u1"]); err != nil {
		t.Fatalf("BeginRegister via custom method failed: %v", err)
	}
	if _, err := engine.CompleteRegister(context.Background(), "s1", flowUsers["u1"], MethodTOTP, "any", "whatever"); err != nil {
		t.Fatalf("CompleteRegister via custom method failed: %v", err)
	}
}

func TestBuilderSingleUse(t *testing.T) {
	_, rdb := newTestRedis(t)

	builder := New().
		WithConfig(flowTestConfig()).
		WithRedis(rdb).
		WithKeyStore(newTestKeyStore()).
		WithUserDirectory(flowUsers)

	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	if _, err := builder.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestEngineMethodsListsConfiguredOrder(t *testing.T) {
	engine, _ := newFlowEngine(t, nil)

	got := engine.Methods()
	want := []string{MethodFIDO2, MethodTOTP, MethodRecovery}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
