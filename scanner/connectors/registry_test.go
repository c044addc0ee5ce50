package connectors

import "testing"

type stubConnector struct {
	name string
}

func (s stubConnector) PlatformName() string { return s.name }
func (s stubConnector) Fetch(url string) (Result, error) {
	return Result{Platform: s.name, URL: url, Alive: true}, nil
}

func TestRegistryDispatchesByHostSuffix(t *testing.T) {
	fallback := stubConnector{name: "generic"}
	reg := NewRegistry(fallback)
	reg.Register("example.com", stubConnector{name: "example"})

	r, err := reg.Fetch("https://sub.example.com/agent")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if r.Platform != "example" {
		t.Fatalf("expected dispatch to the registered connector, got %s", r.Platform)
	}
}

func TestRegistryFallsBackForUnmatchedHost(t *testing.T) {
	fallback := stubConnector{name: "generic"}
	reg := NewRegistry(fallback)
	reg.Register("example.com", stubConnector{name: "example"})

	r, err := reg.Fetch("https://unrelated.test/agent")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if r.Platform != "generic" {
		t.Fatalf("expected fallback connector, got %s", r.Platform)
	}
}
