package service

import "testing"

func TestWithCapabilitiesCopies(t *testing.T) {
	base := Descriptor{Name: "orders", Layer: LayerService, Capabilities: []string{"orders.read"}}
	extended := base.WithCapabilities("orders.write")

	if len(base.Capabilities) != 1 {
		t.Fatalf("base descriptor mutated: %v", base.Capabilities)
	}
	if len(extended.Capabilities) != 2 || extended.Capabilities[1] != "orders.write" {
		t.Fatalf("unexpected capabilities: %v", extended.Capabilities)
	}
	if same := base.WithCapabilities(); len(same.Capabilities) != 1 {
		t.Fatalf("no-op append changed descriptor: %v", same.Capabilities)
	}
}
