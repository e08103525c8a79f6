package main

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func TestDevnetManifestUnmarshal(t *testing.T) {
	raw := []byte(`
nodes:
  - id: node-1
    curve: secp256k1
    hash_algo: blake3
  - id: node-2
`)
	var manifest devnetManifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		t.Fatalf("yaml.Unmarshal failed: %v", err)
	}
	if len(manifest.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(manifest.Nodes))
	}
	if manifest.Nodes[0].ID != "node-1" || manifest.Nodes[0].Curve != "secp256k1" || manifest.Nodes[0].HashAlgo != "blake3" {
		t.Fatalf("unexpected first node spec: %+v", manifest.Nodes[0])
	}
	if manifest.Nodes[1].ID != "node-2" || manifest.Nodes[1].Curve != "" {
		t.Fatalf("unexpected second node spec: %+v", manifest.Nodes[1])
	}
}

func TestRunDevnetWiresNodesAndStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := &cobra.Command{Use: "devnet"}
	cmd.SetContext(ctx)

	specs := []devnetNodeSpec{{ID: "node-1"}, {ID: "node-2", Curve: "secp256k1", HashAlgo: "sha3_256"}}
	if err := runDevnet(cmd, specs); err != nil {
		t.Fatalf("expected runDevnet to shut down cleanly on a canceled context, got %v", err)
	}
}
