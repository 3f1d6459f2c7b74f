package ethrpc

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/louisbranch/challenge.space/internal/ledger"
)

func artifactJSON(name string, networks string) string {
	return fmt.Sprintf(`{"contractName":%q,"abi":%s,"networks":{%s}}`, name, tagsABI, networks)
}

func TestParseArtifactSingleNetwork(t *testing.T) {
	data := artifactJSON("Tags", `"10":{"address":"`+contractAddress+`"}`)
	artifact, err := ParseArtifact([]byte(data), "")
	if err != nil {
		t.Fatalf("parse artifact: %v", err)
	}
	if artifact.Name != "Tags" {
		t.Fatalf("name = %q, want Tags", artifact.Name)
	}
	if artifact.Address != common.HexToAddress(contractAddress) {
		t.Fatalf("address = %s, want %s", artifact.Address.Hex(), contractAddress)
	}
	if _, ok := artifact.ABI.Methods["getTag"]; !ok {
		t.Fatal("expected getTag in abi")
	}
}

func TestParseArtifactNetworkSelection(t *testing.T) {
	data := artifactJSON("Tags", `"10":{"address":"`+contractAddress+`"},"11":{"address":"0x00000000000000000000000000000000000000c2"}`)
	if _, err := ParseArtifact([]byte(data), ""); err == nil {
		t.Fatal("expected ambiguous network error")
	}
	artifact, err := ParseArtifact([]byte(data), "11")
	if err != nil {
		t.Fatalf("parse artifact: %v", err)
	}
	if artifact.Address != common.HexToAddress("0x00000000000000000000000000000000000000c2") {
		t.Fatalf("address = %s", artifact.Address.Hex())
	}
	if _, err := ParseArtifact([]byte(data), "12"); err == nil {
		t.Fatal("expected missing network error")
	}
}

func TestParseArtifactRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "{"},
		{name: "no abi", data: `{"contractName":"X","networks":{}}`},
		{name: "bad address", data: artifactJSON("X", `"10":{"address":"zz"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseArtifact([]byte(tt.data), ""); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadArtifactsReadsEveryContract(t *testing.T) {
	dir := t.TempDir()
	for _, contract := range ledger.Contracts() {
		data := artifactJSON(string(contract), `"10":{"address":"`+contractAddress+`"}`)
		if err := os.WriteFile(filepath.Join(dir, string(contract)+".json"), []byte(data), 0o600); err != nil {
			t.Fatalf("write artifact: %v", err)
		}
	}
	artifacts, err := LoadArtifacts(dir, "10")
	if err != nil {
		t.Fatalf("load artifacts: %v", err)
	}
	if len(artifacts) != len(ledger.Contracts()) {
		t.Fatalf("artifacts = %d, want %d", len(artifacts), len(ledger.Contracts()))
	}

	if err := os.Remove(filepath.Join(dir, string(ledger.PrivateProject)+".json")); err != nil {
		t.Fatalf("remove artifact: %v", err)
	}
	if _, err := LoadArtifacts(dir, "10"); err == nil {
		t.Fatal("expected missing artifact error")
	}
}
