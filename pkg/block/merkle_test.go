package block

import (
	"testing"

	"github.com/chainlab/p2pchain/pkg/crypto"
	"github.com/chainlab/p2pchain/pkg/types"
)

func ids(n int) []types.Hash {
	out := make([]types.Hash, n)
	for i := range out {
		out[i] = crypto.Hash([]byte{byte(i)})
	}
	return out
}

func TestComputeMerkleRoot_Empty(t *testing.T) {
	root := ComputeMerkleRoot(nil)
	if len(root) != 0 {
		t.Errorf("empty input should yield the empty byte string, got %x", root)
	}
}

func TestComputeMerkleRoot_SingleLeaf(t *testing.T) {
	leaves := ids(1)
	root := ComputeMerkleRoot(leaves)
	want := crypto.HashConcat(leaves[0].Bytes(), []byte{}).Bytes()
	if string(root) != string(want) {
		t.Errorf("single-leaf root = %x, want %x", root, want)
	}
}

func TestComputeMerkleRoot_TwoLeaves(t *testing.T) {
	leaves := ids(2)
	root := ComputeMerkleRoot(leaves)
	want := crypto.HashConcat(leaves[0].Bytes(), leaves[1].Bytes()).Bytes()
	if string(root) != string(want) {
		t.Errorf("two-leaf root = %x, want %x", root, want)
	}
}

// Leaf counts 5, 6, 9 and 10 all produce an odd count again at some
// higher level after the first pad; each must be repadded rather than
// run off the end of the slice. BLOCK_SIZE (10) makes all of these
// reachable in ordinary operation.
func TestComputeMerkleRoot_OddAtHigherLevelDoesNotPanic(t *testing.T) {
	for _, n := range []int{3, 5, 6, 7, 9, 10} {
		n := n
		t.Run(string(rune('0'+n)), func(t *testing.T) {
			leaves := ids(n)
			root := ComputeMerkleRoot(leaves)
			if len(root) != 32 {
				t.Errorf("n=%d: root length = %d, want 32", n, len(root))
			}
		})
	}
}

func TestComputeMerkleRoot_Deterministic(t *testing.T) {
	leaves := ids(7)
	r1 := ComputeMerkleRoot(leaves)
	r2 := ComputeMerkleRoot(leaves)
	if string(r1) != string(r2) {
		t.Error("merkle root should be deterministic for the same leaves")
	}
}

func TestComputeMerkleRoot_OrderSensitive(t *testing.T) {
	leaves := ids(4)
	reversed := []types.Hash{leaves[3], leaves[2], leaves[1], leaves[0]}
	if string(ComputeMerkleRoot(leaves)) == string(ComputeMerkleRoot(reversed)) {
		t.Error("merkle root should depend on leaf order")
	}
}
