package merkle

import "testing"

func TestProveAndVerifyFullyBuiltTree(t *testing.T) {
	it := &sliceIterator{blocks: blocks(7)}
	tr, err := FromIter(it, 7, SHA512{})
	if err != nil {
		t.Fatalf("FromIter: %v", err)
	}

	for leaf := 0; leaf < 7; leaf++ {
		proof, err := tr.Prove(leaf)
		if err != nil {
			t.Fatalf("Prove(%d): %v", leaf, err)
		}
		if proof.Partial {
			t.Fatalf("leaf %d: proof should not be partial once the tree is fully built", leaf)
		}
		if err := tr.Verify(proof); err != nil {
			t.Fatalf("Verify(%d): %v", leaf, err)
		}
	}
}

func TestProvePartialTreeReportsPartial(t *testing.T) {
	// An 8-leaf tree with leaf 1 never set: leaf 4's own subtree (4,5 -> 10;
	// 6,7 -> 11; 10,11 -> 13) builds completely, but 13's sibling, 12 (the
	// parent of 8,9, which never commits because 8 itself never commits
	// without leaf 1), never arrives — so leaf 4's proof walk covers two
	// full levels before it runs out of built ancestry.
	tr := New(8, SHA512{})
	leaves := blocks(8)
	for _, i := range []int{0, 2, 3, 4, 5, 6, 7} {
		if err := tr.Set(i, SHA512{}.Sum(leaves[i])); err != nil {
			t.Fatalf("Set(%d): %v", i, err)
		}
	}
	if tr.Built() {
		t.Fatal("tree should not be fully built with leaf 1 missing")
	}

	proof, err := tr.Prove(4)
	if err != nil {
		t.Fatalf("Prove(4): %v", err)
	}
	if !proof.Partial {
		t.Fatal("expected a proof from an incomplete tree to report Partial")
	}
	if len(proof.Path) != 2 {
		t.Fatalf("path length = %d, want 2 (walk stops once ancestry runs out)", len(proof.Path))
	}
}

func TestVerifyRejectsWrongLeafHash(t *testing.T) {
	it := &sliceIterator{blocks: blocks(4)}
	tr, err := FromIter(it, 4, SHA512{})
	if err != nil {
		t.Fatalf("FromIter: %v", err)
	}

	proof, err := tr.Prove(0)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	proof.LeafHash = SHA512{}.Sum([]byte("tampered"))

	if err := tr.Verify(proof); err == nil {
		t.Fatal("expected Verify to reject a tampered leaf hash")
	}
}

func TestValidateRejectsMismatchedLeafIndex(t *testing.T) {
	it := &sliceIterator{blocks: blocks(4)}
	tr, err := FromIter(it, 4, SHA512{})
	if err != nil {
		t.Fatalf("FromIter: %v", err)
	}

	p0, err := tr.Prove(0)
	if err != nil {
		t.Fatalf("Prove(0): %v", err)
	}
	p1, err := tr.Prove(1)
	if err != nil {
		t.Fatalf("Prove(1): %v", err)
	}

	if err := p0.Validate(p1); err == nil {
		t.Fatal("expected Validate to reject proofs for different leaves")
	}
}

func TestProveRejectsOutOfRangeLeaf(t *testing.T) {
	tr := New(4, SHA512{})
	if _, err := tr.Prove(4); err == nil {
		t.Fatal("expected Prove with an out-of-range leaf index to fail")
	}
}
