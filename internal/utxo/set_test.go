package utxo

import "testing"

func TestSet_AddGetHas(t *testing.T) {
	set := NewSet()
	cb := mustCoinbase(t)
	set.Add(cb)
	if !set.Has(cb.TxID()) {
		t.Fatal("added coin should be present")
	}
	got, ok := set.Get(cb.TxID())
	if !ok || got != cb {
		t.Fatal("Get should return the added transaction")
	}
}

func TestSet_Remove(t *testing.T) {
	set := NewSet()
	cb := mustCoinbase(t)
	set.Add(cb)
	set.Remove(cb.TxID())
	if set.Has(cb.TxID()) {
		t.Error("removed coin should no longer be present")
	}
	if set.Len() != 0 {
		t.Errorf("Len = %d, want 0", set.Len())
	}
}

func TestSet_ListPreservesInsertionOrder(t *testing.T) {
	set := NewSet()
	a, b, c := mustCoinbase(t), mustCoinbase(t), mustCoinbase(t)
	set.Add(a)
	set.Add(b)
	set.Add(c)
	list := set.List()
	if len(list) != 3 || list[0] != a || list[1] != b || list[2] != c {
		t.Errorf("List order = %v, want [a b c]", list)
	}
}

func TestSet_RemoveMiddlePreservesOrderOfRest(t *testing.T) {
	set := NewSet()
	a, b, c := mustCoinbase(t), mustCoinbase(t), mustCoinbase(t)
	set.Add(a)
	set.Add(b)
	set.Add(c)
	set.Remove(b.TxID())
	list := set.List()
	if len(list) != 2 || list[0] != a || list[1] != c {
		t.Errorf("List after removing middle = %v, want [a c]", list)
	}
}

func TestSet_CloneIsIndependent(t *testing.T) {
	set := NewSet()
	a := mustCoinbase(t)
	set.Add(a)
	clone := set.Clone()

	b := mustCoinbase(t)
	clone.Add(b)
	if set.Has(b.TxID()) {
		t.Error("mutating a clone should not affect the original set")
	}
	clone.Remove(a.TxID())
	if !set.Has(a.TxID()) {
		t.Error("removing from a clone should not affect the original set")
	}
}

func TestSet_AddDuplicateIsNoop(t *testing.T) {
	set := NewSet()
	a := mustCoinbase(t)
	set.Add(a)
	set.Add(a)
	if set.Len() != 1 {
		t.Errorf("Len = %d, want 1 after duplicate add", set.Len())
	}
}
