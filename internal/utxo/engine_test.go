package utxo

import (
	"testing"

	"github.com/chainlab/p2pchain/pkg/block"
	"github.com/chainlab/p2pchain/pkg/crypto"
	"github.com/chainlab/p2pchain/pkg/tx"
	"github.com/chainlab/p2pchain/pkg/types"
)

func keyPair(t *testing.T) (types.PubKey, []byte) {
	t.Helper()
	pub, priv, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	return pub, priv
}

func TestApply_Coinbase(t *testing.T) {
	set, idx := NewSet(), NewTxIndex()
	cb := mustCoinbase(t)
	blk := block.New(types.GenesisPrev, []*tx.Transaction{cb})

	if err := Apply(blk, set, idx); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !set.Has(cb.TxID()) {
		t.Error("coinbase should be unspent after applying its block")
	}
	if _, ok := idx.Get(cb.TxID()); !ok {
		t.Error("coinbase should be recorded in the tx index")
	}
}

func TestApply_TransferSpendsInput(t *testing.T) {
	set, idx := NewSet(), NewTxIndex()
	minerPub, minerPriv := keyPair(t)
	cb, err := tx.NewCoinbase(minerPub)
	if err != nil {
		t.Fatalf("NewCoinbase: %v", err)
	}
	if err := Apply(block.New(types.GenesisPrev, []*tx.Transaction{cb}), set, idx); err != nil {
		t.Fatalf("Apply coinbase block: %v", err)
	}

	dstPub, _ := keyPair(t)
	transfer := tx.New(dstPub, cb.TxID(), minerPriv)
	blk2 := block.New(cb.TxID(), []*tx.Transaction{transfer})
	if err := Apply(blk2, set, idx); err != nil {
		t.Fatalf("Apply transfer block: %v", err)
	}

	if set.Has(cb.TxID()) {
		t.Error("spent coinbase should no longer be unspent")
	}
	if !set.Has(transfer.TxID()) {
		t.Error("transfer's new coin should be unspent")
	}
}

func TestApply_UnknownInputFails(t *testing.T) {
	set, idx := NewSet(), NewTxIndex()
	_, priv := keyPair(t)
	dstPub, _ := keyPair(t)
	bogus := crypto.Hash([]byte("nonexistent"))
	transfer := tx.New(dstPub, bogus, priv)
	blk := block.New(types.GenesisPrev, []*tx.Transaction{transfer})

	if err := Apply(blk, set, idx); err == nil {
		t.Error("applying a transaction that spends an unknown input should fail")
	}
}

func TestRevert_UndoesApply(t *testing.T) {
	set, idx := NewSet(), NewTxIndex()
	minerPub, minerPriv := keyPair(t)
	cb, _ := tx.NewCoinbase(minerPub)
	blk1 := block.New(types.GenesisPrev, []*tx.Transaction{cb})
	Apply(blk1, set, idx)

	dstPub, _ := keyPair(t)
	transfer := tx.New(dstPub, cb.TxID(), minerPriv)
	blk2 := block.New(cb.TxID(), []*tx.Transaction{transfer})
	if err := Apply(blk2, set, idx); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if err := Revert(blk2, set, idx); err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if !set.Has(cb.TxID()) {
		t.Error("reverting the transfer block should restore the spent coinbase")
	}
	if set.Has(transfer.TxID()) {
		t.Error("reverting the transfer block should remove the transfer's coin")
	}
}

func TestVerifyBlock_ValidTransfer(t *testing.T) {
	set := NewSet()
	minerPub, minerPriv := keyPair(t)
	cb, _ := tx.NewCoinbase(minerPub)
	set.Add(cb)

	dstPub, _ := keyPair(t)
	transfer := tx.New(dstPub, cb.TxID(), minerPriv)
	blk := block.New(cb.TxID(), []*tx.Transaction{transfer})

	if !VerifyBlock(blk, set) {
		t.Error("a correctly signed transfer spending an unspent coin should verify")
	}
}

func TestVerifyBlock_RejectsUnknownInput(t *testing.T) {
	set := NewSet()
	_, priv := keyPair(t)
	dstPub, _ := keyPair(t)
	bogus := crypto.Hash([]byte("nonexistent"))
	transfer := tx.New(dstPub, bogus, priv)
	blk := block.New(types.GenesisPrev, []*tx.Transaction{transfer})

	if VerifyBlock(blk, set) {
		t.Error("spending a coin absent from the unspent set should fail verification")
	}
}

func TestVerifyBlock_RejectsWrongSignature(t *testing.T) {
	set := NewSet()
	minerPub, _ := keyPair(t)
	cb, _ := tx.NewCoinbase(minerPub)
	set.Add(cb)

	_, wrongPriv := keyPair(t)
	dstPub, _ := keyPair(t)
	forged := tx.New(dstPub, cb.TxID(), wrongPriv)
	blk := block.New(cb.TxID(), []*tx.Transaction{forged})

	if VerifyBlock(blk, set) {
		t.Error("a transfer signed by the wrong key should fail verification")
	}
}

func TestVerifyBlock_RejectsDoubleSpendWithinBlock(t *testing.T) {
	set := NewSet()
	minerPub, minerPriv := keyPair(t)
	cb, _ := tx.NewCoinbase(minerPub)
	set.Add(cb)

	dst1, _ := keyPair(t)
	dst2, _ := keyPair(t)
	t1 := tx.New(dst1, cb.TxID(), minerPriv)
	t2 := tx.New(dst2, cb.TxID(), minerPriv)
	blk := block.New(cb.TxID(), []*tx.Transaction{t1, t2})

	if VerifyBlock(blk, set) {
		t.Error("two transactions spending the same input in one block should fail verification")
	}
}

// TestVerifyBlock_SecondCoinbaseCollidesWithFirst documents the inherited
// collision: every coinbase shares the same nil-input key, so a block
// carrying two of them is rejected the same way a double spend is,
// even though no coin is actually spent twice.
func TestVerifyBlock_SecondCoinbaseCollidesWithFirst(t *testing.T) {
	set := NewSet()
	pub1, _ := keyPair(t)
	pub2, _ := keyPair(t)
	cb1, _ := tx.NewCoinbase(pub1)
	cb2, _ := tx.NewCoinbase(pub2)
	blk := block.New(types.GenesisPrev, []*tx.Transaction{cb1, cb2})

	if VerifyBlock(blk, set) {
		t.Error("a block with two coinbases should fail verification: both collide on the nil-input key")
	}
}

func TestVerifyBlock_RejectsOversizedBlock(t *testing.T) {
	set := NewSet()
	txs := make([]*tx.Transaction, block.Size+1)
	for i := range txs {
		pub, _ := keyPair(t)
		cb, _ := tx.NewCoinbase(pub)
		txs[i] = cb
	}
	blk := block.New(types.GenesisPrev, txs)

	if VerifyBlock(blk, set) {
		t.Error("a block carrying more than block.Size transactions should fail verification")
	}
}

func TestVerifyBlock_SingleCoinbaseIsFine(t *testing.T) {
	set := NewSet()
	pub, _ := keyPair(t)
	cb, _ := tx.NewCoinbase(pub)
	blk := block.New(types.GenesisPrev, []*tx.Transaction{cb})

	if !VerifyBlock(blk, set) {
		t.Error("a block with a single coinbase should verify")
	}
}
