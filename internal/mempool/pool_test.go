package mempool

import (
	"testing"

	"github.com/chainlab/p2pchain/internal/utxo"
	"github.com/chainlab/p2pchain/pkg/crypto"
	"github.com/chainlab/p2pchain/pkg/tx"
	"github.com/chainlab/p2pchain/pkg/types"
)

func mustKeyPair(t *testing.T) (types.PubKey, []byte) {
	t.Helper()
	pub, priv, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	return pub, priv
}

func mustMempoolCoinbase(t *testing.T) *tx.Transaction {
	t.Helper()
	pub, _ := mustKeyPair(t)
	cb, err := tx.NewCoinbase(pub)
	if err != nil {
		t.Fatalf("NewCoinbase: %v", err)
	}
	return cb
}

func TestPool_AddRejectsCoinbase(t *testing.T) {
	p := New()
	set := utxo.NewSet()
	if p.Add(mustMempoolCoinbase(t), set) {
		t.Error("Add should reject a coinbase transaction")
	}
}

func TestPool_AddValidTransfer(t *testing.T) {
	p := New()
	set := utxo.NewSet()
	minerPub, minerPriv := mustKeyPair(t)
	cb, _ := tx.NewCoinbase(minerPub)
	set.Add(cb)

	dst, _ := mustKeyPair(t)
	transfer := tx.New(dst, cb.TxID(), minerPriv)
	if !p.Add(transfer, set) {
		t.Fatal("Add should admit a valid transfer spending an unspent coin")
	}
	if p.Len() != 1 {
		t.Errorf("Len = %d, want 1", p.Len())
	}
}

func TestPool_AddRejectsUnknownInput(t *testing.T) {
	p := New()
	set := utxo.NewSet()
	_, priv := mustKeyPair(t)
	dst, _ := mustKeyPair(t)
	bogus := crypto.Hash([]byte("nowhere"))
	transfer := tx.New(dst, bogus, priv)
	if p.Add(transfer, set) {
		t.Error("Add should reject a transaction spending an unknown coin")
	}
}

func TestPool_AddRejectsWrongSignature(t *testing.T) {
	p := New()
	set := utxo.NewSet()
	minerPub, _ := mustKeyPair(t)
	cb, _ := tx.NewCoinbase(minerPub)
	set.Add(cb)

	_, wrongPriv := mustKeyPair(t)
	dst, _ := mustKeyPair(t)
	forged := tx.New(dst, cb.TxID(), wrongPriv)
	if p.Add(forged, set) {
		t.Error("Add should reject a forged signature")
	}
}

func TestPool_AddRejectsConflictingInput(t *testing.T) {
	p := New()
	set := utxo.NewSet()
	minerPub, minerPriv := mustKeyPair(t)
	cb, _ := tx.NewCoinbase(minerPub)
	set.Add(cb)

	dst1, _ := mustKeyPair(t)
	dst2, _ := mustKeyPair(t)
	first := tx.New(dst1, cb.TxID(), minerPriv)
	second := tx.New(dst2, cb.TxID(), minerPriv)

	if !p.Add(first, set) {
		t.Fatal("first spend of the coin should be admitted")
	}
	if p.Add(second, set) {
		t.Error("a second transaction spending the same already-queued input should be rejected")
	}
}

func TestPool_AddRejectsDuplicate(t *testing.T) {
	p := New()
	set := utxo.NewSet()
	minerPub, minerPriv := mustKeyPair(t)
	cb, _ := tx.NewCoinbase(minerPub)
	set.Add(cb)
	dst, _ := mustKeyPair(t)
	transfer := tx.New(dst, cb.TxID(), minerPriv)

	p.Add(transfer, set)
	if p.Add(transfer, set) {
		t.Error("adding the same transaction twice should be rejected")
	}
}

func TestPool_AppendCoinbaseBypassesValidation(t *testing.T) {
	p := New()
	cb := mustMempoolCoinbase(t)
	p.AppendCoinbase(cb)
	if p.Len() != 1 {
		t.Fatalf("Len = %d, want 1", p.Len())
	}
	if !p.Has(cb.TxID()) {
		t.Error("AppendCoinbase should admit the coinbase unconditionally")
	}
}

func TestPool_MineSliceFIFOOrder(t *testing.T) {
	p := New()
	set := utxo.NewSet()
	minerPub, minerPriv := mustKeyPair(t)
	cb, _ := tx.NewCoinbase(minerPub)
	set.Add(cb)

	var txs []*tx.Transaction
	prev := cb.TxID()
	signer := minerPriv
	for i := 0; i < 3; i++ {
		dst, dstPriv := mustKeyPair(t)
		transfer := tx.New(dst, prev, signer)
		set.Add(transfer) // pretend each coin is immediately spendable for this chain of transfers
		txs = append(txs, transfer)
		p.Add(transfer, set)
		prev = transfer.TxID()
		signer = dstPriv // the next link spends dst's coin, so dst signs it
	}

	mined := p.MineSlice(2)
	if len(mined) != 2 || mined[0].TxID() != txs[0].TxID() || mined[1].TxID() != txs[1].TxID() {
		t.Error("MineSlice should return the oldest transactions first, in queue order")
	}
	if p.Len() != 1 {
		t.Errorf("Len after MineSlice = %d, want 1", p.Len())
	}
}

func TestPool_MineSliceCanStrandCoinbaseAtTail(t *testing.T) {
	// A coinbase appended to a pool already holding Size-or-more pending
	// transfers can be pushed past the cut that produces the next block —
	// MineSlice takes strictly from the front, and AppendCoinbase always
	// lands at the back.
	p := New()
	set := utxo.NewSet()
	minerPub, minerPriv := mustKeyPair(t)
	cb0, _ := tx.NewCoinbase(minerPub)
	set.Add(cb0)

	prev := cb0.TxID()
	signer := minerPriv
	for i := 0; i < 2; i++ {
		dst, dstPriv := mustKeyPair(t)
		transfer := tx.New(dst, prev, signer)
		set.Add(transfer)
		p.Add(transfer, set)
		prev = transfer.TxID()
		signer = dstPriv
	}

	coinbase := mustMempoolCoinbase(t)
	p.AppendCoinbase(coinbase)

	mined := p.MineSlice(2)
	for _, m := range mined {
		if m.TxID() == coinbase.TxID() {
			t.Fatal("coinbase should not be included when it lands behind Size pending transfers")
		}
	}
	if !p.Has(coinbase.TxID()) {
		t.Error("coinbase should remain queued after being stranded behind the cut")
	}
}

func TestPool_Clear(t *testing.T) {
	p := New()
	p.AppendCoinbase(mustMempoolCoinbase(t))
	p.Clear()
	if p.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", p.Len())
	}
}

func TestPool_Remove(t *testing.T) {
	p := New()
	set := utxo.NewSet()
	minerPub, minerPriv := mustKeyPair(t)
	cb, _ := tx.NewCoinbase(minerPub)
	set.Add(cb)
	dst, _ := mustKeyPair(t)
	transfer := tx.New(dst, cb.TxID(), minerPriv)
	p.Add(transfer, set)

	p.Remove(transfer.TxID())
	if p.Has(transfer.TxID()) {
		t.Error("Remove should drop the transaction from the pool")
	}
	if p.InputIsQueued(cb.TxID()) {
		t.Error("Remove should free the input for reselection")
	}
}

func TestPool_InputIsQueued(t *testing.T) {
	p := New()
	set := utxo.NewSet()
	minerPub, minerPriv := mustKeyPair(t)
	cb, _ := tx.NewCoinbase(minerPub)
	set.Add(cb)
	dst, _ := mustKeyPair(t)
	transfer := tx.New(dst, cb.TxID(), minerPriv)

	if p.InputIsQueued(cb.TxID()) {
		t.Error("input should not be queued before Add")
	}
	p.Add(transfer, set)
	if !p.InputIsQueued(cb.TxID()) {
		t.Error("input should be queued after Add")
	}
}
