package types

// CoinbaseInputKey is the equivalence-class key used to stand in for a
// coinbase's nil input when something needs to key on "which input does
// this transaction spend" uniformly across coinbase and transfer
// transactions. It deliberately collides every coinbase in a block into
// the same key — see VerifyBlock's double-spend check, which inherits
// this collision from the node this module is modeled on: a block
// carrying more than one coinbase is rejected as a double spend of
// "nothing," not accepted as two independent money-creation events.
const CoinbaseInputKey = Hash("")
